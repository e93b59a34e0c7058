package idempotency

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// Fingerprint summarizes the semantically relevant parts of a request so a
// key reused with a different intent is detected regardless of timing.
func Fingerprint(method, path string, body []byte, actorID uuid.UUID) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	h.Write([]byte{0})
	h.Write([]byte(actorID.String()))
	return hex.EncodeToString(h.Sum(nil))
}
