package authtest

import (
	"testing"
	"time"

	pkgjwt "slotstream/internal/pkg/jwt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// SignToken issues an HS256 token the auth middleware accepts, scoped to the
// given tenant and actor.
func SignToken(t *testing.T, secret string, tenantID, actorID uuid.UUID) string {
	t.Helper()

	claims := pkgjwt.Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}
