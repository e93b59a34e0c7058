package idempotency

import (
	"encoding/json"

	"slotstream/internal/infra/store"
	"slotstream/internal/pkg/errs"
)

// ResponseSnapshot is the cached outcome replayed verbatim to duplicates.
type ResponseSnapshot struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
}

func (s ResponseSnapshot) Size() int {
	return len(s.Body)
}

func encodeHeaders(headers map[string]string) ([]byte, error) {
	if len(headers) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(headers)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode response headers")
	}
	return encoded, nil
}

func snapshotFromRow(row *store.IdempotencyRow) (*ResponseSnapshot, error) {
	if row.ResponseStatus == nil {
		return nil, nil
	}

	snapshot := &ResponseSnapshot{
		StatusCode: int(*row.ResponseStatus),
		Body:       row.ResponseBody,
	}
	if len(row.ResponseHeaders) > 0 {
		if err := json.Unmarshal(row.ResponseHeaders, &snapshot.Headers); err != nil {
			return nil, errs.Wrap(err, "failed to decode response headers")
		}
	}

	return snapshot, nil
}
