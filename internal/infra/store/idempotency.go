package store

import (
	"context"
	"time"

	"slotstream/internal/infra"

	"github.com/google/uuid"
)

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
	IdempotencyStatusFailed     = "failed"
)

type IdempotencyRow struct {
	Scope              uuid.UUID
	Key                uuid.UUID
	RequestFingerprint string
	Status             string
	ResponseStatus     *int32
	ResponseHeaders    []byte // JSON-encoded subset of headers
	ResponseBody       []byte
	ResponseSize       int32
	RetryCount         int32
	CreatedAt          time.Time
	ExpiresAt          time.Time
}

type IdempotencyStore struct{}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{}
}

// TryInsert is the single atomic winner-selection primitive: the conditional
// insert either claims the key (row created already in processing) or leaves
// the existing record untouched. Never split into read-then-write.
func (s *IdempotencyStore) TryInsert(ctx context.Context, db DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time) (bool, error) {
	const stmt = `
INSERT INTO idempotency_keys (scope, key, request_fingerprint, status, expires_at)
VALUES ($1, $2, $3, 'processing', $4)
ON CONFLICT (scope, key) DO NOTHING`

	tag, err := db.Exec(ctx, stmt, scope, key, fingerprint, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to insert idempotency key", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, db DBTX, scope, key uuid.UUID) (*IdempotencyRow, error) {
	const query = `
SELECT scope, key, request_fingerprint, status, response_status, response_headers,
       response_body, response_size, retry_count, created_at, expires_at
FROM idempotency_keys
WHERE scope = $1 AND key = $2`

	var row IdempotencyRow
	err := db.QueryRow(ctx, query, scope, key).Scan(
		&row.Scope, &row.Key, &row.RequestFingerprint, &row.Status,
		&row.ResponseStatus, &row.ResponseHeaders, &row.ResponseBody,
		&row.ResponseSize, &row.RetryCount, &row.CreatedAt, &row.ExpiresAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	return &row, nil
}

// ClaimExpired reuses a key whose record has passed expires_at: the guarded
// update is atomic, so only one of several concurrent claimants wins.
func (s *IdempotencyStore) ClaimExpired(ctx context.Context, db DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time) (bool, error) {
	const stmt = `
UPDATE idempotency_keys
SET request_fingerprint = $3, status = 'processing', response_status = NULL,
    response_headers = NULL, response_body = NULL, response_size = 0,
    retry_count = 0, created_at = now(), expires_at = $4
WHERE scope = $1 AND key = $2 AND expires_at < now()`

	tag, err := db.Exec(ctx, stmt, scope, key, fingerprint, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim expired idempotency key", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ClaimFailedRetry grants a fresh attempt after a FAILED outcome, bounded by
// the retry budget. Same atomic-guard pattern as ClaimExpired.
func (s *IdempotencyStore) ClaimFailedRetry(ctx context.Context, db DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time, maxRetries int32) (bool, error) {
	const stmt = `
UPDATE idempotency_keys
SET status = 'processing', retry_count = retry_count + 1, expires_at = $4
WHERE scope = $1 AND key = $2 AND status = 'failed'
  AND request_fingerprint = $3 AND retry_count < $5`

	tag, err := db.Exec(ctx, stmt, scope, key, fingerprint, expiresAt, maxRetries)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim failed idempotency key", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *IdempotencyStore) SetCompleted(ctx context.Context, db DBTX, scope, key uuid.UUID, responseStatus int32, responseHeaders, responseBody []byte, responseSize int32) error {
	const stmt = `
UPDATE idempotency_keys
SET status = 'completed', response_status = $3, response_headers = $4,
    response_body = $5, response_size = $6
WHERE scope = $1 AND key = $2 AND status = 'processing'`

	tag, err := db.Exec(ctx, stmt, scope, key, responseStatus, responseHeaders, responseBody, responseSize)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not in processing state", nil, infra.KindConflict)
	}

	return nil
}

func (s *IdempotencyStore) SetFailed(ctx context.Context, db DBTX, scope, key uuid.UUID, responseStatus *int32, responseBody []byte) error {
	const stmt = `
UPDATE idempotency_keys
SET status = 'failed', response_status = $3, response_body = $4,
    response_size = COALESCE(length($4), 0)
WHERE scope = $1 AND key = $2 AND status = 'processing'`

	tag, err := db.Exec(ctx, stmt, scope, key, responseStatus, responseBody)
	if err != nil {
		return infra.WrapRepoErr("failed to mark idempotency key failed", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not in processing state", nil, infra.KindConflict)
	}

	return nil
}

func (s *IdempotencyStore) DeleteExpired(ctx context.Context, db DBTX) (int64, error) {
	const stmt = `DELETE FROM idempotency_keys WHERE expires_at < now()`

	tag, err := db.Exec(ctx, stmt)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}

	return tag.RowsAffected(), nil
}
