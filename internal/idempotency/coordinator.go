// Package idempotency deduplicates concurrent and retried mutating requests:
// a single atomic conditional insert elects one winner per (scope, key), the
// winner's outcome is cached, and every duplicate either waits for it or has
// it replayed verbatim.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"slotstream/internal/infra"
	"slotstream/internal/infra/store"
	"slotstream/internal/infra/uow"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/pkg/config"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/realtime/notifier"

	"github.com/google/uuid"
)

type Store interface {
	TryInsert(ctx context.Context, db store.DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, db store.DBTX, scope, key uuid.UUID) (*store.IdempotencyRow, error)
	ClaimExpired(ctx context.Context, db store.DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time) (bool, error)
	ClaimFailedRetry(ctx context.Context, db store.DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time, maxRetries int32) (bool, error)
	SetCompleted(ctx context.Context, db store.DBTX, scope, key uuid.UUID, responseStatus int32, responseHeaders, responseBody []byte, responseSize int32) error
	SetFailed(ctx context.Context, db store.DBTX, scope, key uuid.UUID, responseStatus *int32, responseBody []byte) error
	DeleteExpired(ctx context.Context, db store.DBTX) (int64, error)
}

type CompletionPublisher interface {
	PublishIdempotencyCompleted(ctx context.Context, event notifier.IdempotencyCompleted) error
}

type BeginResult struct {
	// Winner: the caller owns the underlying operation and must finish with
	// Complete or Fail.
	Winner bool
	// Replay holds the cached snapshot of an already completed execution.
	Replay *ResponseSnapshot
	// Completed is set when the execution finished but its response was too
	// large to cache; the caller re-queries current state instead.
	Completed bool
}

type Coordinator struct {
	uow       uow.UnitOfWork
	store     Store
	waiters   *waiterRegistry
	publisher CompletionPublisher
	clock     clock.Clock
	cfg       config.IdempotencyConfig
}

func NewCoordinator(
	unitOfWork uow.UnitOfWork,
	st Store,
	bus notifier.Bus,
	publisher CompletionPublisher,
	clk clock.Clock,
	cfg config.IdempotencyConfig,
) *Coordinator {
	c := &Coordinator{
		uow:       unitOfWork,
		store:     st,
		waiters:   newWaiterRegistry(),
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
	}

	// Completions on other instances wake local waiters through the bus.
	bus.Subscribe(notifier.TopicIdempotencyCompleted, func(ctx context.Context, payload []byte) {
		event, err := notifier.DecodeIdempotencyCompleted(payload)
		if err != nil {
			slog.Warn("dropping malformed idempotency completion event", "error", err.Error())
			return
		}
		c.waiters.notify(event.Scope, event.Key)
	})

	return c
}

// Begin elects the winner for (scope, key). The insert is the only
// synchronization point: there is deliberately no read-then-write path that
// could let two callers both execute the underlying operation.
func (c *Coordinator) Begin(ctx context.Context, scope, key uuid.UUID, fingerprint string, ttl time.Duration) (*BeginResult, error) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	expiresAt := c.clock.Now().Add(ttl)

	var result *BeginResult
	err := c.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		inserted, err := c.store.TryInsert(ctx, db, scope, key, fingerprint, expiresAt)
		if err != nil {
			return err
		}
		if inserted {
			result = &BeginResult{Winner: true}
			return nil
		}

		result, err = c.resolveExisting(ctx, db, scope, key, fingerprint, expiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Coordinator) resolveExisting(ctx context.Context, db store.DBTX, scope, key uuid.UUID, fingerprint string, expiresAt time.Time) (*BeginResult, error) {
	record, err := c.store.Get(ctx, db, scope, key)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Lost a race with the sweeper; the key is free again.
			inserted, insErr := c.store.TryInsert(ctx, db, scope, key, fingerprint, expiresAt)
			if insErr != nil {
				return nil, insErr
			}
			if inserted {
				return &BeginResult{Winner: true}, nil
			}
			return nil, errs.ErrIdempotencyInProgress
		}
		return nil, err
	}

	// Passive expiry: a record past its TTL is treated as absent.
	if c.clock.Now().After(record.ExpiresAt) {
		claimed, err := c.store.ClaimExpired(ctx, db, scope, key, fingerprint, expiresAt)
		if err != nil {
			return nil, err
		}
		if claimed {
			return &BeginResult{Winner: true}, nil
		}
		// Someone else reclaimed it first; fall through against their record.
		record, err = c.store.Get(ctx, db, scope, key)
		if err != nil {
			return nil, err
		}
	}

	if record.RequestFingerprint != fingerprint {
		return nil, errs.ErrFingerprintMismatch
	}

	switch record.Status {
	case store.IdempotencyStatusProcessing:
		return nil, errs.ErrIdempotencyInProgress

	case store.IdempotencyStatusCompleted:
		snapshot, err := snapshotFromRow(record)
		if err != nil {
			return nil, err
		}
		return &BeginResult{Replay: snapshot, Completed: true}, nil

	case store.IdempotencyStatusFailed:
		claimed, err := c.store.ClaimFailedRetry(ctx, db, scope, key, fingerprint, expiresAt, c.cfg.MaxRetries)
		if err != nil {
			return nil, err
		}
		if claimed {
			return &BeginResult{Winner: true}, nil
		}
		if record.RetryCount >= c.cfg.MaxRetries {
			return nil, errs.ErrRetryBudgetExhausted
		}
		return nil, errs.ErrIdempotencyInProgress

	default:
		return nil, errs.Newf("invalid idempotency record status %q", record.Status)
	}
}

// Complete stores the winner's outcome and wakes every waiter. Oversized
// responses still complete; only the replay cache is skipped.
func (c *Coordinator) Complete(ctx context.Context, scope, key uuid.UUID, snapshot ResponseSnapshot) error {
	body := snapshot.Body
	headers := snapshot.Headers
	if snapshot.Size() > c.cfg.MaxSnapshotBytes {
		slog.Info("response too large for idempotency cache, skipping snapshot",
			"scope", scope, "key", key, "size", snapshot.Size())
		body = nil
		headers = nil
	}

	encodedHeaders, err := encodeHeaders(headers)
	if err != nil {
		return err
	}

	err = c.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		return c.store.SetCompleted(ctx, db, scope, key,
			int32(snapshot.StatusCode), encodedHeaders, body, int32(len(body)))
	})
	if err != nil {
		return err
	}

	c.notifyCompletion(ctx, scope, key)
	return nil
}

// Fail records the winner's failure. Cacheable failures (deterministic
// validation-class outcomes) are stored as completed so replays receive the
// identical response; everything else stays retryable.
func (c *Coordinator) Fail(ctx context.Context, scope, key uuid.UUID, cacheable bool, snapshot *ResponseSnapshot) error {
	err := c.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		if cacheable && snapshot != nil {
			encodedHeaders, err := encodeHeaders(snapshot.Headers)
			if err != nil {
				return err
			}
			return c.store.SetCompleted(ctx, db, scope, key,
				int32(snapshot.StatusCode), encodedHeaders, snapshot.Body, int32(len(snapshot.Body)))
		}

		var responseStatus *int32
		var body []byte
		if snapshot != nil {
			status := int32(snapshot.StatusCode)
			responseStatus = &status
			body = snapshot.Body
		}
		return c.store.SetFailed(ctx, db, scope, key, responseStatus, body)
	})
	if err != nil {
		return err
	}

	c.notifyCompletion(ctx, scope, key)
	return nil
}

// AwaitCompletion blocks a non-winning caller until the winner finishes or
// the timeout fires. One mid-wait re-read guards against a lost bus event;
// the winner's execution is never cancelled by a waiter timing out.
func (c *Coordinator) AwaitCompletion(ctx context.Context, scope, key uuid.UUID, timeout time.Duration) (*ResponseSnapshot, error) {
	if timeout <= 0 {
		timeout = c.cfg.AwaitTimeout
	}

	wakeup := c.waiters.channel(scope, key)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	recheck := time.NewTimer(timeout / 2)
	defer recheck.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-wakeup:
			return c.loadOutcome(ctx, scope, key)

		case <-recheck.C:
			snapshot, err := c.loadOutcome(ctx, scope, key)
			if err == nil {
				return snapshot, nil
			}
			if !errors.Is(err, errs.ErrIdempotencyInProgress) {
				return nil, err
			}

		case <-timer.C:
			return nil, errs.ErrAwaitTimeout
		}
	}
}

func (c *Coordinator) loadOutcome(ctx context.Context, scope, key uuid.UUID) (*ResponseSnapshot, error) {
	var snapshot *ResponseSnapshot
	err := c.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		record, err := c.store.Get(ctx, db, scope, key)
		if err != nil {
			return err
		}
		switch record.Status {
		case store.IdempotencyStatusCompleted:
			snapshot, err = snapshotFromRow(record)
			return err
		case store.IdempotencyStatusFailed:
			return errs.ErrRetryBudgetExhausted
		default:
			return errs.ErrIdempotencyInProgress
		}
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *Coordinator) notifyCompletion(ctx context.Context, scope, key uuid.UUID) {
	c.waiters.notify(scope, key)
	if err := c.publisher.PublishIdempotencyCompleted(ctx, notifier.IdempotencyCompleted{Scope: scope, Key: key}); err != nil {
		slog.Warn("failed to publish idempotency completion", "scope", scope, "key", key, "error", err.Error())
	}
}

// Sweep physically deletes rows past expires_at; reads already ignore them.
func (c *Coordinator) Sweep(ctx context.Context) (int64, error) {
	var deleted int64
	err := c.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		var err error
		deleted, err = c.store.DeleteExpired(ctx, db)
		return err
	})
	return deleted, err
}

func (c *Coordinator) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := c.Sweep(ctx)
			if err != nil {
				slog.Warn("idempotency sweep failed", "error", err.Error())
				continue
			}
			if deleted > 0 {
				slog.Info("swept expired idempotency keys", "deleted", deleted)
			}
		}
	}
}
