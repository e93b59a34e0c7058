package dbtest

import (
	"context"

	"slotstream/internal/infra/store"
)

// StubUoW satisfies uow.UnitOfWork without a database: the function runs
// directly and the DBTX is nil. Unit tests pair it with mocked or in-memory
// stores that never touch the handle.
type StubUoW struct{}

func NewStubUoW() *StubUoW {
	return &StubUoW{}
}

func (u *StubUoW) Within(ctx context.Context, fn func(ctx context.Context, tx store.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *StubUoW) WithDB(ctx context.Context, fn func(ctx context.Context, db store.DBTX) error) error {
	return fn(ctx, nil)
}
