package dbtest

import (
	"context"
	"time"

	"slotstream/internal/infra/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetDB truncates every mutable table so each subtest starts from a clean
// slate without recreating the database.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `TRUNCATE reservations, time_slots, idempotency_keys CASCADE`)
	return err
}

// InsertSlot persists a slot row directly, bypassing the API surface.
func InsertSlot(pool *pgxpool.Pool, row store.SlotRow) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `
INSERT INTO time_slots (id, tenant_id, resource_id, start_time, end_time, capacity, available_capacity, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ID, row.TenantID, row.ResourceID, row.StartTime, row.EndTime,
		row.Capacity, row.AvailableCapacity, row.Version,
	)
	return err
}

// SlotState reads back the committed capacity and version of one slot.
func SlotState(pool *pgxpool.Pool, slotID uuid.UUID) (available int32, version int64, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = pool.QueryRow(ctx,
		`SELECT available_capacity, version FROM time_slots WHERE id = $1`, slotID,
	).Scan(&available, &version)
	return available, version, err
}

// CountReservations returns how many reservations a slot holds in the given
// status.
func CountReservations(pool *pgxpool.Pool, slotID uuid.UUID, status string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var count int64
	err := pool.QueryRow(ctx,
		`SELECT count(*) FROM reservations WHERE time_slot_id = $1 AND status = $2`, slotID, status,
	).Scan(&count)
	return count, err
}
