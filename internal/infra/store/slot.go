package store

import (
	"context"
	"time"

	"slotstream/internal/infra"

	"github.com/google/uuid"
)

type SlotRow struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	ResourceID        uuid.UUID
	StartTime         time.Time
	EndTime           time.Time
	Capacity          int32
	AvailableCapacity int32
	Version           int64
}

type SlotStore struct{}

func NewSlotStore() *SlotStore {
	return &SlotStore{}
}

// LockSlot acquires the row lock that serializes all capacity mutations
// for one slot. Callers must lock slots in a fixed global order.
func (s *SlotStore) LockSlot(ctx context.Context, db DBTX, tenantID, slotID uuid.UUID) (*SlotRow, error) {
	const query = `
SELECT id, tenant_id, resource_id, start_time, end_time, capacity, available_capacity, version
FROM time_slots
WHERE id = $1 AND tenant_id = $2
FOR UPDATE`

	var row SlotRow
	err := db.QueryRow(ctx, query, slotID, tenantID).Scan(
		&row.ID, &row.TenantID, &row.ResourceID, &row.StartTime, &row.EndTime,
		&row.Capacity, &row.AvailableCapacity, &row.Version,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("time slot not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock time slot", err)
	}

	return &row, nil
}

// UpdateCapacity performs the compare-and-set write: the version read under
// the row lock must still match, and the new value must respect the
// 0 <= available <= capacity check constraint.
func (s *SlotStore) UpdateCapacity(ctx context.Context, db DBTX, slotID uuid.UUID, newAvailable int32, expectedVersion int64) error {
	const stmt = `
UPDATE time_slots
SET available_capacity = $2, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $3`

	tag, err := db.Exec(ctx, stmt, slotID, newAvailable, expectedVersion)
	if err != nil {
		return infra.WrapRepoErr("failed to update slot capacity", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("slot version changed since read", nil, infra.KindVersionConflict)
	}

	return nil
}

func (s *SlotStore) FindByResources(ctx context.Context, db DBTX, tenantID uuid.UUID, resourceIDs []uuid.UUID, from, to time.Time) ([]SlotRow, error) {
	const query = `
SELECT id, tenant_id, resource_id, start_time, end_time, capacity, available_capacity, version
FROM time_slots
WHERE tenant_id = $1 AND resource_id = ANY($2) AND start_time >= $3 AND end_time <= $4
ORDER BY resource_id, start_time`

	rows, err := db.Query(ctx, query, tenantID, resourceIDs, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query time slots", err)
	}
	defer rows.Close()

	var result []SlotRow
	for rows.Next() {
		var row SlotRow
		if err := rows.Scan(
			&row.ID, &row.TenantID, &row.ResourceID, &row.StartTime, &row.EndTime,
			&row.Capacity, &row.AvailableCapacity, &row.Version,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan time slot", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate time slots", err)
	}

	return result, nil
}

func (s *SlotStore) Insert(ctx context.Context, db DBTX, row SlotRow) error {
	const stmt = `
INSERT INTO time_slots (id, tenant_id, resource_id, start_time, end_time, capacity, available_capacity, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.Exec(ctx, stmt,
		row.ID, row.TenantID, row.ResourceID, row.StartTime, row.EndTime,
		row.Capacity, row.AvailableCapacity, row.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("time slot already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert time slot", err)
	}

	return nil
}
