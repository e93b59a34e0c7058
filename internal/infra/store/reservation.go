package store

import (
	"context"
	"time"

	"slotstream/internal/infra"

	"github.com/google/uuid"
)

const (
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
)

type ReservationRow struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ResourceID    uuid.UUID
	TimeSlotID    uuid.UUID
	CapacityUnits int32
	CustomerID    *uuid.UUID
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ReservationStore struct{}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{}
}

func (s *ReservationStore) Insert(ctx context.Context, db DBTX, row ReservationRow) error {
	const stmt = `
INSERT INTO reservations (id, tenant_id, resource_id, time_slot_id, capacity_units, customer_id, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.Exec(ctx, stmt,
		row.ID, row.TenantID, row.ResourceID, row.TimeSlotID,
		row.CapacityUnits, row.CustomerID, row.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("reservation already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to insert reservation", err)
	}

	return nil
}

// FindForUpdate locks the reservation rows so a concurrent release of the
// same ids observes the cancelled status instead of double-crediting.
func (s *ReservationStore) FindForUpdate(ctx context.Context, db DBTX, tenantID uuid.UUID, ids []uuid.UUID) ([]ReservationRow, error) {
	const query = `
SELECT id, tenant_id, resource_id, time_slot_id, capacity_units, customer_id, status, created_at, updated_at
FROM reservations
WHERE tenant_id = $1 AND id = ANY($2)
ORDER BY id
FOR UPDATE`

	rows, err := db.Query(ctx, query, tenantID, ids)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock reservations", err)
	}
	defer rows.Close()

	var result []ReservationRow
	for rows.Next() {
		var row ReservationRow
		if err := rows.Scan(
			&row.ID, &row.TenantID, &row.ResourceID, &row.TimeSlotID,
			&row.CapacityUnits, &row.CustomerID, &row.Status, &row.CreatedAt, &row.UpdatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}

	return result, nil
}

func (s *ReservationStore) FindByID(ctx context.Context, db DBTX, tenantID, id uuid.UUID) (*ReservationRow, error) {
	const query = `
SELECT id, tenant_id, resource_id, time_slot_id, capacity_units, customer_id, status, created_at, updated_at
FROM reservations
WHERE tenant_id = $1 AND id = $2`

	var row ReservationRow
	err := db.QueryRow(ctx, query, tenantID, id).Scan(
		&row.ID, &row.TenantID, &row.ResourceID, &row.TimeSlotID,
		&row.CapacityUnits, &row.CustomerID, &row.Status, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}

	return &row, nil
}

func (s *ReservationStore) MarkCancelled(ctx context.Context, db DBTX, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	const stmt = `
UPDATE reservations
SET status = 'cancelled', updated_at = now()
WHERE tenant_id = $1 AND id = ANY($2) AND status = 'confirmed'`

	tag, err := db.Exec(ctx, stmt, tenantID, ids)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to cancel reservations", err)
	}

	return tag.RowsAffected(), nil
}

// SumConfirmedBySlot reports active demand per slot, used by the read path
// to cross-check available_capacity.
func (s *ReservationStore) SumConfirmedBySlot(ctx context.Context, db DBTX, tenantID, slotID uuid.UUID) (int64, error) {
	const query = `
SELECT COALESCE(SUM(capacity_units), 0)
FROM reservations
WHERE tenant_id = $1 AND time_slot_id = $2 AND status = 'confirmed'`

	var total int64
	if err := db.QueryRow(ctx, query, tenantID, slotID).Scan(&total); err != nil {
		return 0, infra.WrapRepoErr("failed to sum confirmed reservations", err)
	}

	return total, nil
}
