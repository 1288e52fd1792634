package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

// InfractionRefundOperationRepository implements
// port.InfractionRefundOperationRepository using PostgreSQL.
type InfractionRefundOperationRepository struct {
	pool *pgxpool.Pool
}

// NewInfractionRefundOperationRepository creates a new PostgreSQL-backed link repository.
func NewInfractionRefundOperationRepository(pool *pgxpool.Pool) *InfractionRefundOperationRepository {
	return &InfractionRefundOperationRepository{pool: pool}
}

// Create persists a new infraction/operation link.
func (r *InfractionRefundOperationRepository) Create(ctx context.Context, op *model.InfractionRefundOperation) error {
	query := `
		INSERT INTO infraction_refund_operations (
			id, infraction_id, refund_operation_id, state, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		op.ID(),
		op.InfractionID(),
		op.RefundOperationID(),
		string(op.State()),
		op.CreatedAt(),
		op.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert infraction refund operation: %w", err)
	}
	return nil
}

// Update persists changes to an existing link.
func (r *InfractionRefundOperationRepository) Update(ctx context.Context, op *model.InfractionRefundOperation) error {
	query := `
		UPDATE infraction_refund_operations SET
			state = $1,
			updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, string(op.State()), op.UpdatedAt(), op.ID())
	if err != nil {
		return fmt.Errorf("failed to update infraction refund operation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("infraction refund operation %s: %w", op.ID(), model.ErrOperationNotFound)
	}
	return nil
}

// ListOpenByInfractionID retrieves the still-open links of an infraction in
// creation order. The compensation loop walks this list.
func (r *InfractionRefundOperationRepository) ListOpenByInfractionID(ctx context.Context, infractionID uuid.UUID) ([]*model.InfractionRefundOperation, error) {
	query := `
		SELECT id, infraction_id, refund_operation_id, state, created_at, updated_at
		FROM infraction_refund_operations
		WHERE infraction_id = $1 AND state = $2
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, infractionID, string(model.InfractionRefundOperationOpen))
	if err != nil {
		return nil, fmt.Errorf("failed to query infraction refund operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.InfractionRefundOperation
	for rows.Next() {
		var (
			id                uuid.UUID
			infID             uuid.UUID
			refundOperationID uuid.UUID
			stateStr          string
			createdAt         time.Time
			updatedAt         time.Time
		)
		if err := rows.Scan(&id, &infID, &refundOperationID, &stateStr, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan infraction refund operation: %w", err)
		}
		ops = append(ops, model.ReconstructInfractionRefundOperation(
			id, infID, refundOperationID,
			model.InfractionRefundOperationState(stateStr),
			createdAt, updatedAt,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ops, nil
}
