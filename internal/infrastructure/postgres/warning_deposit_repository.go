package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

// WarningDepositRepository implements port.WarningDepositRepository using PostgreSQL.
type WarningDepositRepository struct {
	pool *pgxpool.Pool
}

// NewWarningDepositRepository creates a new PostgreSQL-backed warning deposit repository.
func NewWarningDepositRepository(pool *pgxpool.Pool) *WarningDepositRepository {
	return &WarningDepositRepository{pool: pool}
}

const warningDepositColumns = `
	id, operation_id, origin, checks, rejected_reason, state, created_at, updated_at
`

// Create persists a new warning deposit. The unique index on operation_id
// backs the one-hold-per-operation rule.
func (r *WarningDepositRepository) Create(ctx context.Context, warning *model.WarningDeposit) error {
	query := `
		INSERT INTO warning_deposits (` + warningDepositColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		warning.ID(),
		warning.OperationID(),
		string(warning.Origin()),
		warning.Checks(),
		warning.RejectedReason(),
		string(warning.State()),
		warning.CreatedAt(),
		warning.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert warning deposit: %w", err)
	}
	return nil
}

// Update persists changes to an existing warning deposit.
func (r *WarningDepositRepository) Update(ctx context.Context, warning *model.WarningDeposit) error {
	query := `
		UPDATE warning_deposits SET
			rejected_reason = $1,
			state = $2,
			updated_at = $3
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query,
		warning.RejectedReason(),
		string(warning.State()),
		warning.UpdatedAt(),
		warning.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update warning deposit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("warning deposit %s: %w", warning.ID(), model.ErrWarningDepositNotFound)
	}
	return nil
}

// FindByID retrieves a warning deposit by id, or nil when absent.
func (r *WarningDepositRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WarningDeposit, error) {
	query := `SELECT ` + warningDepositColumns + ` FROM warning_deposits WHERE id = $1`
	return r.scanWarningDeposit(r.pool.QueryRow(ctx, query, id))
}

// FindByOperationID retrieves the hold on a ledger operation, or nil when absent.
func (r *WarningDepositRepository) FindByOperationID(ctx context.Context, operationID uuid.UUID) (*model.WarningDeposit, error) {
	query := `SELECT ` + warningDepositColumns + ` FROM warning_deposits WHERE operation_id = $1`
	return r.scanWarningDeposit(r.pool.QueryRow(ctx, query, operationID))
}

func (r *WarningDepositRepository) scanWarningDeposit(row pgx.Row) (*model.WarningDeposit, error) {
	var (
		id             uuid.UUID
		operationID    uuid.UUID
		originStr      string
		checks         map[string]bool
		rejectedReason string
		stateStr       string
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(&id, &operationID, &originStr, &checks, &rejectedReason, &stateStr, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan warning deposit: %w", err)
	}

	return model.ReconstructWarningDeposit(
		id, operationID,
		model.WarningOrigin(originStr),
		checks, rejectedReason,
		model.WarningDepositState(stateStr),
		createdAt, updatedAt,
	), nil
}
