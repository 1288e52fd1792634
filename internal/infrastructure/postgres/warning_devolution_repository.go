package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

// WarningDevolutionRepository implements port.WarningDevolutionRepository
// using PostgreSQL. It also serves as the resolver for refunds that target a
// received devolution.
type WarningDevolutionRepository struct {
	pool *pgxpool.Pool
}

// NewWarningDevolutionRepository creates a new PostgreSQL-backed devolution repository.
func NewWarningDevolutionRepository(pool *pgxpool.Pool) *WarningDevolutionRepository {
	return &WarningDevolutionRepository{pool: pool}
}

const warningDevolutionColumns = `
	id, warning_deposit_id, end_to_end_id, amount, devolution_code,
	description, failure_reason, state, created_at, updated_at
`

// Create persists a new devolution.
func (r *WarningDevolutionRepository) Create(ctx context.Context, devolution *model.WarningDevolution) error {
	query := `
		INSERT INTO warning_devolutions (` + warningDevolutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		devolution.ID(),
		devolution.WarningDepositID(),
		devolution.EndToEndID(),
		devolution.Amount(),
		string(devolution.DevolutionCode()),
		devolution.Description(),
		devolution.FailureReason(),
		string(devolution.State()),
		devolution.CreatedAt(),
		devolution.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert warning devolution: %w", err)
	}
	return nil
}

// Update persists changes to an existing devolution.
func (r *WarningDevolutionRepository) Update(ctx context.Context, devolution *model.WarningDevolution) error {
	query := `
		UPDATE warning_devolutions SET
			failure_reason = $1,
			state = $2,
			updated_at = $3
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query,
		devolution.FailureReason(),
		string(devolution.State()),
		devolution.UpdatedAt(),
		devolution.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update warning devolution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("warning devolution %s: %w", devolution.ID(), model.ErrWarningDevolutionNotFound)
	}
	return nil
}

// FindByID retrieves a devolution by id, or nil when absent.
func (r *WarningDevolutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WarningDevolution, error) {
	query := `SELECT ` + warningDevolutionColumns + ` FROM warning_devolutions WHERE id = $1`
	return r.scanWarningDevolution(r.pool.QueryRow(ctx, query, id))
}

// ListWaitingUpdatedBefore retrieves the WAITING devolutions last touched
// before the cutoff, oldest first. The settlement sync sweeps this list.
func (r *WarningDevolutionRepository) ListWaitingUpdatedBefore(ctx context.Context, cutoff time.Time) ([]*model.WarningDevolution, error) {
	query := `
		SELECT ` + warningDevolutionColumns + `
		FROM warning_devolutions
		WHERE state = $1 AND updated_at < $2
		ORDER BY updated_at
	`

	rows, err := r.pool.Query(ctx, query, string(model.WarningDevolutionStateWaiting), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query waiting devolutions: %w", err)
	}
	defer rows.Close()

	var devolutions []*model.WarningDevolution
	for rows.Next() {
		devolution, err := r.scanWarningDevolution(rows)
		if err != nil {
			return nil, err
		}
		devolutions = append(devolutions, devolution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return devolutions, nil
}

func (r *WarningDevolutionRepository) scanWarningDevolution(row pgx.Row) (*model.WarningDevolution, error) {
	var (
		id               uuid.UUID
		warningDepositID uuid.UUID
		endToEndID       string
		amount           decimal.Decimal
		devolutionCode   string
		description      string
		failureReason    string
		stateStr         string
		createdAt        time.Time
		updatedAt        time.Time
	)

	err := row.Scan(
		&id, &warningDepositID, &endToEndID, &amount, &devolutionCode,
		&description, &failureReason, &stateStr, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan warning devolution: %w", err)
	}

	return model.ReconstructWarningDevolution(
		id, warningDepositID, endToEndID, amount,
		model.DevolutionCode(devolutionCode),
		description, failureReason,
		model.WarningDevolutionState(stateStr),
		createdAt, updatedAt,
	), nil
}
