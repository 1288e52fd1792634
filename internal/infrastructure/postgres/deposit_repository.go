// Package postgres implements the persistence ports using PostgreSQL.
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

// DepositRepository implements port.DepositRepository using PostgreSQL.
type DepositRepository struct {
	pool *pgxpool.Pool
}

// NewDepositRepository creates a new PostgreSQL-backed deposit repository.
func NewDepositRepository(pool *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{pool: pool}
}

const depositColumns = `
	id, operation_id, end_to_end_id, amount, returned_amount,
	client_name, client_document,
	third_part_name, third_part_document, third_part_bank_ispb,
	checks, state, created_at, updated_at
`

// Create persists a new deposit.
func (r *DepositRepository) Create(ctx context.Context, deposit *model.Deposit) error {
	query := `
		INSERT INTO deposits (` + depositColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		deposit.ID(),
		deposit.OperationID(),
		deposit.EndToEndID(),
		deposit.Amount(),
		deposit.ReturnedAmount(),
		deposit.ClientName(),
		deposit.ClientDocument(),
		deposit.ThirdPartName(),
		deposit.ThirdPartDocument(),
		deposit.ThirdPartBankISPB(),
		deposit.Checks(),
		string(deposit.State()),
		deposit.CreatedAt(),
		deposit.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert deposit: %w", err)
	}
	return nil
}

// Update persists changes to an existing deposit.
func (r *DepositRepository) Update(ctx context.Context, deposit *model.Deposit) error {
	query := `
		UPDATE deposits SET
			returned_amount = $1,
			checks = $2,
			state = $3,
			updated_at = $4
		WHERE id = $5
	`

	result, err := r.pool.Exec(ctx, query,
		deposit.ReturnedAmount(),
		deposit.Checks(),
		string(deposit.State()),
		deposit.UpdatedAt(),
		deposit.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("deposit %s: %w", deposit.ID(), model.ErrDepositNotFound)
	}
	return nil
}

// FindByID retrieves a deposit by its unique identifier, or nil when absent.
func (r *DepositRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`
	return r.scanDeposit(r.pool.QueryRow(ctx, query, id))
}

// FindByOperationID retrieves the deposit backing a ledger operation, or nil
// when absent.
func (r *DepositRepository) FindByOperationID(ctx context.Context, operationID uuid.UUID) (*model.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE operation_id = $1`
	return r.scanDeposit(r.pool.QueryRow(ctx, query, operationID))
}

func (r *DepositRepository) scanDeposit(row pgx.Row) (*model.Deposit, error) {
	var (
		id                uuid.UUID
		operationID       uuid.UUID
		endToEndID        string
		amount            decimal.Decimal
		returnedAmount    decimal.Decimal
		clientName        string
		clientDocument    string
		thirdPartName     string
		thirdPartDocument string
		thirdPartBankISPB string
		checks            map[string]bool
		stateStr          string
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := row.Scan(
		&id, &operationID, &endToEndID, &amount, &returnedAmount,
		&clientName, &clientDocument,
		&thirdPartName, &thirdPartDocument, &thirdPartBankISPB,
		&checks, &stateStr, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan deposit: %w", err)
	}

	return model.ReconstructDeposit(
		id, operationID, endToEndID,
		amount, returnedAmount,
		clientName, clientDocument,
		thirdPartName, thirdPartDocument, thirdPartBankISPB,
		checks, model.DepositState(stateStr),
		createdAt, updatedAt,
	), nil
}
