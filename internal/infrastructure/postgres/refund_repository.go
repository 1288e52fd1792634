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

// RefundRepository implements port.RefundRepository using PostgreSQL.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository creates a new PostgreSQL-backed refund repository.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

const refundColumns = `
	id, transaction_type, transaction_id, issue_id, solicitation_psp_id,
	amount, description, state, created_at, updated_at
`

// Create persists a new refund.
func (r *RefundRepository) Create(ctx context.Context, refund *model.Refund) error {
	query := `
		INSERT INTO refunds (` + refundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		refund.ID(),
		string(refund.TransactionType()),
		refund.TransactionID(),
		refund.IssueID(),
		refund.SolicitationPspID(),
		refund.Amount(),
		refund.Description(),
		refund.State().String(),
		refund.CreatedAt(),
		refund.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert refund: %w", err)
	}
	return nil
}

// Update persists changes to an existing refund.
func (r *RefundRepository) Update(ctx context.Context, refund *model.Refund) error {
	query := `
		UPDATE refunds SET
			issue_id = $1,
			description = $2,
			state = $3,
			updated_at = $4
		WHERE id = $5
	`

	result, err := r.pool.Exec(ctx, query,
		refund.IssueID(),
		refund.Description(),
		refund.State().String(),
		refund.UpdatedAt(),
		refund.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update refund: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("refund %s: %w", refund.ID(), model.ErrRefundNotFound)
	}
	return nil
}

// FindByID retrieves a refund by id, or nil when absent.
func (r *RefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	return r.scanRefund(r.pool.QueryRow(ctx, query, id))
}

// FindBySolicitationPspID retrieves a refund by the PSP solicitation id, or
// nil when absent.
func (r *RefundRepository) FindBySolicitationPspID(ctx context.Context, solicitationPspID string) (*model.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE solicitation_psp_id = $1`
	return r.scanRefund(r.pool.QueryRow(ctx, query, solicitationPspID))
}

func (r *RefundRepository) scanRefund(row pgx.Row) (*model.Refund, error) {
	var (
		id                uuid.UUID
		transactionType   string
		transactionID     uuid.UUID
		issueID           string
		solicitationPspID string
		amount            decimal.Decimal
		description       string
		stateStr          string
		createdAt         time.Time
		updatedAt         time.Time
	)

	err := row.Scan(
		&id, &transactionType, &transactionID, &issueID, &solicitationPspID,
		&amount, &description, &stateStr, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}

	state, err := model.ParseRefundState(stateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refund state in DB: %w", err)
	}

	return model.ReconstructRefund(
		id, model.RefundTransactionType(transactionType), transactionID,
		issueID, solicitationPspID, amount, description, state,
		createdAt, updatedAt,
	), nil
}
