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

// InfractionRepository implements port.InfractionRepository using PostgreSQL.
type InfractionRepository struct {
	pool *pgxpool.Pool
}

// NewInfractionRepository creates a new PostgreSQL-backed infraction repository.
func NewInfractionRepository(pool *pgxpool.Pool) *InfractionRepository {
	return &InfractionRepository{pool: pool}
}

const infractionColumns = `
	id, infraction_psp_id, issue_id, infraction_type, description,
	status, state, analysis_result, analysis_details, created_at, updated_at
`

// Create persists a new infraction.
func (r *InfractionRepository) Create(ctx context.Context, infraction *model.Infraction) error {
	query := `
		INSERT INTO infractions (` + infractionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		infraction.ID(),
		infraction.InfractionPspID(),
		infraction.IssueID(),
		infraction.InfractionType(),
		infraction.Description(),
		string(infraction.Status()),
		infraction.State().String(),
		string(infraction.AnalysisResult()),
		infraction.AnalysisDetails(),
		infraction.CreatedAt(),
		infraction.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert infraction: %w", err)
	}
	return nil
}

// Update persists changes to an existing infraction.
func (r *InfractionRepository) Update(ctx context.Context, infraction *model.Infraction) error {
	query := `
		UPDATE infractions SET
			infraction_psp_id = $1,
			status = $2,
			state = $3,
			analysis_result = $4,
			analysis_details = $5,
			updated_at = $6
		WHERE id = $7
	`

	result, err := r.pool.Exec(ctx, query,
		infraction.InfractionPspID(),
		string(infraction.Status()),
		infraction.State().String(),
		string(infraction.AnalysisResult()),
		infraction.AnalysisDetails(),
		infraction.UpdatedAt(),
		infraction.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update infraction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("infraction %s: %w", infraction.ID(), model.ErrInfractionNotFound)
	}
	return nil
}

// FindByID retrieves an infraction by id, or nil when absent.
func (r *InfractionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Infraction, error) {
	query := `SELECT ` + infractionColumns + ` FROM infractions WHERE id = $1`
	return r.scanInfraction(r.pool.QueryRow(ctx, query, id))
}

// FindByPspID retrieves an infraction by its PSP-assigned external id, or nil
// when absent.
func (r *InfractionRepository) FindByPspID(ctx context.Context, infractionPspID string) (*model.Infraction, error) {
	query := `SELECT ` + infractionColumns + ` FROM infractions WHERE infraction_psp_id = $1`
	return r.scanInfraction(r.pool.QueryRow(ctx, query, infractionPspID))
}

// FindByIssueID retrieves an infraction by its ticketing issue id, or nil
// when absent.
func (r *InfractionRepository) FindByIssueID(ctx context.Context, issueID string) (*model.Infraction, error) {
	query := `SELECT ` + infractionColumns + ` FROM infractions WHERE issue_id = $1`
	return r.scanInfraction(r.pool.QueryRow(ctx, query, issueID))
}

func (r *InfractionRepository) scanInfraction(row pgx.Row) (*model.Infraction, error) {
	var (
		id              uuid.UUID
		infractionPspID string
		issueID         string
		infractionType  string
		description     string
		statusStr       string
		stateStr        string
		analysisResult  string
		analysisDetails string
		createdAt       time.Time
		updatedAt       time.Time
	)

	err := row.Scan(
		&id, &infractionPspID, &issueID, &infractionType, &description,
		&statusStr, &stateStr, &analysisResult, &analysisDetails, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan infraction: %w", err)
	}

	state, err := model.ParseInfractionState(stateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid infraction state in DB: %w", err)
	}

	return model.ReconstructInfraction(
		id, infractionPspID, issueID, infractionType, description,
		model.InfractionStatus(statusStr), state,
		model.AnalysisResult(analysisResult), analysisDetails,
		createdAt, updatedAt,
	), nil
}
