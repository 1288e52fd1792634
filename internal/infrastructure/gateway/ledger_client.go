package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// Compile-time interface check.
var _ port.LedgerGateway = (*LedgerClient)(nil)

// LedgerClient implements port.LedgerGateway against the ledger's HTTP API.
type LedgerClient struct {
	httpClient
}

// NewLedgerClient creates a new ledger API client.
func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{httpClient: newHTTPClient(baseURL)}
}

type ledgerOperationResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// GetOperationByID returns the operation, or nil when the ledger does not
// know it.
func (c *LedgerClient) GetOperationByID(ctx context.Context, id uuid.UUID) (*port.Operation, error) {
	var resp ledgerOperationResponse
	if err := c.doJSON(ctx, "GET", "/operations/"+id.String(), nil, &resp); err != nil {
		var nf errNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger get operation: %w", err)
	}

	return &port.Operation{
		ID:        resp.ID,
		Amount:    resp.Amount,
		State:     resp.State,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// RevertOperation reverses a settled operation. The ledger treats repeated
// reverts of the same operation as a no-op.
func (c *LedgerClient) RevertOperation(ctx context.Context, id uuid.UUID) error {
	if err := c.doJSON(ctx, "POST", "/operations/"+id.String()+"/revert", nil, nil); err != nil {
		return fmt.Errorf("ledger revert operation: %w", err)
	}
	return nil
}
