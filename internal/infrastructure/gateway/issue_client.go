package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// Compile-time interface check.
var _ port.IssueGateway = (*IssueClient)(nil)

// IssueClient implements port.IssueGateway against the ticketing system's
// HTTP API.
type IssueClient struct {
	httpClient
}

// NewIssueClient creates a new ticketing API client.
func NewIssueClient(baseURL string) *IssueClient {
	return &IssueClient{httpClient: newHTTPClient(baseURL)}
}

type issueCreateRefundRequest struct {
	RefundID        uuid.UUID       `json:"refund_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	ClientName      string          `json:"client_name"`
	ClientDocument  string          `json:"client_document"`
}

type issueCreateRefundResponse struct {
	IssueID string `json:"issue_id"`
}

// CreateRefund opens a refund issue and returns its issue id. The ticketing
// system deduplicates by refund id.
func (c *IssueClient) CreateRefund(ctx context.Context, req port.CreateRefundIssueRequest) (string, error) {
	payload := issueCreateRefundRequest{
		RefundID:        req.RefundID,
		TransactionType: string(req.TransactionType),
		Amount:          req.Amount,
		Description:     req.Description,
		ClientName:      req.ClientName,
		ClientDocument:  req.ClientDocument,
	}

	var resp issueCreateRefundResponse
	if err := c.doJSON(ctx, "POST", "/issues/refunds", payload, &resp); err != nil {
		return "", fmt.Errorf("issue create refund: %w", err)
	}
	return resp.IssueID, nil
}

type issueUpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateRefundStatus moves the issue to the given status.
func (c *IssueClient) UpdateRefundStatus(ctx context.Context, issueID string, status string) error {
	payload := issueUpdateStatusRequest{Status: status}
	if err := c.doJSON(ctx, "PATCH", "/issues/refunds/"+issueID+"/status", payload, nil); err != nil {
		return fmt.Errorf("issue update refund status: %w", err)
	}
	return nil
}
