package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

// Compile-time interface check.
var _ port.PSPGateway = (*PSPClient)(nil)

// PSPClient implements port.PSPGateway against the payment service provider's
// HTTP API.
type PSPClient struct {
	httpClient
}

// NewPSPClient creates a new PSP API client.
func NewPSPClient(baseURL string) *PSPClient {
	return &PSPClient{httpClient: newHTTPClient(baseURL)}
}

type pspCreateInfractionRequest struct {
	OperationID    uuid.UUID `json:"operation_id"`
	InfractionType string    `json:"infraction_type"`
	Description    string    `json:"description"`
}

type pspCreateInfractionResponse struct {
	InfractionID string `json:"infraction_id"`
}

// CreateInfraction registers the dispute and returns the PSP-assigned id.
func (c *PSPClient) CreateInfraction(ctx context.Context, req port.CreateInfractionRequest) (string, error) {
	payload := pspCreateInfractionRequest{
		OperationID:    req.OperationID,
		InfractionType: req.InfractionType,
		Description:    req.Description,
	}

	var resp pspCreateInfractionResponse
	if err := c.doJSON(ctx, "POST", "/infractions", payload, &resp); err != nil {
		return "", fmt.Errorf("psp create infraction: %w", err)
	}
	return resp.InfractionID, nil
}

type pspCloseInfractionRequest struct {
	AnalysisResult  string `json:"analysis_result"`
	AnalysisDetails string `json:"analysis_details"`
}

// CloseInfraction reports the analysis outcome for an open dispute.
func (c *PSPClient) CloseInfraction(ctx context.Context, infractionPspID string, result model.AnalysisResult, details string) error {
	payload := pspCloseInfractionRequest{
		AnalysisResult:  string(result),
		AnalysisDetails: details,
	}

	if err := c.doJSON(ctx, "POST", "/infractions/"+infractionPspID+"/close", payload, nil); err != nil {
		return fmt.Errorf("psp close infraction: %w", err)
	}
	return nil
}

// CancelInfraction withdraws a dispute previously registered.
func (c *PSPClient) CancelInfraction(ctx context.Context, infractionPspID string) error {
	if err := c.doJSON(ctx, "POST", "/infractions/"+infractionPspID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("psp cancel infraction: %w", err)
	}
	return nil
}

type pspInfraction struct {
	OperationID    uuid.UUID `json:"operation_id"`
	InfractionType string    `json:"infraction_type"`
	Description    string    `json:"description"`
}

// GetInfractions lists disputes currently assigned to this participant.
func (c *PSPClient) GetInfractions(ctx context.Context) ([]port.CreateInfractionRequest, error) {
	var resp []pspInfraction
	if err := c.doJSON(ctx, "GET", "/infractions", nil, &resp); err != nil {
		return nil, fmt.Errorf("psp get infractions: %w", err)
	}

	out := make([]port.CreateInfractionRequest, 0, len(resp))
	for _, inf := range resp {
		out = append(out, port.CreateInfractionRequest{
			OperationID:    inf.OperationID,
			InfractionType: inf.InfractionType,
			Description:    inf.Description,
		})
	}
	return out, nil
}

// CancelRefundRequest withdraws a refund solicitation.
func (c *PSPClient) CancelRefundRequest(ctx context.Context, solicitationPspID string) error {
	if err := c.doJSON(ctx, "POST", "/refunds/"+solicitationPspID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("psp cancel refund request: %w", err)
	}
	return nil
}

type pspCreateDevolutionRequest struct {
	DevolutionID uuid.UUID       `json:"devolution_id"`
	EndToEndID   string          `json:"end_to_end_id"`
	Amount       decimal.Decimal `json:"amount"`
	Code         string          `json:"code"`
}

// CreatePixDevolution submits a devolution for the given end-to-end id. The
// PSP deduplicates by devolution id.
func (c *PSPClient) CreatePixDevolution(ctx context.Context, devolutionID uuid.UUID, endToEndID string, amount decimal.Decimal, code model.DevolutionCode) error {
	payload := pspCreateDevolutionRequest{
		DevolutionID: devolutionID,
		EndToEndID:   endToEndID,
		Amount:       amount,
		Code:         string(code),
	}

	if err := c.doJSON(ctx, "POST", "/devolutions", payload, nil); err != nil {
		return fmt.Errorf("psp create devolution: %w", err)
	}
	return nil
}

type pspDevolutionResponse struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	FailureReason string    `json:"failure_reason"`
}

// GetPixDevolutionByID returns the PSP settlement view of a devolution, or
// nil when the PSP does not know it.
func (c *PSPClient) GetPixDevolutionByID(ctx context.Context, devolutionID uuid.UUID) (*port.PixDevolution, error) {
	var resp pspDevolutionResponse
	if err := c.doJSON(ctx, "GET", "/devolutions/"+devolutionID.String(), nil, &resp); err != nil {
		var nf errNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("psp get devolution: %w", err)
	}

	return &port.PixDevolution{
		ID:            resp.ID,
		Status:        port.DevolutionSettlement(resp.Status),
		FailureReason: resp.FailureReason,
	}, nil
}
