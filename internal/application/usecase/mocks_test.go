package usecase_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
	"github.com/altbank/pix-lifecycle/pkg/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Stored aggregate builders ---

// Aggregates are built through the Reconstruct constructors so they carry no
// pending domain events, matching what a repository load returns.

func storedDeposit(operationID uuid.UUID, amount decimal.Decimal, state model.DepositState) *model.Deposit {
	now := time.Now().UTC()
	return model.ReconstructDeposit(
		uuid.New(), operationID, "E2E0001",
		amount, decimal.Zero,
		"Alice", "11122233344",
		"Bob", "55566677788", "12345678",
		nil, state, now, now,
	)
}

func storedWarning(operationID uuid.UUID, origin model.WarningOrigin, state model.WarningDepositState) *model.WarningDeposit {
	now := time.Now().UTC()
	return model.ReconstructWarningDeposit(uuid.New(), operationID, origin, nil, "", state, now, now)
}

func storedInfraction(infractionPspID, issueID string, state model.InfractionState) *model.Infraction {
	now := time.Now().UTC()
	return model.ReconstructInfraction(
		uuid.New(), infractionPspID, issueID, "fraud", "unauthorized transaction",
		model.InfractionStatusOpened, state, "", "", now, now,
	)
}

func storedRefund(transactionType model.RefundTransactionType, transactionID uuid.UUID, state model.RefundState) *model.Refund {
	now := time.Now().UTC()
	return model.ReconstructRefund(
		uuid.New(), transactionType, transactionID, "", "sol-1",
		decimal.NewFromInt(250), "disputed deposit", state, now, now,
	)
}

func storedDevolution(warningDepositID uuid.UUID, state model.WarningDevolutionState) *model.WarningDevolution {
	now := time.Now().UTC()
	return model.ReconstructWarningDevolution(
		uuid.New(), warningDepositID, "E2E0001",
		decimal.NewFromInt(100), model.DevolutionCodeFraud, "", "", state, now, now,
	)
}

func openLink(infractionID, refundOperationID uuid.UUID) *model.InfractionRefundOperation {
	now := time.Now().UTC()
	return model.ReconstructInfractionRefundOperation(
		uuid.New(), infractionID, refundOperationID,
		model.InfractionRefundOperationOpen, now, now,
	)
}

// --- Mock repositories ---

type mockDepositRepo struct {
	deposits  []*model.Deposit
	created   []*model.Deposit
	updated   []*model.Deposit
	findErr   error
	createErr error
	updateErr error
}

func (m *mockDepositRepo) Create(_ context.Context, deposit *model.Deposit) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.deposits = append(m.deposits, deposit)
	m.created = append(m.created, deposit)
	return nil
}

func (m *mockDepositRepo) Update(_ context.Context, deposit *model.Deposit) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, deposit)
	return nil
}

func (m *mockDepositRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Deposit, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, d := range m.deposits {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockDepositRepo) FindByOperationID(_ context.Context, operationID uuid.UUID) (*model.Deposit, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, d := range m.deposits {
		if d.OperationID() == operationID {
			return d, nil
		}
	}
	return nil, nil
}

type mockWarningRepo struct {
	warnings  []*model.WarningDeposit
	created   []*model.WarningDeposit
	updated   []*model.WarningDeposit
	findErr   error
	createErr error
	updateErr error
}

func (m *mockWarningRepo) Create(_ context.Context, warning *model.WarningDeposit) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.warnings = append(m.warnings, warning)
	m.created = append(m.created, warning)
	return nil
}

func (m *mockWarningRepo) Update(_ context.Context, warning *model.WarningDeposit) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, warning)
	return nil
}

func (m *mockWarningRepo) FindByID(_ context.Context, id uuid.UUID) (*model.WarningDeposit, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, w := range m.warnings {
		if w.ID() == id {
			return w, nil
		}
	}
	return nil, nil
}

func (m *mockWarningRepo) FindByOperationID(_ context.Context, operationID uuid.UUID) (*model.WarningDeposit, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, w := range m.warnings {
		if w.OperationID() == operationID {
			return w, nil
		}
	}
	return nil, nil
}

type mockInfractionRepo struct {
	infractions []*model.Infraction
	created     []*model.Infraction
	updated     []*model.Infraction
	findErr     error
	createErr   error
	updateErr   error
}

func (m *mockInfractionRepo) Create(_ context.Context, infraction *model.Infraction) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.infractions = append(m.infractions, infraction)
	m.created = append(m.created, infraction)
	return nil
}

func (m *mockInfractionRepo) Update(_ context.Context, infraction *model.Infraction) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, infraction)
	return nil
}

func (m *mockInfractionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Infraction, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, i := range m.infractions {
		if i.ID() == id {
			return i, nil
		}
	}
	return nil, nil
}

func (m *mockInfractionRepo) FindByPspID(_ context.Context, infractionPspID string) (*model.Infraction, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, i := range m.infractions {
		if i.InfractionPspID() == infractionPspID {
			return i, nil
		}
	}
	return nil, nil
}

func (m *mockInfractionRepo) FindByIssueID(_ context.Context, issueID string) (*model.Infraction, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, i := range m.infractions {
		if i.IssueID() == issueID {
			return i, nil
		}
	}
	return nil, nil
}

type mockRefundOpRepo struct {
	links     []*model.InfractionRefundOperation
	created   []*model.InfractionRefundOperation
	updated   []*model.InfractionRefundOperation
	listErr   error
	createErr error
	updateErr error
}

func (m *mockRefundOpRepo) Create(_ context.Context, link *model.InfractionRefundOperation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.links = append(m.links, link)
	m.created = append(m.created, link)
	return nil
}

func (m *mockRefundOpRepo) Update(_ context.Context, link *model.InfractionRefundOperation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, link)
	return nil
}

func (m *mockRefundOpRepo) ListOpenByInfractionID(_ context.Context, infractionID uuid.UUID) ([]*model.InfractionRefundOperation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var open []*model.InfractionRefundOperation
	for _, link := range m.links {
		if link.InfractionID() == infractionID && link.State() == model.InfractionRefundOperationOpen {
			open = append(open, link)
		}
	}
	return open, nil
}

type mockRefundRepo struct {
	refunds   []*model.Refund
	created   []*model.Refund
	updated   []*model.Refund
	findErr   error
	createErr error
	updateErr error
}

func (m *mockRefundRepo) Create(_ context.Context, refund *model.Refund) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.refunds = append(m.refunds, refund)
	m.created = append(m.created, refund)
	return nil
}

func (m *mockRefundRepo) Update(_ context.Context, refund *model.Refund) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, refund)
	return nil
}

func (m *mockRefundRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Refund, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.refunds {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRefundRepo) FindBySolicitationPspID(_ context.Context, solicitationPspID string) (*model.Refund, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.refunds {
		if r.SolicitationPspID() == solicitationPspID {
			return r, nil
		}
	}
	return nil, nil
}

type mockDevolutionRepo struct {
	devolutions []*model.WarningDevolution
	created     []*model.WarningDevolution
	updated     []*model.WarningDevolution
	findErr     error
	createErr   error
	updateErr   error
	listErr     error
}

func (m *mockDevolutionRepo) Create(_ context.Context, devolution *model.WarningDevolution) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.devolutions = append(m.devolutions, devolution)
	m.created = append(m.created, devolution)
	return nil
}

func (m *mockDevolutionRepo) Update(_ context.Context, devolution *model.WarningDevolution) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, devolution)
	return nil
}

func (m *mockDevolutionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.WarningDevolution, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, d := range m.devolutions {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockDevolutionRepo) ListWaitingUpdatedBefore(_ context.Context, _ time.Time) ([]*model.WarningDevolution, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var waiting []*model.WarningDevolution
	for _, d := range m.devolutions {
		if d.State() == model.WarningDevolutionStateWaiting {
			waiting = append(waiting, d)
		}
	}
	return waiting, nil
}

// --- Mock gateways ---

type mockLedgerGateway struct {
	operations map[uuid.UUID]*port.Operation
	reverted   []uuid.UUID
	getErr     error
	revertErr  error
}

func (m *mockLedgerGateway) GetOperationByID(_ context.Context, id uuid.UUID) (*port.Operation, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.operations[id], nil
}

func (m *mockLedgerGateway) RevertOperation(_ context.Context, id uuid.UUID) error {
	if m.revertErr != nil {
		return m.revertErr
	}
	m.reverted = append(m.reverted, id)
	return nil
}

type devolutionCall struct {
	devolutionID uuid.UUID
	endToEndID   string
	amount       decimal.Decimal
	code         model.DevolutionCode
}

type mockPSPGateway struct {
	createInfractionID    string
	createInfractionErr   error
	createdInfractions    []port.CreateInfractionRequest
	closeInfractionErr    error
	closedInfractions     []string
	cancelInfractionErr   error
	cancelledInfractions  []string
	cancelRefundErr       error
	cancelledRefunds      []string
	createDevolutionErr   error
	createdDevolutions    []devolutionCall
	devolutions           map[uuid.UUID]*port.PixDevolution
	getPixDevolutionErr   error
	getPixDevolutionByIDF func(id uuid.UUID) (*port.PixDevolution, error)
}

func (m *mockPSPGateway) CreateInfraction(_ context.Context, req port.CreateInfractionRequest) (string, error) {
	if m.createInfractionErr != nil {
		return "", m.createInfractionErr
	}
	m.createdInfractions = append(m.createdInfractions, req)
	return m.createInfractionID, nil
}

func (m *mockPSPGateway) CloseInfraction(_ context.Context, infractionPspID string, _ model.AnalysisResult, _ string) error {
	if m.closeInfractionErr != nil {
		return m.closeInfractionErr
	}
	m.closedInfractions = append(m.closedInfractions, infractionPspID)
	return nil
}

func (m *mockPSPGateway) CancelInfraction(_ context.Context, infractionPspID string) error {
	if m.cancelInfractionErr != nil {
		return m.cancelInfractionErr
	}
	m.cancelledInfractions = append(m.cancelledInfractions, infractionPspID)
	return nil
}

func (m *mockPSPGateway) GetInfractions(_ context.Context) ([]port.CreateInfractionRequest, error) {
	return nil, nil
}

func (m *mockPSPGateway) CancelRefundRequest(_ context.Context, solicitationPspID string) error {
	if m.cancelRefundErr != nil {
		return m.cancelRefundErr
	}
	m.cancelledRefunds = append(m.cancelledRefunds, solicitationPspID)
	return nil
}

func (m *mockPSPGateway) CreatePixDevolution(_ context.Context, devolutionID uuid.UUID, endToEndID string, amount decimal.Decimal, code model.DevolutionCode) error {
	if m.createDevolutionErr != nil {
		return m.createDevolutionErr
	}
	m.createdDevolutions = append(m.createdDevolutions, devolutionCall{
		devolutionID: devolutionID,
		endToEndID:   endToEndID,
		amount:       amount,
		code:         code,
	})
	return nil
}

func (m *mockPSPGateway) GetPixDevolutionByID(_ context.Context, devolutionID uuid.UUID) (*port.PixDevolution, error) {
	if m.getPixDevolutionByIDF != nil {
		return m.getPixDevolutionByIDF(devolutionID)
	}
	if m.getPixDevolutionErr != nil {
		return nil, m.getPixDevolutionErr
	}
	return m.devolutions[devolutionID], nil
}

type mockIssueGateway struct {
	issueID       string
	createErr     error
	updateErr     error
	createdIssues []port.CreateRefundIssueRequest
	statusUpdates []string
}

func (m *mockIssueGateway) CreateRefund(_ context.Context, req port.CreateRefundIssueRequest) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.createdIssues = append(m.createdIssues, req)
	return m.issueID, nil
}

func (m *mockIssueGateway) UpdateRefundStatus(_ context.Context, issueID string, status string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdates = append(m.statusUpdates, issueID+":"+status)
	return nil
}

// --- Mock event publisher ---

type publishedEvent struct {
	topic string
	event events.DomainEvent
}

type mockEventPublisher struct {
	published  []publishedEvent
	publishErr error
}

func (m *mockEventPublisher) Publish(_ context.Context, topic string, evts ...events.DomainEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	for _, evt := range evts {
		m.published = append(m.published, publishedEvent{topic: topic, event: evt})
	}
	return nil
}

// typesOn returns the event types published to the given topic, in order.
func (m *mockEventPublisher) typesOn(topic string) []string {
	var types []string
	for _, p := range m.published {
		if p.topic == topic {
			types = append(types, p.event.EventType())
		}
	}
	return types
}
