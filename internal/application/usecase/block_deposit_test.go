package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/application/usecase"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

func TestBlockDeposit(t *testing.T) {
	setup := func() (uuid.UUID, *mockLedgerGateway, *mockDepositRepo, *mockWarningRepo, *mockEventPublisher, *usecase.BlockDeposit) {
		operationID := uuid.New()
		ledger := &mockLedgerGateway{operations: map[uuid.UUID]*port.Operation{
			operationID: {ID: operationID, Amount: decimal.NewFromInt(100), State: "SETTLED"},
		}}
		deposits := &mockDepositRepo{deposits: []*model.Deposit{
			storedDeposit(operationID, decimal.NewFromInt(100), model.DepositStateReceived),
		}}
		warnings := &mockWarningRepo{warnings: []*model.WarningDeposit{
			storedWarning(operationID, model.WarningOriginSystem, model.WarningDepositStateCreated),
		}}
		publisher := &mockEventPublisher{}
		uc := usecase.NewBlockDeposit(ledger, deposits, warnings, publisher, testLogger())
		return operationID, ledger, deposits, warnings, publisher, uc
	}

	t.Run("blocks the deposit and approves the hold", func(t *testing.T) {
		operationID, _, deposits, warnings, publisher, uc := setup()

		deposit, err := uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: operationID})
		require.NoError(t, err)

		assert.Equal(t, model.DepositStateBlocked, deposit.State())
		assert.Equal(t, model.WarningDepositStateApproved, warnings.warnings[0].State())
		assert.Len(t, deposits.updated, 1)
		assert.Len(t, warnings.updated, 1)

		assert.Equal(t, []string{event.TypeDepositBlocked}, publisher.typesOn(usecase.DepositEventsTopic))
		assert.Equal(t, []string{event.TypeWarningDepositApproved}, publisher.typesOn(usecase.WarningEventsTopic))

		devolutionEvents := publisher.typesOn(usecase.DevolutionEventsTopic)
		require.Equal(t, []string{event.TypeWarningDevolutionCreateRequested}, devolutionEvents)
	})

	t.Run("create request targets the approved hold", func(t *testing.T) {
		operationID, _, _, warnings, publisher, uc := setup()

		_, err := uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: operationID})
		require.NoError(t, err)

		var createReq event.WarningDevolutionCreateRequested
		for _, p := range publisher.published {
			if evt, ok := p.event.(event.WarningDevolutionCreateRequested); ok {
				createReq = evt
			}
		}
		assert.Equal(t, warnings.warnings[0].ID(), createReq.WarningDepositID)
		assert.NotEqual(t, uuid.Nil, createReq.AggregateID())
	})

	t.Run("second block reports already handled with no side effects", func(t *testing.T) {
		operationID, _, deposits, warnings, publisher, uc := setup()

		_, err := uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: operationID})
		require.NoError(t, err)
		firstPublishes := len(publisher.published)

		_, err = uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: operationID})
		assert.True(t, model.IsAlreadyDone(err))

		assert.Len(t, deposits.updated, 1)
		assert.Len(t, warnings.updated, 1)
		assert.Len(t, publisher.published, firstPublishes)
	})

	t.Run("fails when the ledger operation is missing", func(t *testing.T) {
		_, ledger, _, _, _, uc := setup()
		ledger.operations = nil

		_, err := uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: uuid.New()})
		assert.ErrorIs(t, err, model.ErrOperationNotFound)
	})

	t.Run("fails when the deposit is missing", func(t *testing.T) {
		operationID, _, deposits, _, _, uc := setup()
		deposits.deposits = nil

		_, err := uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: operationID})
		assert.ErrorIs(t, err, model.ErrDepositNotFound)
	})

	t.Run("fails when no hold exists", func(t *testing.T) {
		operationID, _, _, warnings, _, uc := setup()
		warnings.warnings = nil

		_, err := uc.Execute(context.Background(), dto.BlockDepositRequest{OperationID: operationID})
		assert.ErrorIs(t, err, model.ErrWarningDepositNotFound)
	})
}
