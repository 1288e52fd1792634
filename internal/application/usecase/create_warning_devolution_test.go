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
)

func TestCreateWarningDevolution(t *testing.T) {
	setup := func(origin model.WarningOrigin, depositState model.DepositState) (*model.Deposit, *model.WarningDeposit, *mockDepositRepo, *mockWarningRepo, *mockDevolutionRepo, *mockEventPublisher, *usecase.CreateWarningDevolution) {
		deposit := storedDeposit(uuid.New(), decimal.NewFromInt(100), depositState)
		warning := storedWarning(deposit.OperationID(), origin, model.WarningDepositStateApproved)
		deposits := &mockDepositRepo{deposits: []*model.Deposit{deposit}}
		warnings := &mockWarningRepo{warnings: []*model.WarningDeposit{warning}}
		devolutions := &mockDevolutionRepo{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewCreateWarningDevolution(devolutions, warnings, deposits, publisher, testLogger())
		return deposit, warning, deposits, warnings, devolutions, publisher, uc
	}

	t.Run("system hold returns the money under the FRAUD code", func(t *testing.T) {
		deposit, warning, deposits, _, devolutions, publisher, uc := setup(model.WarningOriginSystem, model.DepositStateBlocked)

		devolutionID := uuid.New()
		devolution, err := uc.Execute(context.Background(), dto.CreateWarningDevolutionRequest{
			DevolutionID:     devolutionID,
			WarningDepositID: warning.ID(),
		})
		require.NoError(t, err)

		assert.Equal(t, devolutionID, devolution.ID())
		assert.Equal(t, model.DevolutionCodeFraud, devolution.DevolutionCode())
		assert.Equal(t, model.WarningDevolutionStatePending, devolution.State())
		assert.True(t, devolution.Amount().Equal(deposit.Amount()))
		assert.Equal(t, deposit.EndToEndID(), devolution.EndToEndID())

		assert.True(t, deposit.ReturnedAmount().Equal(deposit.Amount()))
		assert.Equal(t, model.DepositStateBlocked, deposit.State())
		assert.Len(t, deposits.updated, 1)
		assert.Len(t, devolutions.created, 1)
		assert.Equal(t, []string{event.TypeWarningDevolutionPending}, publisher.typesOn(usecase.DevolutionEventsTopic))
	})

	t.Run("user hold returns the money under the ORIGINAL code", func(t *testing.T) {
		deposit, warning, _, _, _, _, uc := setup(model.WarningOriginUser, model.DepositStateReceived)

		devolution, err := uc.Execute(context.Background(), dto.CreateWarningDevolutionRequest{
			DevolutionID:     uuid.New(),
			WarningDepositID: warning.ID(),
		})
		require.NoError(t, err)

		assert.Equal(t, model.DevolutionCodeOriginal, devolution.DevolutionCode())
		assert.Equal(t, model.DepositStateReturned, deposit.State())
	})

	t.Run("redelivery under the same id returns the existing record", func(t *testing.T) {
		_, warning, deposits, _, devolutions, publisher, uc := setup(model.WarningOriginSystem, model.DepositStateBlocked)
		existing := storedDevolution(warning.ID(), model.WarningDevolutionStateWaiting)
		devolutions.devolutions = []*model.WarningDevolution{existing}

		devolution, err := uc.Execute(context.Background(), dto.CreateWarningDevolutionRequest{
			DevolutionID:     existing.ID(),
			WarningDepositID: warning.ID(),
		})
		require.NoError(t, err)

		assert.Same(t, existing, devolution)
		assert.Empty(t, devolutions.created)
		assert.Empty(t, deposits.updated)
		assert.Empty(t, publisher.published)
	})

	t.Run("fails when the hold is missing", func(t *testing.T) {
		_, _, _, warnings, _, _, uc := setup(model.WarningOriginSystem, model.DepositStateBlocked)
		warnings.warnings = nil

		_, err := uc.Execute(context.Background(), dto.CreateWarningDevolutionRequest{
			DevolutionID:     uuid.New(),
			WarningDepositID: uuid.New(),
		})
		assert.ErrorIs(t, err, model.ErrWarningDepositNotFound)
	})

	t.Run("fails when the deposit is missing", func(t *testing.T) {
		_, warning, deposits, _, _, _, uc := setup(model.WarningOriginSystem, model.DepositStateBlocked)
		deposits.deposits = nil

		_, err := uc.Execute(context.Background(), dto.CreateWarningDevolutionRequest{
			DevolutionID:     uuid.New(),
			WarningDepositID: warning.ID(),
		})
		assert.ErrorIs(t, err, model.ErrDepositNotFound)
	})

	t.Run("requires both ids", func(t *testing.T) {
		_, _, _, _, _, _, uc := setup(model.WarningOriginSystem, model.DepositStateBlocked)

		_, err := uc.Execute(context.Background(), dto.CreateWarningDevolutionRequest{DevolutionID: uuid.New()})
		assert.ErrorIs(t, err, model.ErrMissingData)
	})
}

func TestSubmitWarningDevolution(t *testing.T) {
	t.Run("hands the devolution to the psp and moves it to WAITING", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStatePending)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewSubmitWarningDevolution(devolutions, psp, publisher, testLogger())

		result, err := uc.Execute(context.Background(), dto.SubmitWarningDevolutionRequest{DevolutionID: devolution.ID()})
		require.NoError(t, err)

		assert.Equal(t, model.WarningDevolutionStateWaiting, result.State())
		require.Len(t, psp.createdDevolutions, 1)
		call := psp.createdDevolutions[0]
		assert.Equal(t, devolution.ID(), call.devolutionID)
		assert.Equal(t, devolution.EndToEndID(), call.endToEndID)
		assert.True(t, call.amount.Equal(devolution.Amount()))
		assert.Equal(t, devolution.DevolutionCode(), call.code)
		assert.Len(t, devolutions.updated, 1)
		assert.Equal(t, []string{event.TypeWarningDevolutionWaiting}, publisher.typesOn(usecase.DevolutionEventsTopic))
	})

	t.Run("redelivery returns the waiting devolution with no psp call", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewSubmitWarningDevolution(devolutions, psp, publisher, testLogger())

		result, err := uc.Execute(context.Background(), dto.SubmitWarningDevolutionRequest{DevolutionID: devolution.ID()})
		require.NoError(t, err)

		assert.Same(t, devolution, result)
		assert.Empty(t, psp.createdDevolutions)
		assert.Empty(t, devolutions.updated)
		assert.Empty(t, publisher.published)
	})

	t.Run("a settled devolution is not resubmitted", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateCompleted)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{}
		uc := usecase.NewSubmitWarningDevolution(devolutions, psp, &mockEventPublisher{}, testLogger())

		_, err := uc.Execute(context.Background(), dto.SubmitWarningDevolutionRequest{DevolutionID: devolution.ID()})
		require.Error(t, err)
		var ise *model.InvalidStateError
		assert.ErrorAs(t, err, &ise)
		assert.Empty(t, psp.createdDevolutions)
	})

	t.Run("psp failure keeps the devolution pending", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStatePending)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{createDevolutionErr: assert.AnError}
		uc := usecase.NewSubmitWarningDevolution(devolutions, psp, &mockEventPublisher{}, testLogger())

		_, err := uc.Execute(context.Background(), dto.SubmitWarningDevolutionRequest{DevolutionID: devolution.ID()})
		require.Error(t, err)
		assert.Equal(t, model.WarningDevolutionStatePending, devolution.State())
		assert.Empty(t, devolutions.updated)
	})

	t.Run("fails when the devolution is missing", func(t *testing.T) {
		uc := usecase.NewSubmitWarningDevolution(&mockDevolutionRepo{}, &mockPSPGateway{}, &mockEventPublisher{}, testLogger())

		_, err := uc.Execute(context.Background(), dto.SubmitWarningDevolutionRequest{DevolutionID: uuid.New()})
		assert.ErrorIs(t, err, model.ErrWarningDevolutionNotFound)
	})
}
