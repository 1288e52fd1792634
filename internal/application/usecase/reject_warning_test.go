package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/application/usecase"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

func TestRejectWarning(t *testing.T) {
	t.Run("releases the hold with a reason", func(t *testing.T) {
		warning := storedWarning(uuid.New(), model.WarningOriginSystem, model.WarningDepositStateCreated)
		warnings := &mockWarningRepo{warnings: []*model.WarningDeposit{warning}}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRejectWarning(warnings, publisher, testLogger())

		result, err := uc.Execute(context.Background(), dto.RejectWarningRequest{
			WarningDepositID: warning.ID(),
			Reason:           "known sender",
		})
		require.NoError(t, err)

		assert.Equal(t, model.WarningDepositStateRejected, result.State())
		assert.Equal(t, "known sender", result.RejectedReason())
		assert.Len(t, warnings.updated, 1)
		assert.Equal(t, []string{event.TypeWarningDepositRejected}, publisher.typesOn(usecase.WarningEventsTopic))
	})

	t.Run("redelivery returns the rejected hold unchanged", func(t *testing.T) {
		warning := storedWarning(uuid.New(), model.WarningOriginSystem, model.WarningDepositStateRejected)
		warnings := &mockWarningRepo{warnings: []*model.WarningDeposit{warning}}
		publisher := &mockEventPublisher{}
		uc := usecase.NewRejectWarning(warnings, publisher, testLogger())

		result, err := uc.Execute(context.Background(), dto.RejectWarningRequest{
			WarningDepositID: warning.ID(),
			Reason:           "known sender",
		})
		require.NoError(t, err)

		assert.Same(t, warning, result)
		assert.Empty(t, warnings.updated)
		assert.Empty(t, publisher.published)
	})

	t.Run("rejecting an approved hold fails", func(t *testing.T) {
		warning := storedWarning(uuid.New(), model.WarningOriginSystem, model.WarningDepositStateApproved)
		warnings := &mockWarningRepo{warnings: []*model.WarningDeposit{warning}}
		uc := usecase.NewRejectWarning(warnings, &mockEventPublisher{}, testLogger())

		_, err := uc.Execute(context.Background(), dto.RejectWarningRequest{
			WarningDepositID: warning.ID(),
			Reason:           "too late",
		})
		require.Error(t, err)
		assert.False(t, model.IsAlreadyDone(err))
	})

	t.Run("fails when the hold is missing", func(t *testing.T) {
		uc := usecase.NewRejectWarning(&mockWarningRepo{}, &mockEventPublisher{}, testLogger())

		_, err := uc.Execute(context.Background(), dto.RejectWarningRequest{
			WarningDepositID: uuid.New(),
			Reason:           "known sender",
		})
		assert.ErrorIs(t, err, model.ErrWarningDepositNotFound)
	})

	t.Run("requires a reason", func(t *testing.T) {
		uc := usecase.NewRejectWarning(&mockWarningRepo{}, &mockEventPublisher{}, testLogger())

		_, err := uc.Execute(context.Background(), dto.RejectWarningRequest{WarningDepositID: uuid.New()})
		assert.ErrorIs(t, err, model.ErrMissingData)
	})
}
