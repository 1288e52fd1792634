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
	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

func TestRegisterRefund(t *testing.T) {
	validRequest := func() dto.RegisterRefundRequest {
		return dto.RegisterRefundRequest{
			TransactionType:   model.RefundTransactionDeposit,
			TransactionID:     uuid.New(),
			SolicitationPspID: "sol-1",
			Amount:            decimal.NewFromInt(250),
			Description:       "disputed deposit",
		}
	}

	t.Run("records the solicitation in receive pending", func(t *testing.T) {
		refunds := &mockRefundRepo{}
		uc := usecase.NewRegisterRefund(refunds, testLogger())

		refund, err := uc.Execute(context.Background(), validRequest())
		require.NoError(t, err)

		assert.Equal(t, model.RefundReceivePending, refund.State())
		assert.Equal(t, "sol-1", refund.SolicitationPspID())
		assert.Len(t, refunds.created, 1)
	})

	t.Run("redelivery of the same solicitation returns the existing record", func(t *testing.T) {
		existing := storedRefund(model.RefundTransactionDeposit, uuid.New(), model.RefundReceiveConfirmed)
		refunds := &mockRefundRepo{refunds: []*model.Refund{existing}}
		uc := usecase.NewRegisterRefund(refunds, testLogger())

		refund, err := uc.Execute(context.Background(), validRequest())
		require.NoError(t, err)

		assert.Same(t, existing, refund)
		assert.Empty(t, refunds.created)
	})

	t.Run("unknown transaction type is a format error", func(t *testing.T) {
		uc := usecase.NewRegisterRefund(&mockRefundRepo{}, testLogger())

		req := validRequest()
		req.TransactionType = model.RefundTransactionType("LOAN")
		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrInvalidDataFormat)
	})

	t.Run("rejects a missing solicitation id", func(t *testing.T) {
		uc := usecase.NewRegisterRefund(&mockRefundRepo{}, testLogger())

		req := validRequest()
		req.SolicitationPspID = ""
		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrMissingData)
	})
}
