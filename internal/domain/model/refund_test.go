package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

func newTestRefund(t *testing.T) *model.Refund {
	t.Helper()
	refund, err := model.NewRefund(
		model.RefundTransactionDeposit, uuid.New(), "sol-1",
		decimal.NewFromInt(250), "disputed deposit",
	)
	require.NoError(t, err)
	return refund
}

func TestNewRefund(t *testing.T) {
	t.Run("creates refund in RECEIVE_PENDING", func(t *testing.T) {
		refund := newTestRefund(t)
		assert.Equal(t, model.RefundReceivePending, refund.State())
		assert.Empty(t, refund.IssueID())
	})

	t.Run("rejects unknown transaction type", func(t *testing.T) {
		_, err := model.NewRefund(model.RefundTransactionType("LOAN"), uuid.New(), "sol-1", decimal.NewFromInt(1), "")
		assert.ErrorIs(t, err, model.ErrInvalidDataFormat)
	})

	t.Run("rejects nil transaction id", func(t *testing.T) {
		_, err := model.NewRefund(model.RefundTransactionDeposit, uuid.Nil, "sol-1", decimal.NewFromInt(1), "")
		assert.ErrorIs(t, err, model.ErrMissingData)
	})

	t.Run("rejects empty solicitation id", func(t *testing.T) {
		_, err := model.NewRefund(model.RefundTransactionDeposit, uuid.New(), "", decimal.NewFromInt(1), "")
		assert.ErrorIs(t, err, model.ErrMissingData)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := model.NewRefund(model.RefundTransactionDeposit, uuid.New(), "sol-1", decimal.Zero, "")
		assert.ErrorIs(t, err, model.ErrInvalidDataFormat)
	})
}

func TestRefundConfirmReceive(t *testing.T) {
	now := time.Now().UTC()

	t.Run("moves RECEIVE_PENDING to RECEIVE_CONFIRMED", func(t *testing.T) {
		refund := newTestRefund(t)

		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))

		assert.Equal(t, model.RefundReceiveConfirmed, refund.State())
		assert.Equal(t, "ISSUE-9", refund.IssueID())
		require.Len(t, refund.DomainEvents(), 1)
		assert.Equal(t, event.TypeRefundReceiveConfirmed, refund.DomainEvents()[0].EventType())
	})

	t.Run("accepts the retryable ERROR state", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.MarkError(now))

		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))
		assert.Equal(t, model.RefundReceiveConfirmed, refund.State())
	})

	t.Run("second confirm reports already handled", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))

		assert.True(t, model.IsAlreadyDone(refund.ConfirmReceive("ISSUE-9", now)))
	})

	t.Run("confirm after cancellation is invalid", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.Cancel(now))

		err := refund.ConfirmReceive("ISSUE-9", now)
		require.Error(t, err)
		assert.False(t, model.IsAlreadyDone(err))
	})

	t.Run("requires an issue id", func(t *testing.T) {
		refund := newTestRefund(t)
		assert.ErrorIs(t, refund.ConfirmReceive("", now), model.ErrMissingData)
	})
}

func TestRefundClose(t *testing.T) {
	now := time.Now().UTC()

	t.Run("moves RECEIVE_CONFIRMED to CLOSED_WAITING", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))

		require.NoError(t, refund.Close("approved after analysis", now))

		assert.Equal(t, model.RefundClosedWaiting, refund.State())
		assert.Equal(t, "approved after analysis", refund.Description())
		assert.Equal(t, event.TypeRefundClosedWaiting, refund.DomainEvents()[1].EventType())
	})

	t.Run("empty details keep the original description", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))

		require.NoError(t, refund.Close("", now))
		assert.Equal(t, "disputed deposit", refund.Description())
	})

	t.Run("accepts the retryable ERROR state", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.MarkError(now))

		require.NoError(t, refund.Close("", now))
		assert.Equal(t, model.RefundClosedWaiting, refund.State())
	})

	t.Run("second close reports already handled", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))
		require.NoError(t, refund.Close("", now))

		assert.True(t, model.IsAlreadyDone(refund.Close("", now)))
	})

	t.Run("close before reception is invalid", func(t *testing.T) {
		refund := newTestRefund(t)

		err := refund.Close("", now)
		require.Error(t, err)
		assert.False(t, model.IsAlreadyDone(err))
	})
}

func TestRefundCancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("moves RECEIVE_CONFIRMED to CANCEL_CONFIRMED", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))

		require.NoError(t, refund.Cancel(now))

		assert.Equal(t, model.RefundCancelConfirmed, refund.State())
		assert.Equal(t, event.TypeRefundCancelConfirmed, refund.DomainEvents()[1].EventType())
	})

	t.Run("second cancel reports already handled", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.Cancel(now))

		assert.True(t, model.IsAlreadyDone(refund.Cancel(now)))
	})

	t.Run("cancel after close is invalid", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))
		require.NoError(t, refund.Close("", now))

		err := refund.Cancel(now)
		require.Error(t, err)
		assert.False(t, model.IsAlreadyDone(err))
	})
}

func TestRefundMarkError(t *testing.T) {
	now := time.Now().UTC()

	t.Run("parks a pending refund in ERROR", func(t *testing.T) {
		refund := newTestRefund(t)

		require.NoError(t, refund.MarkError(now))

		assert.Equal(t, model.RefundStateError, refund.State())
		assert.Equal(t, event.TypeRefundMarkedError, refund.DomainEvents()[0].EventType())
	})

	t.Run("second mark reports already handled", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.MarkError(now))

		assert.True(t, model.IsAlreadyDone(refund.MarkError(now)))
	})

	t.Run("terminal states are left untouched", func(t *testing.T) {
		refund := newTestRefund(t)
		require.NoError(t, refund.ConfirmReceive("ISSUE-9", now))
		require.NoError(t, refund.Close("", now))

		err := refund.MarkError(now)
		require.Error(t, err)
		assert.False(t, model.IsAlreadyDone(err))
		assert.Equal(t, model.RefundClosedWaiting, refund.State())
	})
}
