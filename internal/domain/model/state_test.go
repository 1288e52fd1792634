package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

func TestInfractionStateRoundTrip(t *testing.T) {
	states := []struct {
		state model.InfractionState
		raw   string
	}{
		{model.InfractionStateNew, "NEW"},
		{model.InfractionPending(model.InfractionStageOpen), "OPEN_PENDING"},
		{model.InfractionConfirmed(model.InfractionStageOpen), "OPEN_CONFIRMED"},
		{model.InfractionPending(model.InfractionStageAnalysis), "IN_ANALYSIS_PENDING"},
		{model.InfractionConfirmed(model.InfractionStageAnalysis), "IN_ANALYSIS_CONFIRMED"},
		{model.InfractionPending(model.InfractionStageClosed), "CLOSED_PENDING"},
		{model.InfractionConfirmed(model.InfractionStageClosed), "CLOSED_CONFIRMED"},
		{model.InfractionPending(model.InfractionStageCancel), "CANCEL_PENDING"},
		{model.InfractionConfirmed(model.InfractionStageCancel), "CANCEL_CONFIRMED"},
	}

	for _, tc := range states {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.raw, tc.state.String())

			parsed, err := model.ParseInfractionState(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.state, parsed)
		})
	}

	t.Run("unknown name is a format error", func(t *testing.T) {
		_, err := model.ParseInfractionState("OPEN_MAYBE")
		assert.ErrorIs(t, err, model.ErrInvalidDataFormat)
	})
}

func TestRefundStateRoundTrip(t *testing.T) {
	states := []struct {
		state model.RefundState
		raw   string
	}{
		{model.RefundReceivePending, "RECEIVE_PENDING"},
		{model.RefundReceiveConfirmed, "RECEIVE_CONFIRMED"},
		{model.RefundClosedPending, "CLOSED_PENDING"},
		{model.RefundClosedWaiting, "CLOSED_WAITING"},
		{model.RefundCancelPending, "CANCEL_PENDING"},
		{model.RefundCancelConfirmed, "CANCEL_CONFIRMED"},
		{model.RefundStateError, "ERROR"},
	}

	for _, tc := range states {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.raw, tc.state.String())

			parsed, err := model.ParseRefundState(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.state, parsed)
		})
	}

	t.Run("unknown name is a format error", func(t *testing.T) {
		_, err := model.ParseRefundState("CLOSED")
		assert.ErrorIs(t, err, model.ErrInvalidDataFormat)
	})
}
