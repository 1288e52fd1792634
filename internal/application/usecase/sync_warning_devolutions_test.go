package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altbank/pix-lifecycle/internal/application/usecase"
	"github.com/altbank/pix-lifecycle/internal/domain/event"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
)

func TestSyncWarningDevolutions(t *testing.T) {
	newSync := func(devolutions *mockDevolutionRepo, psp *mockPSPGateway, publisher *mockEventPublisher) *usecase.SyncWarningDevolutions {
		return usecase.NewSyncWarningDevolutions(devolutions, psp, publisher, testLogger(), time.Minute)
	}

	t.Run("settled devolutions are completed", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{devolutions: map[uuid.UUID]*port.PixDevolution{
			devolution.ID(): {ID: devolution.ID(), Status: port.DevolutionSettled},
		}}
		publisher := &mockEventPublisher{}

		synced, err := newSync(devolutions, psp, publisher).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, synced)
		assert.Equal(t, model.WarningDevolutionStateCompleted, devolution.State())
		assert.Len(t, devolutions.updated, 1)
		assert.Equal(t, []string{event.TypeWarningDevolutionCompleted}, publisher.typesOn(usecase.DevolutionEventsTopic))
	})

	t.Run("chargebacks are reverted with a translated reason", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{devolutions: map[uuid.UUID]*port.PixDevolution{
			devolution.ID(): {ID: devolution.ID(), Status: port.DevolutionChargeback, FailureReason: "AC03"},
		}}
		publisher := &mockEventPublisher{}

		synced, err := newSync(devolutions, psp, publisher).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, synced)
		assert.Equal(t, model.WarningDevolutionStateReverted, devolution.State())
		assert.Equal(t, "invalid creditor account", devolution.FailureReason())
	})

	t.Run("unmapped chargeback codes keep their raw value", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{devolutions: map[uuid.UUID]*port.PixDevolution{
			devolution.ID(): {ID: devolution.ID(), Status: port.DevolutionChargeback, FailureReason: "XX99"},
		}}

		_, err := newSync(devolutions, psp, &mockEventPublisher{}).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "XX99", devolution.FailureReason())
	})

	t.Run("processing devolutions stay waiting", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{devolutions: map[uuid.UUID]*port.PixDevolution{
			devolution.ID(): {ID: devolution.ID(), Status: port.DevolutionProcessing},
		}}

		synced, err := newSync(devolutions, psp, &mockEventPublisher{}).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 0, synced)
		assert.Equal(t, model.WarningDevolutionStateWaiting, devolution.State())
		assert.Empty(t, devolutions.updated)
	})

	t.Run("a devolution unknown to the psp is skipped", func(t *testing.T) {
		devolution := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{devolution}}
		psp := &mockPSPGateway{}

		synced, err := newSync(devolutions, psp, &mockEventPublisher{}).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 0, synced)
		assert.Equal(t, model.WarningDevolutionStateWaiting, devolution.State())
	})

	t.Run("one failing record never blocks the rest of the batch", func(t *testing.T) {
		failing := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		healthy := storedDevolution(uuid.New(), model.WarningDevolutionStateWaiting)
		devolutions := &mockDevolutionRepo{devolutions: []*model.WarningDevolution{failing, healthy}}
		psp := &mockPSPGateway{
			getPixDevolutionByIDF: func(id uuid.UUID) (*port.PixDevolution, error) {
				if id == failing.ID() {
					return nil, assert.AnError
				}
				return &port.PixDevolution{ID: id, Status: port.DevolutionSettled}, nil
			},
		}

		synced, err := newSync(devolutions, psp, &mockEventPublisher{}).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, synced)
		assert.Equal(t, model.WarningDevolutionStateWaiting, failing.State())
		assert.Equal(t, model.WarningDevolutionStateCompleted, healthy.State())
	})

	t.Run("list failure aborts the sweep", func(t *testing.T) {
		devolutions := &mockDevolutionRepo{listErr: assert.AnError}

		_, err := newSync(devolutions, &mockPSPGateway{}, &mockEventPublisher{}).Execute(context.Background())
		assert.Error(t, err)
	})
}
