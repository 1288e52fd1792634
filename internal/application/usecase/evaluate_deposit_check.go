package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/altbank/pix-lifecycle/internal/application/dto"
	"github.com/altbank/pix-lifecycle/internal/domain/model"
	"github.com/altbank/pix-lifecycle/internal/domain/port"
	"github.com/altbank/pix-lifecycle/internal/domain/service"
	"github.com/altbank/pix-lifecycle/pkg/keymutex"
)

// EvaluateDepositCheck runs one registered checker against a deposit and
// creates the warning hold once every checker has reported with at least one
// flagging true.
type EvaluateDepositCheck struct {
	deposits  port.DepositRepository
	warnings  port.WarningDepositRepository
	publisher port.EventPublisher
	locks     *keymutex.KeyMutex
	checkers  []service.WarningChecker
	logger    *slog.Logger
}

// NewEvaluateDepositCheck creates an EvaluateDepositCheck use case over the
// registered checkers.
func NewEvaluateDepositCheck(
	deposits port.DepositRepository,
	warnings port.WarningDepositRepository,
	publisher port.EventPublisher,
	locks *keymutex.KeyMutex,
	checkers []service.WarningChecker,
	logger *slog.Logger,
) *EvaluateDepositCheck {
	return &EvaluateDepositCheck{
		deposits:  deposits,
		warnings:  warnings,
		publisher: publisher,
		locks:     locks,
		checkers:  checkers,
		logger:    logger,
	}
}

// Execute records the named checker's verdict under the per-deposit lock.
// The read-check-write is the whole critical section; checkers are local
// predicates, so no network call happens while the lock is held. When checks
// are still pending, or all came back false, no hold is created and no event
// is emitted.
func (uc *EvaluateDepositCheck) Execute(ctx context.Context, req dto.EvaluateDepositCheckRequest) (*model.Deposit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	checker := uc.checkerByName(req.CheckerName)
	if checker == nil {
		return nil, fmt.Errorf("%w: unknown checker %q", model.ErrInvalidDataFormat, req.CheckerName)
	}

	key := req.OperationID.String()
	uc.locks.Lock(key)
	defer uc.locks.Unlock(key)

	deposit, err := uc.deposits.FindByOperationID(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit for operation %s: %w", req.OperationID, err)
	}
	if deposit == nil {
		return nil, fmt.Errorf("operation %s: %w", req.OperationID, model.ErrDepositNotFound)
	}

	flagged, err := checker.Check(ctx, deposit)
	if err != nil {
		return nil, fmt.Errorf("checker %s failed for deposit %s: %w", checker.Name(), deposit.ID(), err)
	}

	if err := deposit.RecordCheck(checker.Name(), flagged, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record check: %w", err)
	}
	if err := uc.deposits.Update(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to save deposit checks: %w", err)
	}

	if !deposit.AllChecksReported(uc.registeredNames()) || !deposit.AnyCheckFlagged() {
		uc.logger.Info("checker reported, no hold warranted yet",
			"deposit_id", deposit.ID(), "checker", checker.Name(), "flagged", flagged)
		return deposit, nil
	}

	existing, err := uc.warnings.FindByOperationID(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up warning deposit: %w", err)
	}
	if existing != nil {
		return deposit, nil
	}

	warning, err := model.NewWarningDeposit(req.OperationID, model.WarningOriginSystem, deposit.Checks())
	if err != nil {
		return nil, fmt.Errorf("failed to create warning deposit: %w", err)
	}
	if err := uc.warnings.Create(ctx, warning); err != nil {
		return nil, fmt.Errorf("failed to save warning deposit: %w", err)
	}
	if evts := warning.DomainEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, WarningEventsTopic, evts...); err != nil {
			uc.logger.Error("failed to publish warning events", "error", err, "warning_deposit_id", warning.ID())
		}
	}

	uc.logger.Info("warning deposit created",
		"warning_deposit_id", warning.ID(),
		"operation_id", req.OperationID,
		"checks", deposit.Checks(),
	)
	return deposit, nil
}

func (uc *EvaluateDepositCheck) checkerByName(name string) service.WarningChecker {
	for _, c := range uc.checkers {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (uc *EvaluateDepositCheck) registeredNames() []string {
	names := make([]string, 0, len(uc.checkers))
	for _, c := range uc.checkers {
		names = append(names, c.Name())
	}
	return names
}
