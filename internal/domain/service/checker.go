// Package service holds the warning checkers: independent idempotent
// predicates run against every received deposit. A deposit is held only when
// every registered checker has reported and at least one flagged it.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/altbank/pix-lifecycle/internal/domain/model"
)

// Checker names. The evaluate usecase keys verdicts by these.
const (
	CheckerSuspectCPF        = "isSuspectCpf"
	CheckerSuspectBank       = "isSuspectBank"
	CheckerOverWarningIncome = "isOverWarningIncome"
)

// WarningChecker is a predicate over a deposit. Check must be idempotent:
// running it twice for the same deposit yields the same verdict.
type WarningChecker interface {
	Name() string
	Check(ctx context.Context, deposit *model.Deposit) (bool, error)
}

// SuspectCPFChecker flags deposits whose sender document is on a blocklist.
type SuspectCPFChecker struct {
	blocked map[string]struct{}
}

// NewSuspectCPFChecker creates a checker over the given blocked documents.
func NewSuspectCPFChecker(blockedDocuments []string) *SuspectCPFChecker {
	blocked := make(map[string]struct{}, len(blockedDocuments))
	for _, doc := range blockedDocuments {
		blocked[doc] = struct{}{}
	}
	return &SuspectCPFChecker{blocked: blocked}
}

// Name returns the checker name.
func (c *SuspectCPFChecker) Name() string { return CheckerSuspectCPF }

// Check reports whether the sender document is blocklisted.
func (c *SuspectCPFChecker) Check(_ context.Context, deposit *model.Deposit) (bool, error) {
	_, found := c.blocked[deposit.ThirdPartDocument()]
	return found, nil
}

// SuspectBankChecker flags deposits originated from a blocklisted bank ISPB.
type SuspectBankChecker struct {
	blocked map[string]struct{}
}

// NewSuspectBankChecker creates a checker over the given blocked ISPB codes.
func NewSuspectBankChecker(blockedISPBs []string) *SuspectBankChecker {
	blocked := make(map[string]struct{}, len(blockedISPBs))
	for _, ispb := range blockedISPBs {
		blocked[ispb] = struct{}{}
	}
	return &SuspectBankChecker{blocked: blocked}
}

// Name returns the checker name.
func (c *SuspectBankChecker) Name() string { return CheckerSuspectBank }

// Check reports whether the sender bank is blocklisted.
func (c *SuspectBankChecker) Check(_ context.Context, deposit *model.Deposit) (bool, error) {
	_, found := c.blocked[deposit.ThirdPartBankISPB()]
	return found, nil
}

// OverWarningIncomeChecker flags deposits above the warning income threshold.
type OverWarningIncomeChecker struct {
	threshold decimal.Decimal
}

// NewOverWarningIncomeChecker creates a checker with the given threshold.
func NewOverWarningIncomeChecker(threshold decimal.Decimal) *OverWarningIncomeChecker {
	return &OverWarningIncomeChecker{threshold: threshold}
}

// Name returns the checker name.
func (c *OverWarningIncomeChecker) Name() string { return CheckerOverWarningIncome }

// Check reports whether the deposit amount exceeds the threshold.
func (c *OverWarningIncomeChecker) Check(_ context.Context, deposit *model.Deposit) (bool, error) {
	return deposit.Amount().GreaterThan(c.threshold), nil
}
