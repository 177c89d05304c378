// Package report aggregates ledger records into summaries and turns them
// into sheet tables for a Sink.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/coop-ledger/internal/loan"
	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/Dan9191/coop-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

const periodLayout = "2006-01"

// Aggregator computes summaries over stored records
type Aggregator struct {
	repo   repository.Store
	policy loan.Policy
}

// NewAggregator initializes a new aggregator
func NewAggregator(repo repository.Store, policy loan.Policy) *Aggregator {
	return &Aggregator{repo: repo, policy: policy}
}

// ParsePeriod parses YYYY-MM into the half-open range [first day, first day of next month)
func ParsePeriod(period string) (from, to time.Time, err error) {
	from, err = time.Parse(periodLayout, period)
	if err != nil || len(period) != len(periodLayout) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q, expected YYYY-MM", models.ErrInvalidPeriod, period)
	}
	return from, from.AddDate(0, 1, 0), nil
}

// MonthlySummary totals loans issued and installments collected in period.
// TotalOutstanding covers all loans regardless of period: it is the current exposure.
func (a *Aggregator) MonthlySummary(ctx context.Context, period string) (*models.MonthlySummary, error) {
	from, to, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	issued, err := a.repo.ListLoansIssuedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	collected, err := a.repo.ListInstallmentsPaidBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	all, err := a.repo.ListLoans(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.MonthlySummary{
		Period:           period,
		TotalIssued:      decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for _, l := range issued {
		summary.TotalIssued = summary.TotalIssued.Add(l.TotalPayable)
	}
	for _, in := range collected {
		summary.TotalCollected = summary.TotalCollected.Add(in.Amount)
	}
	for _, l := range all {
		summary.TotalOutstanding = summary.TotalOutstanding.Add(l.Outstanding)
	}
	return summary, nil
}

// MemberSummary returns a member with its loans and installments
func (a *Aggregator) MemberSummary(ctx context.Context, memberID int64) (*models.MemberSummary, error) {
	member, err := a.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	loans, err := a.repo.ListLoansByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	installments, err := a.repo.ListInstallmentsByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	return &models.MemberSummary{
		Member:       *member,
		Loans:        a.policy.Views(loans),
		Installments: installments,
	}, nil
}

// OverdueLoans returns every overdue loan in issue order
func (a *Aggregator) OverdueLoans(ctx context.Context) ([]models.LoanView, error) {
	loans, err := a.repo.ListLoansByStatus(ctx, models.LoanOverdue)
	if err != nil {
		return nil, err
	}
	return a.policy.Views(loans), nil
}
