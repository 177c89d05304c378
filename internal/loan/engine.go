// Package loan holds the pure loan arithmetic: interest at issuance, the
// per-payment term countdown, and status derivation. Nothing here does I/O.
package loan

import (
	"fmt"
	"slices"

	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places stored for every amount
const MoneyPlaces = 2

// Policy holds the cooperative's lending rules
type Policy struct {
	InterestRate decimal.Decimal // flat rate added once at issuance, 0.20 = 20%
	AllowedTerms []int           // term lengths in payment rounds (days)
	NearDueDays  int             // unpaid loans with 0 < remaining <= NearDueDays are flagged
}

// DefaultPolicy returns the cooperative's standard rules
func DefaultPolicy() Policy {
	return Policy{
		InterestRate: decimal.RequireFromString("0.20"),
		AllowedTerms: []int{24, 30},
		NearDueDays:  3,
	}
}

// Terms is the numeric setup of a freshly issued loan
type Terms struct {
	TotalPayable decimal.Decimal
	Balance      decimal.Decimal
	Status       models.LoanStatus
}

// Outcome is the loan state after one payment
type Outcome struct {
	Balance       decimal.Decimal
	RemainingDays int
	Status        models.LoanStatus
}

// AllowsTerm reports whether termDays is one of the configured terms
func (p Policy) AllowsTerm(termDays int) bool {
	return slices.Contains(p.AllowedTerms, termDays)
}

// Issue computes the total payable and initial state for a new loan
func (p Policy) Issue(principal decimal.Decimal, termDays int) (Terms, error) {
	if !principal.IsPositive() {
		return Terms{}, fmt.Errorf("%w: principal must be positive, got %s", models.ErrInvalidLoanTerms, principal)
	}
	if !wholeCents(principal) {
		return Terms{}, fmt.Errorf("%w: principal %s has more than %d decimal places", models.ErrInvalidLoanTerms, principal, MoneyPlaces)
	}
	if !p.AllowsTerm(termDays) {
		return Terms{}, fmt.Errorf("%w: term %d days not in %v", models.ErrInvalidLoanTerms, termDays, p.AllowedTerms)
	}

	total := principal.Mul(decimal.NewFromInt(1).Add(p.InterestRate)).Round(MoneyPlaces)
	if !total.IsPositive() {
		return Terms{}, fmt.Errorf("%w: total payable %s for principal %s is not positive", models.ErrInvalidLoanTerms, total, principal)
	}
	return Terms{
		TotalPayable: total,
		Balance:      total,
		Status:       models.LoanUnpaid,
	}, nil
}

// ApplyPayment computes the loan state after a payment of amount.
// Every payment consumes exactly one round of term regardless of its size;
// overpayment floors the balance at zero.
func ApplyPayment(balance decimal.Decimal, remainingDays int, amount decimal.Decimal) (Outcome, error) {
	if !amount.IsPositive() {
		return Outcome{}, fmt.Errorf("%w: amount must be positive, got %s", models.ErrInvalidPaymentAmount, amount)
	}
	if !wholeCents(amount) {
		return Outcome{}, fmt.Errorf("%w: amount %s has more than %d decimal places", models.ErrInvalidPaymentAmount, amount, MoneyPlaces)
	}
	if balance.IsNegative() || remainingDays < 0 {
		return Outcome{}, fmt.Errorf("%w: loan state out of range: balance %s, remaining %d", models.ErrStorageFailure, balance, remainingDays)
	}

	newBalance := decimal.Max(balance.Sub(amount), decimal.Zero)
	newDays := max(remainingDays-1, 0)
	return Outcome{
		Balance:       newBalance,
		RemainingDays: newDays,
		Status:        StatusFor(newBalance, newDays),
	}, nil
}

func wholeCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(MoneyPlaces))
}

// StatusFor derives the status from balance and remaining term
func StatusFor(balance decimal.Decimal, remainingDays int) models.LoanStatus {
	switch {
	case balance.Sign() <= 0:
		return models.LoanPaid
	case remainingDays == 0:
		return models.LoanOverdue
	default:
		return models.LoanUnpaid
	}
}

// Warn projects the display warning for l. The result is never persisted.
func (p Policy) Warn(l models.Loan) models.Warning {
	switch {
	case l.Status == models.LoanOverdue:
		return models.WarningOverdue
	case l.Status == models.LoanUnpaid && l.RemainingDays > 0 && l.RemainingDays <= p.NearDueDays:
		return models.WarningNearDue
	default:
		return models.WarningNone
	}
}

// View wraps l with its warning
func (p Policy) View(l models.Loan) models.LoanView {
	return models.LoanView{Loan: l, Warning: p.Warn(l)}
}

// Views projects every loan in order
func (p Policy) Views(loans []models.Loan) []models.LoanView {
	views := make([]models.LoanView, len(loans))
	for i, l := range loans {
		views[i] = p.View(l)
	}
	return views
}
