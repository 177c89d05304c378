package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the derived state of a loan
type LoanStatus string

const (
	LoanUnpaid  LoanStatus = "Unpaid"
	LoanPaid    LoanStatus = "Paid"
	LoanOverdue LoanStatus = "Overdue"
)

// Valid reports whether s is one of the known statuses
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanUnpaid, LoanPaid, LoanOverdue:
		return true
	}
	return false
}

// Warning is a read-side annotation attached to a loan, never stored
type Warning string

const (
	WarningNone    Warning = ""
	WarningNearDue Warning = "near-due"
	WarningOverdue Warning = "overdue"
)

// Loan represents a loan issued to a member
type Loan struct {
	ID            int64           `json:"id"`
	MemberID      int64           `json:"member_id"`
	Principal     decimal.Decimal `json:"principal"`
	TotalPayable  decimal.Decimal `json:"total_payable"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	TermDays      int             `json:"term_days"`
	RemainingDays int             `json:"remaining_days"`
	Status        LoanStatus      `json:"status"`
	IssuedOn      time.Time       `json:"issued_on"`
}

// LoanView is a loan as returned by read accessors
type LoanView struct {
	Loan
	Warning Warning `json:"warning,omitempty"`
}
