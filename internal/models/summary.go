package models

import "github.com/shopspring/decimal"

// MonthlySummary represents issuance and collection totals for one calendar month
type MonthlySummary struct {
	Period           string          `json:"period"` // Format: YYYY-MM
	TotalIssued      decimal.Decimal `json:"total_issued"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"` // All loans, not period-scoped
}

// MemberSummary represents a member with everything that references it
type MemberSummary struct {
	Member       Member        `json:"member"`
	Loans        []LoanView    `json:"loans"`
	Installments []Installment `json:"installments"`
}
