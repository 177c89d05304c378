package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is an immutable record of one payment and the loan state right after it
type Installment struct {
	ID          int64           `json:"id"`
	PaidOn      time.Time       `json:"paid_on"`
	LoanID      int64           `json:"loan_id"`
	MemberID    int64           `json:"member_id"`
	Amount      decimal.Decimal `json:"amount"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Status      LoanStatus      `json:"status"`
}
