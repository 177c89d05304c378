package report

import (
	"context"

	"github.com/Dan9191/coop-ledger/internal/models"
)

// Table is one sheet of a report: a name, a header row and data rows.
// Cells hold string, int, int64, decimal.Decimal or time.Time values.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]any
}

// Sink renders report tables somewhere durable and returns where they went
type Sink interface {
	Write(ctx context.Context, name string, tables []Table) (string, error)
}

var (
	loanHeader = []string{"Loan ID", "Member ID", "Principal", "Total Payable",
		"Outstanding", "Remaining Days", "Status"}
	installmentHeader = []string{"Installment ID", "Date", "Loan ID", "Member ID",
		"Amount Paid", "Outstanding", "Status"}
)

func loanRows(loans []models.LoanView) [][]any {
	rows := make([][]any, 0, len(loans))
	for _, l := range loans {
		rows = append(rows, []any{l.ID, l.MemberID, l.Principal, l.TotalPayable,
			l.Outstanding, l.RemainingDays, string(l.Status)})
	}
	return rows
}

// OverdueTable lays out overdue loans
func OverdueTable(loans []models.LoanView) Table {
	return Table{Sheet: "Overdue", Header: loanHeader, Rows: loanRows(loans)}
}

// MonthlyTable lays out a monthly summary as a single row
func MonthlyTable(s *models.MonthlySummary) Table {
	return Table{
		Sheet:  "Monthly Summary",
		Header: []string{"Period", "Total Issued", "Total Collected", "Total Outstanding"},
		Rows:   [][]any{{s.Period, s.TotalIssued, s.TotalCollected, s.TotalOutstanding}},
	}
}

// MemberTables lays out a member summary as member, loan and installment sheets
func MemberTables(s *models.MemberSummary) []Table {
	m := s.Member
	installments := make([][]any, 0, len(s.Installments))
	for _, in := range s.Installments {
		installments = append(installments, []any{in.ID, in.PaidOn, in.LoanID, in.MemberID,
			in.Amount, in.Outstanding, string(in.Status)})
	}

	return []Table{
		{
			Sheet:  "Member",
			Header: []string{"Member ID", "Name", "Address", "Phone", "Joined"},
			Rows:   [][]any{{m.ID, m.Name, m.Address, m.Phone, m.JoinedOn}},
		},
		{Sheet: "Loans", Header: loanHeader, Rows: loanRows(s.Loans)},
		{Sheet: "Installments", Header: installmentHeader, Rows: installments},
	}
}
