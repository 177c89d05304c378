package repository

import (
	"fmt"
	"time"

	"github.com/Dan9191/coop-ledger/internal/models"
)

const dateLayout = "2006-01-02"

type rowScanner interface {
	Scan(dest ...any) error
}

// dateColumn reads DATE columns from PostgreSQL (time.Time) and TEXT columns from SQLite
type dateColumn struct {
	t *time.Time
}

func (c dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c.t = time.Time{}
		return nil
	case time.Time:
		*c.t = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into date", src)
	}
}

func (c dateColumn) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*c.t = t
	return nil
}

func dateString(t time.Time) string {
	return t.Format(dateLayout)
}

func scanMember(row rowScanner) (*models.Member, error) {
	m := &models.Member{}
	if err := row.Scan(&m.ID, &m.Name, &m.Address, &m.Phone, dateColumn{&m.JoinedOn}); err != nil {
		return nil, err
	}
	return m, nil
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	l := &models.Loan{}
	var status string
	err := row.Scan(&l.ID, &l.MemberID, &l.Principal, &l.TotalPayable, &l.Outstanding,
		&l.TermDays, &l.RemainingDays, &status, dateColumn{&l.IssuedOn})
	if err != nil {
		return nil, err
	}
	l.Status = models.LoanStatus(status)
	if !l.Status.Valid() {
		return nil, fmt.Errorf("loan %d has unknown status %q", l.ID, status)
	}
	return l, nil
}

func scanInstallment(row rowScanner) (*models.Installment, error) {
	in := &models.Installment{}
	var status string
	err := row.Scan(&in.ID, dateColumn{&in.PaidOn}, &in.LoanID, &in.MemberID, &in.Amount, &in.Outstanding, &status)
	if err != nil {
		return nil, err
	}
	in.Status = models.LoanStatus(status)
	if !in.Status.Valid() {
		return nil, fmt.Errorf("installment %d has unknown status %q", in.ID, status)
	}
	return in, nil
}
