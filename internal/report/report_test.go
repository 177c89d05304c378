package report

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/coop-ledger/internal/loan"
	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/Dan9191/coop-ledger/internal/repository"
	"github.com/Dan9191/coop-ledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fixture struct {
	repo  *repository.Repository
	svc   *service.Service
	agg   *Aggregator
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo, err := repository.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{repo: repo}
	f.svc = service.NewService(repo, loan.DefaultPolicy(), quietLogger())
	f.svc.SetClock(func() time.Time { return f.clock })
	f.agg = NewAggregator(repo, loan.DefaultPolicy())
	return f
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func (f *fixture) on(date string) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	f.clock = t
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seed builds two members with loans and payments spread over September and October 2026
func (f *fixture) seed(t *testing.T) (a, b *models.Member) {
	t.Helper()
	ctx := context.Background()
	var err error

	f.on("2026-09-10")
	if a, err = f.svc.AddMember(ctx, "Ani", "", ""); err != nil {
		t.Fatal(err)
	}
	if b, err = f.svc.AddMember(ctx, "Budi", "", ""); err != nil {
		t.Fatal(err)
	}
	l1, err := f.svc.IssueLoan(ctx, a.ID, d("1000"), 30) // 1200
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordPayment(ctx, l1.ID, d("100")); err != nil {
		t.Fatal(err)
	}

	f.on("2026-10-01")
	l2, err := f.svc.IssueLoan(ctx, b.ID, d("500"), 24) // 600
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.RecordPayment(ctx, l1.ID, d("50")); err != nil {
		t.Fatal(err)
	}

	f.on("2026-10-31")
	if _, err := f.svc.IssueLoan(ctx, a.ID, d("2000"), 30); err != nil { // 2400
		t.Fatal(err)
	}
	if _, err := f.svc.RecordPayment(ctx, l2.ID, d("25.50")); err != nil {
		t.Fatal(err)
	}
	return a, b
}

func TestParsePeriod(t *testing.T) {
	from, to, err := ParsePeriod("2026-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got [%v, %v)", from, to)
	}

	for _, bad := range []string{"", "2026", "2026-13", "2026-1", "26-10", "2026-10-01", "october"} {
		if _, _, err := ParsePeriod(bad); !errors.Is(err, models.ErrInvalidPeriod) {
			t.Errorf("%q: got %v, want ErrInvalidPeriod", bad, err)
		}
	}
}

func TestMonthlySummary(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	// outstanding: 1200-150 + 600-25.50 + 2400
	tests := []struct {
		period    string
		issued    string
		collected string
	}{
		{"2026-09", "1200", "100"},
		{"2026-10", "3000", "75.50"},
		{"2026-11", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := f.agg.MonthlySummary(ctx, tt.period)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.TotalIssued.Equal(d(tt.issued)) {
				t.Errorf("TotalIssued: got %s, want %s", got.TotalIssued, tt.issued)
			}
			if !got.TotalCollected.Equal(d(tt.collected)) {
				t.Errorf("TotalCollected: got %s, want %s", got.TotalCollected, tt.collected)
			}
			if !got.TotalOutstanding.Equal(d("4024.50")) {
				t.Errorf("TotalOutstanding: got %s, want 4024.50", got.TotalOutstanding)
			}
		})
	}
}

func TestMonthlySummaryOnEmptyLedger(t *testing.T) {
	f := newFixture(t)
	got, err := f.agg.MonthlySummary(context.Background(), "2026-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.TotalIssued.IsZero() || !got.TotalCollected.IsZero() || !got.TotalOutstanding.IsZero() {
		t.Errorf("got %+v, want all zero", got)
	}
	if _, err := f.agg.MonthlySummary(context.Background(), "10-2026"); !errors.Is(err, models.ErrInvalidPeriod) {
		t.Errorf("got %v, want ErrInvalidPeriod", err)
	}
}

func TestMemberSummary(t *testing.T) {
	f := newFixture(t)
	a, b := f.seed(t)
	ctx := context.Background()

	got, err := f.agg.MemberSummary(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Member.Name != "Ani" || len(got.Loans) != 2 || len(got.Installments) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.Loans[0].ID > got.Loans[1].ID {
		t.Errorf("loans out of order: %+v", got.Loans)
	}

	got, err = f.agg.MemberSummary(ctx, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Loans) != 1 || len(got.Installments) != 1 || !got.Installments[0].Amount.Equal(d("25.50")) {
		t.Errorf("got %+v", got)
	}

	if _, err := f.agg.MemberSummary(ctx, 99); !errors.Is(err, models.ErrMemberNotFound) {
		t.Errorf("got %v, want ErrMemberNotFound", err)
	}
}

func TestOverdueLoans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.on("2026-10-01")
	m, err := f.svc.AddMember(ctx, "Citra", "", "")
	if err != nil {
		t.Fatal(err)
	}
	late, err := f.svc.IssueLoan(ctx, m.ID, d("100"), 24)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.IssueLoan(ctx, m.ID, d("100"), 24); err != nil {
		t.Fatal(err)
	}

	none, err := f.agg.OverdueLoans(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d overdue loans, want 0", len(none))
	}

	for i := 0; i < 24; i++ {
		if _, err := f.svc.RecordPayment(ctx, late.ID, d("1")); err != nil {
			t.Fatal(err)
		}
	}
	overdue, err := f.agg.OverdueLoans(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID || overdue[0].Warning != models.WarningOverdue {
		t.Errorf("got %+v", overdue)
	}
}

func TestTables(t *testing.T) {
	summary := &models.MonthlySummary{Period: "2026-10", TotalIssued: d("1"), TotalCollected: d("2"), TotalOutstanding: d("3")}
	mt := MonthlyTable(summary)
	if mt.Sheet != "Monthly Summary" || len(mt.Rows) != 1 || len(mt.Rows[0]) != len(mt.Header) {
		t.Errorf("monthly table: got %+v", mt)
	}

	ms := &models.MemberSummary{
		Member:       models.Member{ID: 1, Name: "Ani"},
		Loans:        []models.LoanView{{Loan: models.Loan{ID: 4, Status: models.LoanUnpaid}}},
		Installments: []models.Installment{{ID: 9}, {ID: 10}},
	}
	tables := MemberTables(ms)
	if len(tables) != 3 {
		t.Fatalf("got %d tables, want 3", len(tables))
	}
	wantRows := map[string]int{"Member": 1, "Loans": 1, "Installments": 2}
	for _, tbl := range tables {
		if len(tbl.Rows) != wantRows[tbl.Sheet] {
			t.Errorf("%s: got %d rows, want %d", tbl.Sheet, len(tbl.Rows), wantRows[tbl.Sheet])
		}
		for _, row := range tbl.Rows {
			if len(row) != len(tbl.Header) {
				t.Errorf("%s: row width %d, header width %d", tbl.Sheet, len(row), len(tbl.Header))
			}
		}
	}
}
