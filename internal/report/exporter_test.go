package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/coop-ledger/internal/models"
)

type recordingSink struct {
	names  []string
	tables [][]Table
	err    error
}

func (s *recordingSink) Write(_ context.Context, name string, tables []Table) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.names = append(s.names, name)
	s.tables = append(s.tables, tables)
	return "mem://" + name, nil
}

func newExporter(f *fixture, sink Sink) *Exporter {
	e := NewExporter(f.agg, sink, quietLogger())
	e.SetClock(func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) })
	return e
}

func TestExportMonthly(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	sink := &recordingSink{}

	location, err := newExporter(f, sink).ExportMonthly(context.Background(), "2026-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if location != "mem://monthly_2026-10" {
		t.Errorf("location: got %q", location)
	}
	if len(sink.tables) != 1 || sink.tables[0][0].Sheet != "Monthly Summary" {
		t.Errorf("tables: got %+v", sink.tables)
	}
}

func TestExportMember(t *testing.T) {
	f := newFixture(t)
	a, _ := f.seed(t)
	sink := &recordingSink{}
	e := newExporter(f, sink)

	location, err := e.ExportMember(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if location != "mem://member_1_20261019" {
		t.Errorf("location: got %q", location)
	}
	if len(sink.tables[0]) != 3 {
		t.Errorf("got %d sheets, want 3", len(sink.tables[0]))
	}

	if _, err := e.ExportMember(context.Background(), 404); !errors.Is(err, models.ErrMemberNotFound) {
		t.Errorf("got %v, want ErrMemberNotFound", err)
	}
}

func TestExportOverdueSkipsEmptyReport(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	sink := &recordingSink{}

	location, err := newExporter(f, sink).ExportOverdue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if location != "" || len(sink.names) != 0 {
		t.Errorf("expected no export, got %q and %v", location, sink.names)
	}
}

func TestExportSurfacesSinkFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	boom := errors.New("disk full")

	_, err := newExporter(f, &recordingSink{err: boom}).ExportMonthly(context.Background(), "2026-09")
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped sink error", err)
	}
}
