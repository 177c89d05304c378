package report

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Exporter pushes computed reports to a Sink
type Exporter struct {
	agg  *Aggregator
	sink Sink
	log  *logrus.Logger
	now  func() time.Time
}

// NewExporter initializes a new exporter
func NewExporter(agg *Aggregator, sink Sink, log *logrus.Logger) *Exporter {
	return &Exporter{agg: agg, sink: sink, log: log, now: time.Now}
}

// SetClock replaces the source of the date stamped into report names
func (e *Exporter) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Exporter) stamp() string {
	return e.now().Format("20060102")
}

// ExportOverdue writes the overdue report. It writes nothing and returns an
// empty location when no loan is overdue.
func (e *Exporter) ExportOverdue(ctx context.Context) (string, error) {
	loans, err := e.agg.OverdueLoans(ctx)
	if err != nil {
		return "", err
	}
	if len(loans) == 0 {
		e.log.Info("No overdue loans to export")
		return "", nil
	}

	location, err := e.sink.Write(ctx, "overdue_"+e.stamp(), []Table{OverdueTable(loans)})
	if err != nil {
		return "", fmt.Errorf("failed to export overdue loans: %w", err)
	}
	e.log.Infof("Exported %d overdue loans to %s", len(loans), location)
	return location, nil
}

// ExportMonthly writes the monthly summary for period (YYYY-MM)
func (e *Exporter) ExportMonthly(ctx context.Context, period string) (string, error) {
	summary, err := e.agg.MonthlySummary(ctx, period)
	if err != nil {
		return "", err
	}

	location, err := e.sink.Write(ctx, "monthly_"+period, []Table{MonthlyTable(summary)})
	if err != nil {
		return "", fmt.Errorf("failed to export monthly summary: %w", err)
	}
	e.log.Infof("Exported monthly summary %s to %s", period, location)
	return location, nil
}

// ExportMember writes one member's loans and installments
func (e *Exporter) ExportMember(ctx context.Context, memberID int64) (string, error) {
	summary, err := e.agg.MemberSummary(ctx, memberID)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("member_%d_%s", memberID, e.stamp())
	location, err := e.sink.Write(ctx, name, MemberTables(summary))
	if err != nil {
		return "", fmt.Errorf("failed to export member %d: %w", memberID, err)
	}
	e.log.Infof("Exported member %d summary to %s", memberID, location)
	return location, nil
}
