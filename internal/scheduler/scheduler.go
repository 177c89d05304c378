// Package scheduler runs the periodic ledger jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/coop-ledger/internal/export"
	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/Dan9191/coop-ledger/internal/notify"
	"github.com/Dan9191/coop-ledger/internal/report"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = time.Minute

// Notifier delivers the overdue digest
type Notifier interface {
	Enabled() bool
	SendOverdueDigest(loans []models.LoanView, asOf time.Time, attachment *notify.Attachment) error
}

// OverdueScan lists overdue loans and mails them to the operator
type OverdueScan struct {
	agg      *report.Aggregator
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

var _ cron.Job = (*OverdueScan)(nil)

// NewOverdueScan initializes the overdue scan job
func NewOverdueScan(agg *report.Aggregator, notifier Notifier, log *logrus.Logger) *OverdueScan {
	return &OverdueScan{agg: agg, notifier: notifier, log: log, now: time.Now}
}

// Run implements cron.Job. Failures are logged and the next tick retries.
func (j *OverdueScan) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := j.Scan(ctx); err != nil {
		j.log.Errorf("Overdue scan failed: %v", err)
	}
}

// Scan performs one pass
func (j *OverdueScan) Scan(ctx context.Context) error {
	loans, err := j.agg.OverdueLoans(ctx)
	if err != nil {
		return err
	}
	if len(loans) == 0 {
		j.log.Debug("Overdue scan: no overdue loans")
		return nil
	}

	asOf := j.now()
	if !j.notifier.Enabled() {
		j.log.Warnf("Overdue scan: %d overdue loans, mail delivery disabled", len(loans))
		return nil
	}

	workbook, err := export.Encode([]report.Table{report.OverdueTable(loans)})
	if err != nil {
		return err
	}
	attachment := &notify.Attachment{
		Filename:    fmt.Sprintf("overdue_%s%s", asOf.Format("20060102"), export.Extension),
		ContentType: export.ContentType,
		Content:     workbook,
	}
	if err := j.notifier.SendOverdueDigest(loans, asOf, attachment); err != nil {
		return err
	}

	j.log.Infof("Overdue scan: digest with %d loans sent", len(loans))
	return nil
}

// Start schedules job on spec (standard 5-field cron syntax) and starts the scheduler
func Start(spec string, job cron.Job, log *logrus.Logger) (*cron.Cron, error) {
	logger := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()
	log.Infof("Scheduler started: overdue scan at %q", spec)
	return c, nil
}
