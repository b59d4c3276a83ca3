/*
reminder.go - Scheduled overdue digest

PURPOSE:
  Runs a daily cron job that collects every currently overdue installment
  and emails a digest to the administrator. Notification only: the job
  never writes installment status, which stays a read-time projection.
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vanline/transport/enrollment"
)

// Digester delivers the overdue digest.
type Digester interface {
	OverdueDigest(ctx context.Context, to string, items []enrollment.OverdueItem) error
}

// Reminder schedules the daily overdue digest.
type Reminder struct {
	service  *enrollment.Service
	digester Digester
	to       string
	spec     string
	log      *logrus.Logger

	cron *cron.Cron
}

// NewReminder creates a reminder job. spec is a standard 5-field cron
// expression, e.g. "0 8 * * *" for 8:00 every day.
func NewReminder(service *enrollment.Service, digester Digester, to, spec string, log *logrus.Logger) *Reminder {
	return &Reminder{
		service:  service,
		digester: digester,
		to:       to,
		spec:     spec,
		log:      log,
	}
}

// Start registers and starts the cron schedule.
func (r *Reminder) Start() error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, r.run); err != nil {
		return err
	}
	r.cron.Start()
	r.log.WithField("schedule", r.spec).Info("overdue reminder scheduled")
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (r *Reminder) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	items, err := r.service.Overdue(ctx)
	if err != nil {
		r.log.WithError(err).Error("overdue scan failed")
		return
	}
	if len(items) == 0 {
		r.log.Debug("no overdue installments, digest skipped")
		return
	}

	if err := r.digester.OverdueDigest(ctx, r.to, items); err != nil {
		r.log.WithError(err).Error("overdue digest not delivered")
		return
	}
	r.log.WithField("overdue", len(items)).Info("overdue digest sent")
}
