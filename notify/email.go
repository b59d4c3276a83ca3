// Package notify delivers email notifications: enrollment decisions to
// guardians and the daily overdue digest to the administrator. Delivery is
// best-effort; callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/vanline/transport/enrollment"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Sender sends notifications through an SMTP relay.
type Sender struct {
	cfg SMTPConfig
	log *logrus.Logger
}

func NewSender(cfg SMTPConfig, log *logrus.Logger) *Sender {
	return &Sender{cfg: cfg, log: log}
}

// RequestApproved notifies a guardian that enrollment was approved.
func (s *Sender) RequestApproved(_ context.Context, to, guardianName string, students []string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your school transport enrollment request has been approved for: %s.\n"+
			"The signed contract and the monthly payment schedule are available with the administrator.\n"+
			"\nBest regards,\nSchool Van Transport",
		guardianName, strings.Join(students, ", "),
	)
	return s.send(to, "Transport enrollment approved", body)
}

// RequestRejected notifies a guardian that enrollment was rejected.
func (s *Sender) RequestRejected(_ context.Context, to, guardianName string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Unfortunately your school transport enrollment request was not approved.\n"+
			"Please contact the administrator for details.\n"+
			"\nBest regards,\nSchool Van Transport",
		guardianName,
	)
	return s.send(to, "Transport enrollment update", body)
}

// OverdueDigest sends the administrator a summary of currently overdue
// installments. Informational only; no installment state changes here.
func (s *Sender) OverdueDigest(_ context.Context, to string, items []enrollment.OverdueItem) error {
	if len(items) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "There are %d overdue installments today:\n\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (guardian %s): installment %d for %s, due %s, amount %s, late fee %s\n",
			it.StudentName, it.Guardian, it.Sequence, it.Period, it.DueDate, it.Amount, it.LateFee)
	}
	b.WriteString("\nSchool Van Transport")

	return s.send(to, fmt.Sprintf("Overdue installments: %d", len(items)), b.String())
}

func (s *Sender) send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := e.Send(addr, auth); err != nil {
		s.log.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Infof("Email sent to %s: %s", to, subject)
	return nil
}

// Noop drops all notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) RequestApproved(context.Context, string, string, []string) error { return nil }
func (Noop) RequestRejected(context.Context, string, string) error           { return nil }
func (Noop) OverdueDigest(context.Context, string, []enrollment.OverdueItem) error {
	return nil
}
