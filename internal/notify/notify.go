package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/coop-ledger/internal/config"
	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Attachment is a file attached to a notification
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   sendFunc
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Enabled reports whether SMTP delivery is configured
func (s *Sender) Enabled() bool {
	return s.cfg.MailEnabled()
}

// SendOverdueDigest mails the operator the list of overdue loans
func (s *Sender) SendOverdueDigest(loans []models.LoanView, asOf time.Time, attachment *Attachment) error {
	if !s.Enabled() {
		return fmt.Errorf("mail delivery is not configured")
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.OperatorEmail}
	e.Subject = fmt.Sprintf("Overdue Loans Report %s: %d overdue", asOf.Format("2006-01-02"), len(loans))
	e.Text = []byte(digestBody(loans, asOf))

	if attachment != nil {
		if _, err := e.Attach(bytes.NewReader(attachment.Content), attachment.Filename, attachment.ContentType); err != nil {
			return fmt.Errorf("failed to attach %s: %w", attachment.Filename, err)
		}
	}

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send overdue digest to %s: %v", s.cfg.OperatorEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.OperatorEmail, e.Subject)
	return nil
}

func digestBody(loans []models.LoanView, asOf time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overdue loans as of %s:\n\n", asOf.Format("2006-01-02"))
	for _, l := range loans {
		fmt.Fprintf(&b, "- Loan %d (member %d): outstanding Rp %s of Rp %s, term %d days\n",
			l.ID, l.MemberID, l.Outstanding.StringFixed(0), l.TotalPayable.StringFixed(0), l.TermDays)
	}
	b.WriteString("\nThe full list is attached.\n\nCooperative Ledger")
	return b.String()
}
