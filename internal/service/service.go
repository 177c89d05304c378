package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/coop-ledger/internal/loan"
	"github.com/Dan9191/coop-ledger/internal/models"
	"github.com/Dan9191/coop-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service handles member intake, loan issuance and installment recording
type Service struct {
	repo   repository.Store
	policy loan.Policy
	log    *logrus.Logger
	now    func() time.Time
}

// NewService initializes a new service
func NewService(repo repository.Store, policy loan.Policy, log *logrus.Logger) *Service {
	return &Service{repo: repo, policy: policy, log: log, now: time.Now}
}

// SetClock replaces the source of the current date
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Policy returns the lending rules in force
func (s *Service) Policy() loan.Policy {
	return s.policy
}

func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMember registers a new member joining today
func (s *Service) AddMember(ctx context.Context, name, address, phone string) (*models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidMember)
	}

	member := &models.Member{
		Name:     name,
		Address:  strings.TrimSpace(address),
		Phone:    strings.TrimSpace(phone),
		JoinedOn: s.today(),
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, err
	}

	s.log.Infof("Member added: %d %s", member.ID, member.Name)
	return member, nil
}

// IssueLoan issues a loan to an existing member
func (s *Service) IssueLoan(ctx context.Context, memberID int64, principal decimal.Decimal, termDays int) (*models.Loan, error) {
	if _, err := s.repo.GetMember(ctx, memberID); err != nil {
		return nil, err
	}

	terms, err := s.policy.Issue(principal, termDays)
	if err != nil {
		return nil, err
	}

	l := &models.Loan{
		MemberID:      memberID,
		Principal:     principal,
		TotalPayable:  terms.TotalPayable,
		Outstanding:   terms.Balance,
		TermDays:      termDays,
		RemainingDays: termDays,
		Status:        terms.Status,
		IssuedOn:      s.today(),
	}
	if err := s.repo.CreateLoan(ctx, l); err != nil {
		return nil, err
	}

	s.log.Infof("Loan issued: %d to member %d, principal %s + interest = %s, term %d days",
		l.ID, memberID, principal.StringFixed(0), l.TotalPayable.StringFixed(0), termDays)
	return l, nil
}

// RecordPayment applies a payment to a loan and appends the installment.
// The loan update and the installment are committed together or not at all.
func (s *Service) RecordPayment(ctx context.Context, loanID int64, amount decimal.Decimal) (*models.Installment, error) {
	var (
		installment *models.Installment
		remaining   int
	)
	err := s.repo.WithTx(ctx, func(tx repository.Store) error {
		l, err := tx.GetLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}

		out, err := loan.ApplyPayment(l.Outstanding, l.RemainingDays, amount)
		if err != nil {
			return err
		}

		l.Outstanding = out.Balance
		l.RemainingDays = out.RemainingDays
		l.Status = out.Status
		remaining = out.RemainingDays
		if err := tx.UpdateLoan(ctx, l); err != nil {
			return err
		}

		installment = &models.Installment{
			PaidOn:      s.today(),
			LoanID:      l.ID,
			MemberID:    l.MemberID,
			Amount:      amount,
			Outstanding: out.Balance,
			Status:      out.Status,
		}
		return tx.CreateInstallment(ctx, installment)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Installment recorded: loan %d paid %s, outstanding %s, %d days left, status %s",
		loanID, amount.StringFixed(0), installment.Outstanding.StringFixed(0), remaining, installment.Status)
	return installment, nil
}

// GetMember returns one member
func (s *Service) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	return s.repo.GetMember(ctx, memberID)
}

// ListMembers returns every member in intake order
func (s *Service) ListMembers(ctx context.Context) ([]models.Member, error) {
	return s.repo.ListMembers(ctx)
}

// GetLoan returns one loan with its warning
func (s *Service) GetLoan(ctx context.Context, loanID int64) (*models.LoanView, error) {
	l, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	view := s.policy.View(*l)
	return &view, nil
}

// ListLoans returns every loan in issue order with its warning
func (s *Service) ListLoans(ctx context.Context) ([]models.LoanView, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	return s.policy.Views(loans), nil
}

// ListInstallments returns every installment in recording order
func (s *Service) ListInstallments(ctx context.Context) ([]models.Installment, error) {
	return s.repo.ListInstallments(ctx)
}

// ListLoanInstallments returns the installments paid against one loan
func (s *Service) ListLoanInstallments(ctx context.Context, loanID int64) ([]models.Installment, error) {
	if _, err := s.repo.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.repo.ListInstallmentsByLoan(ctx, loanID)
}
