package models

import "errors"

// Error kinds surfaced by the ledger. Callers match them with errors.Is.
var (
	ErrInvalidMember        = errors.New("invalid member")
	ErrMemberNotFound       = errors.New("member not found")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrInvalidLoanTerms     = errors.New("invalid loan terms")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrStorageFailure       = errors.New("storage failure")
)

// IsNotFound returns true if err is a member or loan lookup miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) || errors.Is(err, ErrLoanNotFound)
}

// IsInvalidInput returns true if err was caused by caller-supplied values
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidMember) ||
		errors.Is(err, ErrInvalidLoanTerms) ||
		errors.Is(err, ErrInvalidPaymentAmount) ||
		errors.Is(err, ErrInvalidPeriod)
}
