package failedpayslips

import "errors"

var (
	ErrFailedPayslipNotFound = errors.New("failed payslip not found")
	ErrFailedPayslipResolved = errors.New("failed payslip is already resolved")
	ErrRetryInProgress       = errors.New("a retry for this payslip is already in progress")
	ErrEmployeeMissing       = errors.New("employee not found")
	ErrNoEmailAddress        = errors.New("employee has no email address")
)
