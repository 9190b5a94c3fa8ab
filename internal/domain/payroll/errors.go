package payroll

import "errors"

var (
	ErrRecordNotFound       = errors.New("payroll record not found")
	ErrHistoryNotFound      = errors.New("payroll history item not found")
	ErrNoEmployees          = errors.New("no active employees to include in payroll")
	ErrRecordCompleted      = errors.New("payroll record is already completed")
	ErrInvalidRecord        = errors.New("invalid payroll record")
	ErrInvalidEmailStatus   = errors.New("email status must be sent or failed")
	ErrCompleteInvalidState = errors.New("only draft payroll records can be completed")
)
