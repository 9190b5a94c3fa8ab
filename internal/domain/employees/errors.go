package employees

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDuplicateEmail     = errors.New("an employee with this email already exists")
	ErrDuplicateNumber    = errors.New("an employee with this employee number already exists")
	ErrEmployeeHasPayroll = errors.New("employee has payroll history; set status to inactive instead")
	ErrStructureNotFound  = errors.New("payroll structure not found")
	ErrInvalidEmployee    = errors.New("invalid employee")
)

// ValidationError lists field problems found before touching the store.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid employee"
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEmployee
}
