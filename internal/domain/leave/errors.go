package leave

import "errors"

var (
	ErrRequestNotFound  = errors.New("leave request not found")
	ErrInvalidRequest   = errors.New("invalid leave request")
	ErrNotPending       = errors.New("only pending leave requests can be changed")
	ErrInvalidStatus    = errors.New("status must be approved or rejected")
	ErrEmployeeNotFound = errors.New("employee not found")
)
