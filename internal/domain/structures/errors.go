package structures

import "errors"

var (
	ErrStructureNotFound = errors.New("payroll structure not found")
	ErrComponentNotFound = errors.New("payroll component not found")
	ErrInvalidComponent  = errors.New("invalid payroll component")
	ErrInvalidStructure  = errors.New("invalid payroll structure")
)
