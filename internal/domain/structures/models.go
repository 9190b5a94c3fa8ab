package structures

import "time"

const (
	TypeFixed      = "fixed"
	TypePercentage = "percentage"
)

// Kind selects the component table: allowances add to gross pay,
// deductions subtract from it.
type Kind string

const (
	KindAllowance Kind = "allowance"
	KindDeduction Kind = "deduction"
)

func (k Kind) table() string {
	if k == KindDeduction {
		return "deductions"
	}
	return "allowances"
}

type Component struct {
	ID                 string    `json:"id"`
	PayrollStructureID string    `json:"payrollStructureId"`
	Name               string    `json:"name"`
	Amount             float64   `json:"amount"`
	Type               string    `json:"type"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Structure struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Allowances  []Component `json:"allowances"`
	Deductions  []Component `json:"deductions"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type StructureInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Allowances  []ComponentInput `json:"allowances"`
	Deductions  []ComponentInput `json:"deductions"`
}

type ComponentInput struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}
