package employees

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Employee struct {
	ID                 string    `json:"id"`
	EmployeeNumber     string    `json:"employeeNumber"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Department         string    `json:"department"`
	Position           string    `json:"position"`
	HireDate           string    `json:"hireDate"`
	Salary             float64   `json:"salary"`
	Status             string    `json:"status"`
	PayrollStructureID string    `json:"payrollStructureId,omitempty"`
	NationalID         string    `json:"nationalId"`
	TaxNumber          string    `json:"taxNumber"`
	BankName           string    `json:"bankName"`
	AccountNumber      string    `json:"accountNumber"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Update carries a partial change; nil fields are left untouched. An empty
// PayrollStructureID detaches the employee from its structure.
type Update struct {
	EmployeeNumber     *string  `json:"employeeNumber"`
	Name               *string  `json:"name"`
	Email              *string  `json:"email"`
	Phone              *string  `json:"phone"`
	Department         *string  `json:"department"`
	Position           *string  `json:"position"`
	HireDate           *string  `json:"hireDate"`
	Salary             *float64 `json:"salary"`
	Status             *string  `json:"status"`
	PayrollStructureID *string  `json:"payrollStructureId"`
	NationalID         *string  `json:"nationalId"`
	TaxNumber          *string  `json:"taxNumber"`
	BankName           *string  `json:"bankName"`
	AccountNumber      *string  `json:"accountNumber"`
}

type Filter struct {
	Department         string
	Status             string
	PayrollStructureID string
	Search             string
	IDs                []string
	Limit              int
	Offset             int
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}
