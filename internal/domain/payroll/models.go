package payroll

import "time"

// Item is one computed allowance or deduction on a payslip. Rate carries the
// percentage for percentage components.
type Item struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Rate   float64 `json:"rate,omitempty"`
	Amount float64 `json:"amount"`
}

type Record struct {
	ID              string         `json:"id"`
	Period          string         `json:"period"`
	PayDate         string         `json:"payDate"`
	Status          string         `json:"status"`
	TotalGross      float64        `json:"totalGross"`
	TotalDeductions float64        `json:"totalDeductions"`
	TotalNet        float64        `json:"totalNet"`
	EmployeeCount   int            `json:"employeeCount"`
	CreatedBy       string         `json:"createdBy,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	Items           []HistoryItem  `json:"items,omitempty"`
	Warnings        map[string]int `json:"warnings,omitempty"`
}

type HistoryItem struct {
	ID              string     `json:"id"`
	PayrollRecordID string     `json:"payrollRecordId"`
	EmployeeID      string     `json:"employeeId"`
	EmployeeName    string     `json:"employeeName"`
	Period          string     `json:"period,omitempty"`
	Date            string     `json:"date"`
	BasicSalary     float64    `json:"basicSalary"`
	Allowances      []Item     `json:"allowances"`
	Deductions      []Item     `json:"deductions"`
	TotalAllowances float64    `json:"totalAllowances"`
	TotalDeductions float64    `json:"totalDeductions"`
	GrossPay        float64    `json:"grossPay"`
	NetPay          float64    `json:"netPay"`
	Warnings        []string   `json:"warnings"`
	EmailStatus     string     `json:"emailStatus"`
	EmailError      string     `json:"emailError,omitempty"`
	EmailSentAt     *time.Time `json:"emailSentAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type GenerateInput struct {
	Period      string   `json:"period"`
	PayDate     string   `json:"payDate"`
	EmployeeIDs []string `json:"employeeIds"`
	CreatedBy   string   `json:"-"`
}

type RecordFilter struct {
	Status string
	Limit  int
	Offset int
}

// RegisterRow is one line of the exported payroll register.
type RegisterRow struct {
	EmployeeNumber  string
	EmployeeName    string
	Department      string
	BasicSalary     float64
	TotalAllowances float64
	GrossPay        float64
	TotalDeductions float64
	NetPay          float64
	EmailStatus     string
}
