package failedpayslips

import (
	"encoding/json"
	"time"
)

const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
)

type FailedPayslip struct {
	ID              string          `json:"id"`
	PayrollRecordID string          `json:"payrollRecordId"`
	EmployeeID      string          `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	EmployeeEmail   string          `json:"employeeEmail"`
	EmployeeNumber  string          `json:"employeeNumber"`
	Period          string          `json:"period"`
	NetSalary       float64         `json:"netSalary"`
	ErrorMessage    string          `json:"errorMessage"`
	RetryCount      int             `json:"retryCount"`
	LastRetryAt     *time.Time      `json:"lastRetryAt,omitempty"`
	PayslipData     json.RawMessage `json:"payslipData"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type Filter struct {
	Status          string
	EmployeeID      string
	PayrollRecordID string
	Limit           int
	Offset          int
}

type RetryError struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Error string `json:"error"`
}

type RetrySummary struct {
	Attempted int          `json:"attempted"`
	Resolved  int          `json:"resolved"`
	Failed    int          `json:"failed"`
	Errors    []RetryError `json:"errors"`
}
