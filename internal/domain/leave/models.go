package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Request struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	LeaveType  string    `json:"leaveType"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	Days       float64   `json:"days"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	DecidedBy  string    `json:"decidedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Update carries the editable fields of a pending request.
type Update struct {
	LeaveType *string  `json:"leaveType"`
	StartDate *string  `json:"startDate"`
	EndDate   *string  `json:"endDate"`
	Days      *float64 `json:"days"`
	Reason    *string  `json:"reason"`
}

type Filter struct {
	Status     string
	EmployeeID string
	Limit      int
	Offset     int
}
