package auth

import (
	"context"
	"slices"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

var Roles = []string{RoleAdmin, RoleManager, RoleUser}

const (
	PermEmployeesRead  = "employees.read"
	PermEmployeesWrite = "employees.write"
	PermPayrollRead    = "payroll.read"
	PermPayrollWrite   = "payroll.write"
	PermPayslipsSend   = "payslips.send"
	PermLeaveRead      = "leave.read"
	PermLeaveWrite     = "leave.write"
	PermLeaveApprove   = "leave.approve"
	PermSettingsRead   = "settings.read"
	PermSettingsWrite  = "settings.write"
	PermEmailConfigure = "email.configure"
	PermReportsRead    = "reports.read"
	PermUsersManage    = "users.manage"
	PermAuditRead      = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermPayslipsSend,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermSettingsRead,
	PermSettingsWrite,
	PermEmailConfigure,
	PermReportsRead,
	PermUsersManage,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleAdmin: DefaultPermissions,
	RoleManager: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermPayslipsSend,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermSettingsRead,
		PermReportsRead,
	},
	RoleUser: {
		PermEmployeesRead,
		PermPayrollRead,
		PermLeaveRead,
		PermSettingsRead,
		PermReportsRead,
	},
}

func ValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

// StaticPermissions resolves permissions from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return slices.Contains(RolePermissions[role], permission), nil
}
