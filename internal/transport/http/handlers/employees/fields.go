package employeeshandler

import (
	"payflow/internal/domain/auth"
	"payflow/internal/domain/employees"
)

// filterFields blanks identity and bank details for roles that cannot edit
// employees. Salary stays visible since payroll views need it.
func filterFields(e employees.Employee, user auth.UserContext) employees.Employee {
	if user.Role == auth.RoleAdmin || user.Role == auth.RoleManager {
		return e
	}
	e.NationalID = ""
	e.TaxNumber = ""
	e.BankName = ""
	e.AccountNumber = ""
	return e
}

func filterAll(list []employees.Employee, user auth.UserContext) []employees.Employee {
	out := make([]employees.Employee, len(list))
	for i, e := range list {
		out[i] = filterFields(e, user)
	}
	return out
}
