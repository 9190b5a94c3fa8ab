package employeeshandler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"payflow/internal/domain/auth"
	"payflow/internal/domain/employees"
)

func TestFilterFieldsByRole(t *testing.T) {
	emp := employees.Employee{
		Name:          "Jane Phiri",
		Salary:        10000,
		NationalID:    "123456/10/1",
		TaxNumber:     "1000000001",
		BankName:      "Zanaco",
		AccountNumber: "0011223344",
	}

	for _, role := range []string{auth.RoleAdmin, auth.RoleManager} {
		got := filterFields(emp, auth.UserContext{Role: role})
		assert.Equal(t, emp, got, role)
	}

	got := filterFields(emp, auth.UserContext{Role: auth.RoleUser})
	assert.Empty(t, got.NationalID)
	assert.Empty(t, got.TaxNumber)
	assert.Empty(t, got.BankName)
	assert.Empty(t, got.AccountNumber)
	assert.Equal(t, "Jane Phiri", got.Name)
	assert.Equal(t, 10000.0, got.Salary)

	list := filterAll([]employees.Employee{emp, emp}, auth.UserContext{Role: auth.RoleUser})
	assert.Len(t, list, 2)
	assert.Empty(t, list[1].AccountNumber)
	assert.Equal(t, "0011223344", emp.AccountNumber)
}
