package employees_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/employees"
	"payflow/internal/platform/db"
	"payflow/internal/platform/db/dbtest"
)

func newService(t *testing.T) (*employees.Service, *db.DB) {
	t.Helper()
	database := dbtest.Open(t)
	return employees.NewService(employees.NewStore(database)), database
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, employees.Employee{
		Name:       " Jane Phiri ",
		Email:      "Jane@Example.com",
		Department: "Finance",
		Salary:     12000,
		HireDate:   "2024-02-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.Equal(t, employees.StatusActive, created.Status)
	assert.Regexp(t, `^EMP-[0-9A-F]{8}$`, created.EmployeeNumber)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Phiri", got.Name)
	assert.Empty(t, got.PayrollStructureID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	tests := []struct {
		name  string
		input employees.Employee
		field string
	}{
		{name: "missing name", input: employees.Employee{Email: "a@example.com"}, field: "name"},
		{name: "bad email", input: employees.Employee{Name: "A", Email: "not-an-email"}, field: "email"},
		{name: "negative salary", input: employees.Employee{Name: "A", Email: "a@example.com", Salary: -1}, field: "salary"},
		{name: "bad status", input: employees.Employee{Name: "A", Email: "a@example.com", Status: "fired"}, field: "status"},
		{name: "bad hire date", input: employees.Employee{Name: "A", Email: "a@example.com", HireDate: "01/02/2024"}, field: "hireDate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			var verr *employees.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Contains(t, verr.Fields, tc.field)
			assert.ErrorIs(t, err, employees.ErrInvalidEmployee)
		})
	}
}

func TestDuplicateEmailAndUnknownStructure(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, employees.Employee{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, employees.Employee{Name: "B", Email: "A@example.com"})
	assert.ErrorIs(t, err, employees.ErrDuplicateEmail)

	_, err = svc.Create(ctx, employees.Employee{Name: "C", Email: "c@example.com", PayrollStructureID: "nope"})
	assert.ErrorIs(t, err, employees.ErrStructureNotFound)
}

func TestPartialUpdate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, employees.Employee{Name: "A", Email: "a@example.com", Department: "Ops", Salary: 100})
	require.NoError(t, err)

	salary := 250.0
	status := employees.StatusInactive
	updated, err := svc.Update(ctx, created.ID, employees.Update{Salary: &salary, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.Salary)
	assert.Equal(t, employees.StatusInactive, updated.Status)
	assert.Equal(t, "Ops", updated.Department)

	_, err = svc.Update(ctx, "missing", employees.Update{Salary: &salary})
	assert.ErrorIs(t, err, employees.ErrEmployeeNotFound)
}

func TestFindAndCountByDepartment(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, e := range []employees.Employee{
		{Name: "A", Email: "a@example.com", Department: "Finance"},
		{Name: "B", Email: "b@example.com", Department: "Finance", Status: employees.StatusInactive},
		{Name: "C", Email: "c@example.com", Department: "Ops"},
		{Name: "D", Email: "d@example.com"},
	} {
		_, err := svc.Create(ctx, e)
		require.NoError(t, err)
	}

	finance, err := svc.Find(ctx, employees.Filter{Department: "Finance", Status: employees.StatusActive})
	require.NoError(t, err)
	require.Len(t, finance, 1)
	assert.Equal(t, "A", finance[0].Name)

	page, total, err := svc.List(ctx, employees.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 2)

	counts, err := svc.CountByDepartment(ctx, employees.StatusActive)
	require.NoError(t, err)
	assert.ElementsMatch(t, []employees.DepartmentCount{
		{Department: "Unassigned", Count: 1},
		{Department: "Finance", Count: 1},
		{Department: "Ops", Count: 1},
	}, counts)
}

func TestDeleteBlockedByPayrollHistory(t *testing.T) {
	svc, database := newService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, employees.Employee{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	now := db.Now()
	_, err = database.ExecContext(ctx, `INSERT INTO payroll_records (id, period, pay_date, created_at, updated_at) VALUES (?,?,?,?,?)`,
		"rec-1", "January 2026", "2026-01-31", now, now)
	require.NoError(t, err)
	_, err = database.ExecContext(ctx, `INSERT INTO payroll_history (id, payroll_record_id, employee_id, date, created_at) VALUES (?,?,?,?,?)`,
		"hist-1", "rec-1", e.ID, "2026-01-31", now)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, e.ID), employees.ErrEmployeeHasPayroll)

	other, err := svc.Create(ctx, employees.Employee{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, other.ID))
	assert.ErrorIs(t, svc.Delete(ctx, other.ID), employees.ErrEmployeeNotFound)
}
