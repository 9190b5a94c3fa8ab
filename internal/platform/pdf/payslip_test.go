package pdf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayslip() Payslip {
	return Payslip{
		CompanyName:     "Acme Ltd",
		CompanyAddress:  "Plot 12, Cairo Road, Lusaka",
		EmployeeName:    "Jane Phiri",
		EmployeeNumber:  "EMP-001",
		Department:      "Finance",
		Designation:     "Accountant",
		Period:          "January 2026",
		PaymentDate:     "2026-01-31",
		BasicSalary:     10000,
		Allowances:      []LineItem{{Name: "Housing", Amount: 2000}},
		TotalAllowances: 2000,
		GrossPay:        12000,
		Deductions:      []LineItem{{Name: "NAPSA", Amount: 500}},
		TotalDeductions: 500,
		NetPay:          11500,
		CurrencySymbol:  "K",
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(samplePayslip())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Greater(t, len(out), 1000)
}

func TestRenderWithMissingDetails(t *testing.T) {
	out, err := Render(Payslip{EmployeeName: "No Details", Period: "March 2026"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderBulkKeys(t *testing.T) {
	withNumber := samplePayslip()
	withoutNumber := samplePayslip()
	withoutNumber.EmployeeNumber = ""

	out := RenderBulk([]Payslip{withNumber, withoutNumber})
	require.Len(t, out, 2)
	assert.Contains(t, out, "EMP-001")
	assert.Contains(t, out, "employee_1")
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		symbol string
		value  float64
		want   string
	}{
		{symbol: "K", value: 0, want: "K 0.00"},
		{symbol: "K", value: 999.5, want: "K 999.50"},
		{symbol: "K", value: 1234567.891, want: "K 1,234,567.89"},
		{symbol: "", value: 1000, want: "1,000.00"},
		{symbol: "K", value: -2500.25, want: "K -2,500.25"},
		{symbol: "K", value: 1.005, want: "K 1.01"},
		{symbol: "K", value: -0.001, want: "K 0.00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatAmount(tc.symbol, tc.value))
	}
}
