package payroll

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

var registerHeader = []string{
	"employee_number", "employee_name", "department", "basic_salary", "total_allowances",
	"gross_pay", "total_deductions", "net_pay", "email_status",
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExportRegister writes the record's payroll register as CSV, one row per
// employee followed by a totals row.
func (s *Service) ExportRegister(ctx context.Context, recordID string, w io.Writer) error {
	rec, err := s.Store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	rows, err := s.Store.RegisterRows(ctx, recordID)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(registerHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.EmployeeNumber,
			row.EmployeeName,
			row.Department,
			money(row.BasicSalary),
			money(row.TotalAllowances),
			money(row.GrossPay),
			money(row.TotalDeductions),
			money(row.NetPay),
			row.EmailStatus,
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{
		"", "TOTAL", "", "", "", money(rec.TotalGross), money(rec.TotalDeductions), money(rec.TotalNet), "",
	}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
