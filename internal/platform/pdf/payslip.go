package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payflow/internal/platform/metrics"
)

type LineItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type Payslip struct {
	CompanyName     string     `json:"companyName"`
	CompanyAddress  string     `json:"companyAddress"`
	EmployeeName    string     `json:"employeeName"`
	EmployeeNumber  string     `json:"employeeNumber"`
	Department      string     `json:"department"`
	Designation     string     `json:"designation"`
	NRC             string     `json:"nrc"`
	TPIN            string     `json:"tpin"`
	AccountNumber   string     `json:"accountNumber"`
	BankName        string     `json:"bankName"`
	Period          string     `json:"period"`
	PaymentDate     string     `json:"paymentDate"`
	BasicSalary     float64    `json:"basicSalary"`
	Allowances      []LineItem `json:"allowances"`
	TotalAllowances float64    `json:"totalAllowances"`
	GrossPay        float64    `json:"grossPay"`
	Deductions      []LineItem `json:"deductions"`
	TotalDeductions float64    `json:"totalDeductions"`
	NetPay          float64    `json:"netPay"`
	CurrencySymbol  string     `json:"currencySymbol"`
}

const (
	pageMargin = 15.0
	pageWidth  = 210.0 - 2*pageMargin
	rowHeight  = 7.0
)

// Render lays out a single A4 payslip and returns the PDF bytes.
func Render(p Payslip) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.ObservePDFRender(time.Since(start)) }()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetTitle("Payslip "+p.Period, true)
	doc.SetCreator("payflow", true)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	writeHeader(doc, tr, p)
	writeEmployeeBlock(doc, tr, p)

	currency := p.CurrencySymbol
	sectionTitle(doc, tr, "EARNINGS")
	amountRow(doc, tr, "Basic Salary", FormatAmount(currency, p.BasicSalary), false)
	for _, item := range p.Allowances {
		amountRow(doc, tr, item.Name, FormatAmount(currency, item.Amount), false)
	}
	if len(p.Allowances) > 0 {
		amountRow(doc, tr, "Total Allowances", FormatAmount(currency, p.TotalAllowances), true)
	}
	amountRow(doc, tr, "GROSS PAY", FormatAmount(currency, p.GrossPay), true)
	doc.Ln(4)

	sectionTitle(doc, tr, "DEDUCTIONS")
	if len(p.Deductions) == 0 {
		amountRow(doc, tr, "No deductions", FormatAmount(currency, 0), false)
	}
	for _, item := range p.Deductions {
		amountRow(doc, tr, item.Name, FormatAmount(currency, item.Amount), false)
	}
	amountRow(doc, tr, "TOTAL DEDUCTIONS", FormatAmount(currency, p.TotalDeductions), true)
	doc.Ln(6)

	doc.SetFillColor(30, 64, 120)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(pageWidth*0.6, 12, tr("  NET PAY"), "", 0, "L", true, 0, "")
	doc.CellFormat(pageWidth*0.4, 12, tr(FormatAmount(currency, p.NetPay)+"  "), "", 1, "R", true, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(10)

	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(110, 110, 110)
	doc.MultiCell(pageWidth, 4, tr("This is a computer-generated payslip and does not require a signature."), "", "C", false)
	doc.MultiCell(pageWidth, 4, tr("Generated on "+time.Now().Format("02 January 2006")), "", "C", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderBulk renders each payslip keyed by employee number, falling back to
// employee_<index>. Failures are logged and skipped.
func RenderBulk(payslips []Payslip) map[string][]byte {
	out := make(map[string][]byte, len(payslips))
	for i, p := range payslips {
		data, err := Render(p)
		if err != nil {
			zap.L().Warn("payslip render failed", zap.String("employee", p.EmployeeName), zap.Error(err))
			continue
		}
		key := strings.TrimSpace(p.EmployeeNumber)
		if key == "" {
			key = "employee_" + strconv.Itoa(i)
		}
		out[key] = data
	}
	return out
}

func writeHeader(doc *gofpdf.Fpdf, tr func(string) string, p Payslip) {
	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(pageWidth, 9, tr(orNA(p.CompanyName)), "", 1, "C", false, 0, "")
	if strings.TrimSpace(p.CompanyAddress) != "" {
		doc.SetFont("Helvetica", "", 9)
		doc.MultiCell(pageWidth, 4.5, tr(p.CompanyAddress), "", "C", false)
	}
	doc.Ln(2)
	y := doc.GetY()
	doc.SetDrawColor(30, 64, 120)
	doc.SetLineWidth(0.6)
	doc.Line(pageMargin, y, pageMargin+pageWidth, y)
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(pageWidth, 8, "PAYSLIP", "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(pageWidth/2, 6, tr("Pay Period: "+orNA(p.Period)), "", 0, "L", false, 0, "")
	doc.CellFormat(pageWidth/2, 6, tr("Payment Date: "+orNA(p.PaymentDate)), "", 1, "R", false, 0, "")
	doc.Ln(3)
}

func writeEmployeeBlock(doc *gofpdf.Fpdf, tr func(string) string, p Payslip) {
	sectionTitle(doc, tr, "EMPLOYEE DETAILS")
	pairs := [][4]string{
		{"Name", p.EmployeeName, "Employee No", p.EmployeeNumber},
		{"Department", p.Department, "Designation", p.Designation},
		{"NRC", p.NRC, "TPIN", p.TPIN},
		{"Bank", p.BankName, "Account No", p.AccountNumber},
	}
	col := pageWidth / 4
	for _, row := range pairs {
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(col*0.8, 6, tr(row[0]+":"), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(col*1.2, 6, tr(orNA(row[1])), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(col*0.8, 6, tr(row[2]+":"), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(col*1.2, 6, tr(orNA(row[3])), "", 1, "L", false, 0, "")
	}
	doc.Ln(4)
}

func sectionTitle(doc *gofpdf.Fpdf, tr func(string) string, title string) {
	doc.SetFillColor(230, 236, 245)
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(pageWidth, rowHeight, tr("  "+title), "", 1, "L", true, 0, "")
}

func amountRow(doc *gofpdf.Fpdf, tr func(string) string, label, amount string, bold bool) {
	style := ""
	border := ""
	if bold {
		style = "B"
		border = "T"
	}
	doc.SetFont("Helvetica", style, 10)
	doc.CellFormat(pageWidth*0.65, rowHeight, tr("  "+label), border, 0, "L", false, 0, "")
	doc.CellFormat(pageWidth*0.35, rowHeight, tr(amount+"  "), border, 1, "R", false, 0, "")
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

// FormatAmount renders 1234567.5 as "K 1,234,567.50".
func FormatAmount(symbol string, value float64) string {
	amount := decimal.NewFromFloat(value).Round(2)
	whole, cents, _ := strings.Cut(amount.Abs().StringFixed(2), ".")
	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	out := grouped.String() + "." + cents
	if amount.IsNegative() {
		out = "-" + out
	}
	if symbol == "" {
		return out
	}
	return symbol + " " + out
}
