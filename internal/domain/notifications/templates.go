package notifications

import (
	"bytes"
	htmltemplate "html/template"
	"io"
	"regexp"
	texttemplate "text/template"
)

var whitespace = regexp.MustCompile(`\s+`)

// AttachmentName turns "January 2026" into "Payslip_January_2026.pdf".
func AttachmentName(period string) string {
	return "Payslip_" + whitespace.ReplaceAllString(period, "_") + ".pdf"
}

type payslipView struct {
	EmployeeName  string
	Period        string
	NetSalary     string
	HasAttachment bool
}

type testView struct {
	Host   string
	Port   int
	Secure bool
	From   string
}

var payslipHTML = htmltemplate.Must(htmltemplate.New("payslip").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background-color: #4F46E5; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
  .content { background-color: #f9fafb; padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 5px 5px; }
  .info-box { background-color: white; padding: 15px; margin: 20px 0; border-radius: 5px; border-left: 4px solid #4F46E5; }
  .footer { text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #6b7280; font-size: 12px; }
  .amount { font-size: 24px; font-weight: bold; color: #4F46E5; }
</style>
</head>
<body>
  <div class="header"><h1>Payslip Notification</h1></div>
  <div class="content">
    <p>Dear {{.EmployeeName}},</p>
    <p>Your payslip for <strong>{{.Period}}</strong> is now available.</p>
    <div class="info-box">
      <p><strong>Period:</strong> {{.Period}}</p>
      <p><strong>Net Salary:</strong> <span class="amount">{{.NetSalary}}</span></p>
    </div>
    {{if .HasAttachment}}<p>Please find your detailed payslip attached to this email.</p>{{else}}<p>Please contact HR for your detailed payslip.</p>{{end}}
    <p>If you have any questions regarding your payslip, please contact the HR department.</p>
    <p>Best regards,<br>HR Department</p>
  </div>
  <div class="footer"><p>This is an automated email. Please do not reply to this message.</p></div>
</body>
</html>
`))

var payslipText = texttemplate.Must(texttemplate.New("payslip").Parse(`Dear {{.EmployeeName}},

Your payslip for {{.Period}} is now available.

Period: {{.Period}}
Net Salary: {{.NetSalary}}

{{if .HasAttachment}}Please find your detailed payslip attached to this email.{{else}}Please contact HR for your detailed payslip.{{end}}

If you have any questions regarding your payslip, please contact the HR department.

Best regards,
HR Department

---
This is an automated email. Please do not reply to this message.`))

var testHTML = htmltemplate.Must(htmltemplate.New("test").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background-color: #4F46E5; color: white; padding: 20px; text-align: center; border-radius: 5px;">
      <h1>Test Email Successful</h1>
    </div>
    <p style="color: #10b981; font-weight: bold;">Congratulations! Your email configuration is working correctly.</p>
    <p>This test email confirms that:</p>
    <ul>
      <li>SMTP connection is established</li>
      <li>Authentication is successful</li>
      <li>Email delivery is functioning</li>
    </ul>
    <div style="background-color: #eff6ff; padding: 15px; border-left: 4px solid #3b82f6;">
      <strong>Configuration Details:</strong><br>
      SMTP Host: {{.Host}}<br>
      Port: {{.Port}}<br>
      Secure: {{if .Secure}}Yes (SSL/TLS){{else}}No (STARTTLS){{end}}<br>
      From: {{.From}}
    </div>
    <p>You can now send payslips to your employees!</p>
  </div>
</body>
</html>
`))

var testText = texttemplate.Must(texttemplate.New("test").Parse(`Test Email - Payroll System

Congratulations! Your email configuration is working correctly.

Configuration:
SMTP Host: {{.Host}}
Port: {{.Port}}
From: {{.From}}

You can now send payslips to your employees!`))

type template interface {
	Execute(w io.Writer, data any) error
}

func render(tmpl template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
