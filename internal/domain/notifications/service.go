// Package notifications delivers payslips and test messages over SMTP and
// keeps the active mail configuration.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payflow/internal/domain/failedpayslips"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/payslips"
	"payflow/internal/domain/settings"
	"payflow/internal/platform/crypto"
	"payflow/internal/platform/email"
	"payflow/internal/platform/metrics"
	"payflow/internal/platform/pdf"
)

const defaultCurrency = "K"

var ErrInvalidRecipient = errors.New("a valid recipient email address is required")

type HistoryUpdater interface {
	UpdateEmailStatus(ctx context.Context, recordID, employeeID, status, message string) error
}

// Dialer builds a mailer for a configuration. Tests swap it for a fake.
type Dialer func(cfg email.Config, opts email.Options) email.Mailer

func SMTPDialer(cfg email.Config, opts email.Options) email.Mailer {
	return email.NewSMTP(cfg, opts)
}

// BulkPayslip is one entry of a bulk send. PDF is optional; without it the
// email asks the employee to contact HR.
type BulkPayslip struct {
	EmployeeID    string      `json:"employeeId"`
	EmployeeEmail string      `json:"employeeEmail"`
	Payslip       pdf.Payslip `json:"payslip"`
	PDF           []byte      `json:"payslipPdfBase64,omitempty"`
}

type BulkError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

type BulkResult struct {
	Success bool        `json:"success"`
	Sent    int         `json:"sent"`
	Failed  int         `json:"failed"`
	Errors  []BulkError `json:"errors"`
}

type Service struct {
	Settings *settings.Service
	Crypto   *crypto.Service
	Payslips *payslips.Service
	History  HistoryUpdater
	Failed   *failedpayslips.Store
	Dial     Dialer

	opts   email.Options
	mu     sync.RWMutex
	mailer email.Mailer
	cfg    *SMTPConfig
}

func NewService(settingsService *settings.Service, cryptoService *crypto.Service, payslipService *payslips.Service,
	history HistoryUpdater, failed *failedpayslips.Store, opts email.Options) *Service {
	return &Service{
		Settings: settingsService,
		Crypto:   cryptoService,
		Payslips: payslipService,
		History:  history,
		Failed:   failed,
		Dial:     SMTPDialer,
		opts:     opts,
	}
}

func (s *Service) dial(cfg email.Config, opts email.Options) email.Mailer {
	if s.Dial == nil {
		return SMTPDialer(cfg, opts)
	}
	return s.Dial(cfg, opts)
}

func (s *Service) active() (email.Mailer, *SMTPConfig) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mailer, s.cfg
}

func validRecipient(to string) bool {
	to = strings.TrimSpace(to)
	if to == "" {
		return false
	}
	_, err := mail.ParseAddress(to)
	return err == nil
}

// SendPayslip mails one payslip, attaching the PDF when one is given.
func (s *Service) SendPayslip(ctx context.Context, to string, p pdf.Payslip, attachment []byte) error {
	mailer, _ := s.active()
	if mailer == nil {
		return email.ErrNotConfigured
	}
	if !validRecipient(to) {
		return ErrInvalidRecipient
	}

	currency := p.CurrencySymbol
	if currency == "" {
		currency = defaultCurrency
	}
	view := payslipView{
		EmployeeName:  p.EmployeeName,
		Period:        p.Period,
		NetSalary:     pdf.FormatAmount(currency, p.NetPay),
		HasAttachment: len(attachment) > 0,
	}
	htmlBody, err := render(payslipHTML, view)
	if err != nil {
		return err
	}
	textBody, err := render(payslipText, view)
	if err != nil {
		return err
	}

	msg := email.Message{
		To:      strings.TrimSpace(to),
		Subject: "Payslip for " + p.Period,
		HTML:    htmlBody,
		Text:    textBody,
	}
	if len(attachment) > 0 {
		msg.Attachments = []email.Attachment{{
			Filename:    AttachmentName(p.Period),
			ContentType: "application/pdf",
			Data:        attachment,
		}}
	}

	if err := mailer.Send(ctx, msg); err != nil {
		metrics.PayslipEmail(metrics.ResultFailed)
		zap.L().Warn("payslip email failed", zap.String("to", msg.To), zap.String("period", p.Period), zap.Error(err))
		return err
	}
	metrics.PayslipEmail(metrics.ResultSent)
	zap.L().Info("payslip email sent", zap.String("to", msg.To), zap.String("period", p.Period))
	return nil
}

// SendBulk sends sequentially. With a record ID each outcome is written to
// the payroll history and failures are queued for retry.
func (s *Service) SendBulk(ctx context.Context, items []BulkPayslip, recordID string) (BulkResult, error) {
	result := BulkResult{Errors: []BulkError{}}
	if !s.IsConfigured() {
		return result, email.ErrNotConfigured
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sendErr := s.SendPayslip(ctx, item.EmployeeEmail, item.Payslip, item.PDF)
		if sendErr == nil {
			result.Sent++
			s.markHistory(ctx, recordID, item.EmployeeID, payroll.EmailStatusSent, "")
			continue
		}

		result.Failed++
		result.Errors = append(result.Errors, BulkError{Email: item.EmployeeEmail, Error: sendErr.Error()})
		s.markHistory(ctx, recordID, item.EmployeeID, payroll.EmailStatusFailed, sendErr.Error())
		if recordID != "" && item.EmployeeID != "" {
			if err := s.logFailure(ctx, recordID, item, sendErr); err != nil {
				zap.L().Error("failed payslip not recorded",
					zap.String("recordId", recordID),
					zap.String("employeeId", item.EmployeeID),
					zap.Error(err))
			}
		}
	}
	result.Success = result.Failed == 0
	return result, nil
}

func (s *Service) markHistory(ctx context.Context, recordID, employeeID, status, message string) {
	if recordID == "" || employeeID == "" || s.History == nil {
		return
	}
	if err := s.History.UpdateEmailStatus(ctx, recordID, employeeID, status, message); err != nil {
		zap.L().Warn("payroll history email status not updated",
			zap.String("recordId", recordID),
			zap.String("employeeId", employeeID),
			zap.Error(err))
	}
}

func (s *Service) logFailure(ctx context.Context, recordID string, item BulkPayslip, sendErr error) error {
	data, err := json.Marshal(item.Payslip)
	if err != nil {
		return err
	}
	number := item.Payslip.EmployeeNumber
	if number == "N/A" {
		number = ""
	}
	now := time.Now().UTC()
	return s.Failed.Record(ctx, failedpayslips.FailedPayslip{
		ID:              uuid.NewString(),
		PayrollRecordID: recordID,
		EmployeeID:      item.EmployeeID,
		EmployeeName:    item.Payslip.EmployeeName,
		EmployeeEmail:   item.EmployeeEmail,
		EmployeeNumber:  number,
		Period:          item.Payslip.Period,
		NetSalary:       item.Payslip.NetPay,
		ErrorMessage:    sendErr.Error(),
		PayslipData:     data,
		Status:          failedpayslips.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// SendPayrollRecord renders and mails the record's payslips, optionally
// limited to some employees.
func (s *Service) SendPayrollRecord(ctx context.Context, recordID string, employeeIDs []string) (BulkResult, error) {
	if !s.IsConfigured() {
		return BulkResult{Errors: []BulkError{}}, email.ErrNotConfigured
	}
	prepared, err := s.Payslips.ForRecord(ctx, recordID, employeeIDs)
	if err != nil {
		return BulkResult{Errors: []BulkError{}}, err
	}

	items := make([]BulkPayslip, 0, len(prepared))
	for _, p := range prepared {
		attachment, err := pdf.Render(p.Data)
		if err != nil {
			zap.L().Warn("payslip pdf not rendered, sending without attachment",
				zap.String("employeeId", p.EmployeeID), zap.Error(err))
			attachment = nil
		}
		items = append(items, BulkPayslip{
			EmployeeID:    p.EmployeeID,
			EmployeeEmail: p.Email,
			Payslip:       p.Data,
			PDF:           attachment,
		})
	}
	return s.SendBulk(ctx, items, recordID)
}

// SendTest mails a message describing the active configuration.
func (s *Service) SendTest(ctx context.Context, to string) error {
	mailer, cfg := s.active()
	if mailer == nil || cfg == nil {
		return email.ErrNotConfigured
	}
	if !validRecipient(to) {
		return ErrInvalidRecipient
	}
	view := testView{Host: cfg.Host, Port: cfg.Port, Secure: cfg.Secure, From: cfg.From}
	htmlBody, err := render(testHTML, view)
	if err != nil {
		return err
	}
	textBody, err := render(testText, view)
	if err != nil {
		return err
	}
	err = mailer.Send(ctx, email.Message{
		To:      strings.TrimSpace(to),
		Subject: "Test Email - Payroll System",
		HTML:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return email.Classify(err, cfg.mailerConfig())
	}
	zap.L().Info("test email sent", zap.String("to", to))
	return nil
}
