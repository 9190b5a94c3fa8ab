package failedpayslips_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/employees"
	"payflow/internal/domain/failedpayslips"
	"payflow/internal/domain/payroll"
	"payflow/internal/domain/settings"
	"payflow/internal/domain/structures"
	"payflow/internal/platform/db/dbtest"
	"payflow/internal/platform/email"
	"payflow/internal/platform/pdf"
)

type sentPayslip struct {
	To      string
	Payslip pdf.Payslip
	PDF     []byte
}

type fakeSender struct {
	mu         sync.Mutex
	configured bool
	err        error
	started    chan struct{}
	block      chan struct{}
	sent       []sentPayslip
}

func (f *fakeSender) IsConfigured() bool { return f.configured }

func (f *fakeSender) SendPayslip(_ context.Context, to string, p pdf.Payslip, attachment []byte) error {
	if f.block != nil {
		f.started <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentPayslip{To: to, Payslip: p, PDF: attachment})
	return nil
}

type fixture struct {
	svc       *failedpayslips.Service
	sender    *fakeSender
	employees *employees.Service
	payroll   *payroll.Service
	store     *failedpayslips.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := dbtest.Open(t)
	employeeStore := employees.NewStore(database)
	payrollSvc := payroll.NewService(payroll.NewStore(database), employeeStore, structures.NewStore(database))
	settingsSvc := settings.NewService(settings.NewStore(database), "K")
	store := failedpayslips.NewStore(database)
	sender := &fakeSender{configured: true}
	return fixture{
		svc:       failedpayslips.NewService(store, employeeStore, settingsSvc, payrollSvc, sender),
		sender:    sender,
		employees: employees.NewService(employeeStore),
		payroll:   payrollSvc,
		store:     store,
	}
}

// queue generates a record for one employee and queues a failed send for it.
func (f fixture) queue(t *testing.T, storedEmail string) (failedpayslips.FailedPayslip, employees.Employee, payroll.Record) {
	t.Helper()
	ctx := context.Background()
	e, err := f.employees.Create(ctx, employees.Employee{Name: "Chanda Tembo", Email: "chanda@example.com", Salary: 7000, EmployeeNumber: "EMP-007"})
	require.NoError(t, err)
	rec, err := f.payroll.Generate(ctx, payroll.GenerateInput{Period: "September 2026", PayDate: "2026-09-30"})
	require.NoError(t, err)
	require.NoError(t, f.payroll.UpdateEmailStatus(ctx, rec.ID, e.ID, payroll.EmailStatusFailed, "550 unknown user"))

	data, err := json.Marshal(pdf.Payslip{EmployeeName: e.Name, Period: rec.Period, PaymentDate: rec.PayDate, BasicSalary: 7000, GrossPay: 7000, NetPay: 7000})
	require.NoError(t, err)
	now := time.Now().UTC()
	fp := failedpayslips.FailedPayslip{
		ID:              uuid.NewString(),
		PayrollRecordID: rec.ID,
		EmployeeID:      e.ID,
		EmployeeName:    e.Name,
		EmployeeEmail:   storedEmail,
		EmployeeNumber:  e.EmployeeNumber,
		Period:          rec.Period,
		NetSalary:       7000,
		ErrorMessage:    "550 unknown user",
		PayslipData:     data,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, f.store.Create(ctx, fp))
	return fp, e, rec
}

func TestRetryUsesCurrentEmployeeEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp, e, rec := f.queue(t, "chanda@old-domain.example")

	resolved, err := f.svc.Retry(ctx, fp.ID)
	require.NoError(t, err)
	assert.Equal(t, failedpayslips.StatusResolved, resolved.Status)

	require.Len(t, f.sender.sent, 1)
	sent := f.sender.sent[0]
	assert.Equal(t, "chanda@example.com", sent.To)
	assert.Equal(t, "EMP-007", sent.Payslip.EmployeeNumber)
	assert.Equal(t, "N/A", sent.Payslip.BankName)
	assert.Equal(t, "K", sent.Payslip.CurrencySymbol)
	assert.NotEmpty(t, sent.PDF)

	item, err := f.payroll.GetItem(ctx, rec.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.EmailStatusSent, item.EmailStatus)

	_, err = f.svc.Retry(ctx, fp.ID)
	assert.ErrorIs(t, err, failedpayslips.ErrFailedPayslipResolved)
}

func TestRetryFailureIncrementsCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp, _, _ := f.queue(t, "chanda@example.com")
	f.sender.err = errors.New("Connection timeout to smtp.example.com:587. Check firewall/network.")

	updated, err := f.svc.Retry(ctx, fp.ID)
	require.Error(t, err)
	assert.Equal(t, 1, updated.RetryCount)
	assert.NotNil(t, updated.LastRetryAt)
	assert.Contains(t, updated.ErrorMessage, "Connection timeout")
	assert.Equal(t, failedpayslips.StatusPending, updated.Status)

	_, err = f.svc.Retry(ctx, fp.ID)
	require.Error(t, err)
	again, err := f.svc.Get(ctx, fp.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.RetryCount)
}

func TestRetryMissingEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	fp := failedpayslips.FailedPayslip{ID: uuid.NewString(), PayrollRecordID: "gone", EmployeeID: "gone", Period: "X", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.Create(ctx, fp))

	updated, err := f.svc.Retry(ctx, fp.ID)
	assert.ErrorIs(t, err, failedpayslips.ErrEmployeeMissing)
	assert.Equal(t, 1, updated.RetryCount)
	assert.Empty(t, f.sender.sent)
}

func TestRetryRequiresConfiguredSender(t *testing.T) {
	f := newFixture(t)
	fp, _, _ := f.queue(t, "chanda@example.com")
	f.sender.configured = false

	_, err := f.svc.Retry(context.Background(), fp.ID)
	assert.ErrorIs(t, err, email.ErrNotConfigured)

	_, err = f.svc.RetryAll(context.Background())
	assert.ErrorIs(t, err, email.ErrNotConfigured)

	unchanged, err := f.svc.Get(context.Background(), fp.ID)
	require.NoError(t, err)
	assert.Zero(t, unchanged.RetryCount)
}

func TestConcurrentRetryIsRejected(t *testing.T) {
	f := newFixture(t)
	fp, _, _ := f.queue(t, "chanda@example.com")
	f.sender.started = make(chan struct{}, 1)
	f.sender.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Retry(context.Background(), fp.ID)
		done <- err
	}()

	select {
	case <-f.sender.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first retry never reached the sender")
	}
	_, err := f.svc.Retry(context.Background(), fp.ID)
	assert.ErrorIs(t, err, failedpayslips.ErrRetryInProgress)

	close(f.sender.block)
	require.NoError(t, <-done)
}

func TestRetryAllSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp, _, _ := f.queue(t, "chanda@example.com")

	now := time.Now().UTC()
	orphan := failedpayslips.FailedPayslip{ID: uuid.NewString(), PayrollRecordID: fp.PayrollRecordID, EmployeeID: "gone", EmployeeEmail: "gone@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.Create(ctx, orphan))

	summary, err := f.svc.RetryAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Attempted)
	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "gone@example.com", summary.Errors[0].Email)

	pending, err := f.svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestRecordRefreshesPendingRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp, _, rec := f.queue(t, "chanda@example.com")

	again := fp
	again.ID = uuid.NewString()
	again.ErrorMessage = "421 service not available"
	again.UpdatedAt = time.Now().UTC()
	require.NoError(t, f.store.Record(ctx, again))

	queued, err := f.store.ListByPayrollRecord(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, fp.ID, queued[0].ID)
	assert.Equal(t, "421 service not available", queued[0].ErrorMessage)

	require.NoError(t, f.store.MarkResolved(ctx, fp.ID))
	require.NoError(t, f.store.Record(ctx, again))
	queued, err = f.store.ListByPayrollRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, queued, 2)
}

func TestStoreFiltersAndDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fp, e, rec := f.queue(t, "chanda@example.com")

	byEmployee, err := f.store.ListByEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, byEmployee, 1)

	all, err := f.store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, fp.ID, all[0].ID)

	items, total, err := f.svc.List(ctx, failedpayslips.Filter{PayrollRecordID: rec.ID, Status: failedpayslips.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	resolved, err := f.svc.Resolve(ctx, fp.ID)
	require.NoError(t, err)
	assert.Equal(t, failedpayslips.StatusResolved, resolved.Status)

	removed, err := f.svc.DeleteByPayrollRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	assert.ErrorIs(t, f.svc.Delete(ctx, fp.ID), failedpayslips.ErrFailedPayslipNotFound)
	_, err = f.svc.Get(ctx, fp.ID)
	assert.ErrorIs(t, err, failedpayslips.ErrFailedPayslipNotFound)
}
