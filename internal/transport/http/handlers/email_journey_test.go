package handlers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/platform/email"
	"payflow/internal/platform/email/emailtest"
)

func TestPayslipDeliveryAndRetry(t *testing.T) {
	c := newClient(t)
	mailer := emailtest.New()
	c.app.Services.Notifications.Dial = func(email.Config, email.Options) email.Mailer { return mailer }

	var status struct {
		Configured bool `json:"configured"`
	}
	c.expect(http.MethodGet, "/email/status", nil, http.StatusOK, &status)
	assert.False(t, status.Configured)

	c.expect(http.MethodPost, "/email/configure", map[string]any{
		"host": "smtp.example.com", "port": 587, "from": "payroll@example.com",
		"auth": map[string]string{"user": "payroll", "pass": "s3cret"},
	}, http.StatusOK, nil)
	c.expect(http.MethodGet, "/email/status", nil, http.StatusOK, &status)
	assert.True(t, status.Configured)

	var stored struct {
		Host string `json:"host"`
		Auth struct {
			User string `json:"user"`
			Pass string `json:"pass"`
		} `json:"auth"`
	}
	c.expect(http.MethodGet, "/email/config", nil, http.StatusOK, &stored)
	assert.Equal(t, "smtp.example.com", stored.Host)
	assert.Empty(t, stored.Auth.Pass)

	for _, e := range []map[string]any{
		{"employeeNumber": "EMP-001", "name": "Jane Phiri", "email": "jane@example.com", "salary": 10000, "status": "active"},
		{"employeeNumber": "EMP-002", "name": "Ben Tembo", "email": "ben@example.com", "salary": 6000, "status": "active"},
	} {
		c.expect(http.MethodPost, "/employees", e, http.StatusCreated, nil)
	}
	mailer.FailFor("ben@example.com", errors.New("550 mailbox unavailable"))

	var record struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/payroll/records", map[string]any{"period": "April 2026", "payDate": "2026-04-30"}, http.StatusCreated, &record)

	var result struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
		Failed  int  `json:"failed"`
	}
	c.expect(http.MethodPost, "/payroll/records/"+record.ID+"/payslips/send", nil, http.StatusOK, &result)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].To)
	require.Len(t, sent[0].Attachments, 1)
	assert.True(t, strings.HasSuffix(sent[0].Attachments[0].Filename, ".pdf"))

	var failed struct {
		Items []struct {
			ID            string `json:"id"`
			EmployeeEmail string `json:"employeeEmail"`
			RetryCount    int    `json:"retryCount"`
		} `json:"items"`
		PendingCount int `json:"pendingCount"`
	}
	c.expect(http.MethodGet, "/failed-payslips?recordId="+record.ID, nil, http.StatusOK, &failed)
	require.Len(t, failed.Items, 1)
	assert.Equal(t, 1, failed.PendingCount)
	assert.Equal(t, "ben@example.com", failed.Items[0].EmployeeEmail)
	failedID := failed.Items[0].ID

	env := c.expect(http.MethodPost, "/failed-payslips/"+failedID+"/retry", nil, http.StatusBadGateway, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "retry_failed", env.Error.Code)
	assert.Contains(t, env.Error.Details, "failedPayslip")

	mailer.FailFor("ben@example.com", nil)
	var job struct {
		JobID string `json:"jobId"`
	}
	c.expect(http.MethodPost, "/failed-payslips/retry-all?async=true", nil, http.StatusAccepted, &job)
	require.NotEmpty(t, job.JobID)

	var run struct {
		Status string `json:"status"`
	}
	require.Eventually(t, func() bool {
		c.expect(http.MethodGet, "/jobs/"+job.JobID, nil, http.StatusOK, &run)
		return run.Status == "completed"
	}, 5*time.Second, 20*time.Millisecond)

	c.expect(http.MethodGet, "/failed-payslips?status=pending", nil, http.StatusOK, &failed)
	assert.Equal(t, 0, failed.PendingCount)
	assert.Len(t, mailer.Sent(), 2)

	c.expect(http.MethodPost, "/failed-payslips/"+failedID+"/resolve", nil, http.StatusOK, nil)
	c.expect(http.MethodDelete, "/failed-payslips/"+failedID, nil, http.StatusOK, nil)
	c.expect(http.MethodGet, "/failed-payslips/"+failedID, nil, http.StatusNotFound, nil)
	c.expect(http.MethodGet, "/jobs/does-not-exist", nil, http.StatusNotFound, nil)

	c.expect(http.MethodDelete, "/email/config", nil, http.StatusOK, nil)
	c.expect(http.MethodGet, "/email/status", nil, http.StatusOK, &status)
	assert.False(t, status.Configured)
}
