package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/app/server"
	"payflow/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

const (
	adminEmail    = "admin@payflow.test"
	adminPassword = "ChangeMe123!"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DatabaseURL:        filepath.Join(t.TempDir(), "journey.db"),
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		DataEncryptionKey:  "0123456789abcdef0123456789abcdef",
		Environment:        "test",
		SeedAdminUsername:  "admin",
		SeedAdminEmail:     adminEmail,
		SeedAdminPassword:  adminPassword,
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		SMTPTimeout:        time.Second,
		SMTPSendAttempts:   1,
		JobQueueSize:       8,
		CurrencySymbol:     "K",
	}
}

type client struct {
	t     *testing.T
	app   *server.App
	base  string
	http  *http.Client
	token string
}

func newClient(t *testing.T) *client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	app, err := server.New(ctx, testConfig(t))
	require.NoError(t, err)
	app.Jobs.Start(ctx)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		app.Close()
	})
	c := &client{t: t, app: app, base: ts.URL + "/api/v1", http: ts.Client()}

	var login struct {
		Token string `json:"token"`
	}
	c.expect(http.MethodPost, "/auth/login", map[string]string{"login": adminEmail, "password": adminPassword}, http.StatusOK, &login)
	require.NotEmpty(t, login.Token)
	c.token = login.Token
	return c
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	return resp
}

// expect performs the request, asserts the status and decodes data into out.
func (c *client) expect(method, path string, body any, status int, out any) envelope {
	c.t.Helper()
	resp := c.do(method, path, body)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	require.Equalf(c.t, status, resp.StatusCode, "%s %s: %s", method, path, raw)

	var env envelope
	require.NoError(c.t, json.Unmarshal(raw, &env))
	if out != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
	return env
}

func TestPayrollJourney(t *testing.T) {
	c := newClient(t)

	var structure struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/payroll/structures", map[string]any{
		"name":       "Standard",
		"allowances": []map[string]any{{"name": "Housing", "type": "percentage", "amount": 20}},
		"deductions": []map[string]any{{"name": "NAPSA", "type": "percentage", "amount": 5}},
	}, http.StatusCreated, &structure)

	var employee struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/employees", map[string]any{
		"employeeNumber":     "EMP-001",
		"name":               "Jane Phiri",
		"email":              "jane@example.com",
		"department":         "Finance",
		"position":           "Accountant",
		"salary":             10000,
		"status":             "active",
		"payrollStructureId": structure.ID,
	}, http.StatusCreated, &employee)

	var record struct {
		ID            string  `json:"id"`
		Status        string  `json:"status"`
		EmployeeCount int     `json:"employeeCount"`
		TotalGross    float64 `json:"totalGross"`
		TotalNet      float64 `json:"totalNet"`
	}
	c.expect(http.MethodPost, "/payroll/records", map[string]any{"period": "January 2026", "payDate": "2026-01-31"}, http.StatusCreated, &record)
	assert.Equal(t, "draft", record.Status)
	assert.Equal(t, 1, record.EmployeeCount)
	assert.InDelta(t, 12000, record.TotalGross, 0.001)
	assert.InDelta(t, 11500, record.TotalNet, 0.001)

	c.expect(http.MethodPost, "/payroll/records/"+record.ID+"/complete", nil, http.StatusOK, &record)
	assert.Equal(t, "completed", record.Status)

	resp := c.do(http.MethodGet, "/payroll/records/"+record.ID+"/export", nil)
	csvBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(csvBody), "EMP-001")

	resp = c.do(http.MethodGet, "/payroll/records/"+record.ID+"/payslips/"+employee.ID, nil)
	pdfBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(pdfBody, []byte("%PDF")))

	env := c.expect(http.MethodPost, "/payroll/records/"+record.ID+"/payslips/send", nil, http.StatusBadRequest, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "email_not_configured", env.Error.Code)

	c.expect(http.MethodDelete, "/employees/"+employee.ID, nil, http.StatusConflict, nil)

	var history []struct {
		NetPay float64 `json:"netPay"`
	}
	c.expect(http.MethodGet, "/employees/"+employee.ID+"/payroll-history", nil, http.StatusOK, &history)
	require.Len(t, history, 1)
	assert.InDelta(t, 11500, history[0].NetPay, 0.001)

	var dashboard struct {
		TotalEmployees int     `json:"totalEmployees"`
		YTDTotal       float64 `json:"ytdTotal"`
	}
	c.expect(http.MethodGet, "/reports/dashboard", nil, http.StatusOK, &dashboard)
	assert.Equal(t, 1, dashboard.TotalEmployees)
}

func TestGenerateReplaysIdempotencyKey(t *testing.T) {
	c := newClient(t)
	c.expect(http.MethodPost, "/employees", map[string]any{
		"name": "Ben Tembo", "email": "ben@example.com", "salary": 5000, "status": "active",
	}, http.StatusCreated, nil)

	send := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, c.base+"/payroll/records", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Idempotency-Key", "run-2026-02")
		resp, err := c.http.Do(req)
		require.NoError(t, err)
		return resp
	}

	body := `{"period":"February 2026","payDate":"2026-02-28"}`
	first := send(body)
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	replay := send(body)
	replay.Body.Close()
	assert.Equal(t, http.StatusCreated, replay.StatusCode)
	assert.Equal(t, "true", replay.Header.Get("Idempotent-Replay"))

	conflict := send(`{"period":"March 2026","payDate":"2026-03-31"}`)
	conflict.Body.Close()
	assert.Equal(t, http.StatusConflict, conflict.StatusCode)

	var page struct {
		Total int `json:"total"`
	}
	c.expect(http.MethodGet, "/payroll/records", nil, http.StatusOK, &page)
	assert.Equal(t, 1, page.Total)
}

func TestLeaveApprovalFlow(t *testing.T) {
	c := newClient(t)
	var employee struct {
		ID string `json:"id"`
	}
	c.expect(http.MethodPost, "/employees", map[string]any{
		"name": "Mary Banda", "email": "mary@example.com", "salary": 8000, "status": "active",
	}, http.StatusCreated, &employee)

	var request struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Days   float64 `json:"days"`
	}
	c.expect(http.MethodPost, "/leave", map[string]any{
		"employeeId": employee.ID, "leaveType": "annual", "startDate": "2026-03-02", "endDate": "2026-03-06",
	}, http.StatusCreated, &request)
	assert.Equal(t, "pending", request.Status)
	assert.InDelta(t, 5, request.Days, 0.001)

	c.expect(http.MethodPost, "/leave/"+request.ID+"/status", map[string]string{"status": "approved"}, http.StatusOK, &request)
	assert.Equal(t, "approved", request.Status)
	c.expect(http.MethodPost, "/leave/"+request.ID+"/status", map[string]string{"status": "rejected"}, http.StatusConflict, nil)

	var page struct {
		Total int `json:"total"`
	}
	c.expect(http.MethodGet, "/leave?status=approved", nil, http.StatusOK, &page)
	assert.Equal(t, 1, page.Total)
	c.expect(http.MethodGet, "/leave?status=bogus", nil, http.StatusBadRequest, nil)
}

func TestSettingsAndAudit(t *testing.T) {
	c := newClient(t)

	var company struct {
		Name           string `json:"companyName"`
		CurrencySymbol string `json:"currencySymbol"`
	}
	c.expect(http.MethodGet, "/settings/company", nil, http.StatusOK, &company)
	assert.Equal(t, "K", company.CurrencySymbol)

	c.expect(http.MethodPut, "/settings/company", map[string]string{
		"companyName": "Acme Ltd", "companyAddress": "Lusaka", "currencySymbol": "ZMW",
	}, http.StatusOK, &company)
	assert.Equal(t, "Acme Ltd", company.Name)

	c.expect(http.MethodPut, "/settings/smtp_config", map[string]string{"value": "{}"}, http.StatusBadRequest, nil)
	c.expect(http.MethodGet, "/settings/does_not_exist", nil, http.StatusNotFound, nil)

	var events struct {
		Total int `json:"total"`
	}
	c.expect(http.MethodGet, "/audit?action=company.update", nil, http.StatusOK, &events)
	assert.Equal(t, 1, events.Total)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newClient(t)
	c.token = ""
	c.expect(http.MethodGet, "/employees", nil, http.StatusUnauthorized, nil)
	c.expect(http.MethodGet, "/auth/me", nil, http.StatusUnauthorized, nil)
}

func TestUserRoleIsReadOnly(t *testing.T) {
	admin := newClient(t)
	admin.expect(http.MethodPost, "/employees", map[string]any{
		"name": "Jane Phiri", "email": "jane@example.com", "salary": 10000, "status": "active",
		"nationalId": "123456/10/1", "accountNumber": "0011223344",
	}, http.StatusCreated, nil)
	admin.expect(http.MethodPost, "/users", map[string]string{
		"username": "clerk", "email": "clerk@payflow.test", "password": "Clerk12345!", "role": "user", "name": "Clerk",
	}, http.StatusCreated, nil)
	admin.expect(http.MethodPost, "/setup", map[string]string{
		"username": "other", "email": "other@payflow.test", "password": "Other12345!",
	}, http.StatusConflict, nil)

	clerk := &client{t: t, app: admin.app, base: admin.base, http: admin.http}
	var login struct {
		Token string `json:"token"`
	}
	clerk.expect(http.MethodPost, "/auth/login", map[string]string{"login": "clerk", "password": "Clerk12345!"}, http.StatusOK, &login)
	clerk.token = login.Token

	var page struct {
		Items []struct {
			Name          string `json:"name"`
			NationalID    string `json:"nationalId"`
			AccountNumber string `json:"accountNumber"`
		} `json:"items"`
	}
	clerk.expect(http.MethodGet, "/employees", nil, http.StatusOK, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Jane Phiri", page.Items[0].Name)
	assert.Empty(t, page.Items[0].NationalID)
	assert.Empty(t, page.Items[0].AccountNumber)

	clerk.expect(http.MethodPost, "/employees", map[string]any{"name": "X", "email": "x@example.com", "status": "active"}, http.StatusForbidden, nil)
	clerk.expect(http.MethodGet, "/audit", nil, http.StatusForbidden, nil)
	clerk.expect(http.MethodPost, "/email/configure", map[string]any{}, http.StatusForbidden, nil)
}
