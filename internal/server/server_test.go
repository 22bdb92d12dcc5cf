package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iotguardian/internal/ai"
	"iotguardian/internal/config"
	"iotguardian/internal/seed"
)

type cannedCompleter struct{ reply string }

func (c cannedCompleter) Complete(context.Context, string, string) (string, error) {
	return c.reply, nil
}

type client struct {
	t   *testing.T
	app *Server
	srv *httptest.Server
}

func newClient(t *testing.T) client {
	t.Helper()
	data, err := seed.Load("")
	require.NoError(t, err)
	cfg := config.Config{
		JWTSecret:     "integration-secret",
		TokenTTL:      time.Hour,
		AdminUsername: "admin",
		AdminPassword: "hunter2",
		CommandTTL:    time.Hour,
		OfflineAfter:  5 * time.Minute,
	}
	s := New(cfg, data, Backends{Completers: map[string]ai.Completer{
		ai.ProviderGemini: cannedCompleter{reply: `{"problemIdentification":"Clogged vent","suggestedSolutions":"Clean the vent"}`},
	}})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return client{t: t, app: s, srv: srv}
}

func (c client) do(method, path, token string, body any) (int, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func (c client) token(path string, body any) string {
	c.t.Helper()
	status, raw := c.do(http.MethodPost, path, "", body)
	require.Equal(c.t, http.StatusOK, status, string(raw))
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(raw, &session))
	require.NotEmpty(c.t, session.Token)
	return session.Token
}

func TestHealthAndFallbacks(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	status, body = c.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), `"code":"not_found"`)

	status, body = c.do(http.MethodPatch, "/api/sensor-data", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Contains(t, string(body), `"code":"method_not_allowed"`)

	status, _ = c.do(http.MethodPatch, "/api/admin/users", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	status, _ = c.do(http.MethodGet, "/api/cart/checkout", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestSensorIngestIsPublic(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodPost, "/api/sensor-data", "", map[string]any{
		"deviceId": "dev_001", "temperature": 22.5, "humidity": 45.0, "waterLeak": false,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = c.do(http.MethodPost, "/api/sensor-data", "", map[string]any{"temperature": 22.5})
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, body = c.do(http.MethodGet, "/api/sensor-data", "", nil)
	require.Equal(t, http.StatusOK, status)
	var readings []map[string]any
	require.NoError(t, json.Unmarshal(body, &readings))
	require.Len(t, readings, 1)
	assert.Equal(t, "dev_001", readings[0]["deviceId"])

	status, body = c.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `iotguardian_sensor_readings_total{status="ok"} 1`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newClient(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/device-command/dev_001"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodPost, "/api/troubleshoot"},
	} {
		status, _ := c.do(tc.method, tc.path, "", map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", tc.method, tc.path)
	}

	status, _ := c.do(http.MethodGet, "/api/dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAccountLifecycle(t *testing.T) {
	c := newClient(t)
	registration := map[string]any{
		"firstName":       "Grace",
		"lastName":        "Hopper",
		"email":           "grace@example.com",
		"whatsappNumber":  "+15550001111",
		"companyName":     "Navy",
		"password":        "cobol59",
		"confirmPassword": "cobol59",
	}
	credentials := map[string]any{"email": "grace@example.com", "password": "cobol59"}

	status, body := c.do(http.MethodPost, "/api/auth/register", "", registration)
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	status, _ = c.do(http.MethodPost, "/api/auth/register", "", registration)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = c.do(http.MethodPost, "/api/auth/login", "", credentials)
	assert.Equal(t, http.StatusForbidden, status, "pending accounts cannot sign in")

	status, _ = c.do(http.MethodPost, "/api/auth/admin/login", "", map[string]any{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	admin := c.token("/api/auth/admin/login", map[string]any{"username": "admin", "password": "hunter2"})

	status, body = c.do(http.MethodPost, "/api/admin/users/"+created.User.ID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	user := c.token("/api/auth/login", credentials)

	status, _ = c.do(http.MethodGet, "/api/admin/users", user, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.do(http.MethodGet, "/api/dashboard", admin, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodGet, "/api/notifications", user, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Welcome to IoT Guardian")

	status, body = c.do(http.MethodGet, "/api/dashboard", user, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"plan":"None"`)

	troubleshoot := map[string]any{"temperature": 30.0, "humidity": 50.0, "waterLeakage": false}
	status, body = c.do(http.MethodPost, "/api/troubleshoot", user, troubleshoot)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, string(body), "plan_required")

	status, _ = c.do(http.MethodPost, "/api/devices/dev_001/claim", user, nil)
	assert.Equal(t, http.StatusForbidden, status, "no plan means no device slots")

	status, body = c.do(http.MethodPost, "/api/cart/items", user, map[string]any{"productId": "sub_premium", "quantity": 1})
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = c.do(http.MethodPost, "/api/cart/checkout", user, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Contains(t, string(body), `"planName":"Premium"`)

	status, body = c.do(http.MethodPost, "/api/devices/dev_001/claim", user, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = c.do(http.MethodPost, "/api/device-command/dev_001", user, map[string]any{"command": "OFF"})
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = c.do(http.MethodPost, "/api/device-command/dev_002", user, map[string]any{"command": "OFF"})
	assert.Equal(t, http.StatusForbidden, status, string(body))

	status, body = c.do(http.MethodGet, "/api/device-command/dev_001", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"command":"OFF"`)
	status, _ = c.do(http.MethodPost, "/api/device-command/dev_001/ack", "", nil)
	require.Equal(t, http.StatusOK, status)
	status, body = c.do(http.MethodGet, "/api/device-command/dev_001", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "No pending commands")

	status, body = c.do(http.MethodPost, "/api/troubleshoot", user, troubleshoot)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "Clogged vent")

	status, _ = c.do(http.MethodDelete, "/api/admin/users/"+created.User.ID, admin, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = c.do(http.MethodGet, "/api/dashboard", user, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

// activeUser registers an account, approves it and returns its id with a user token.
func (c client) activeUser(email, admin string) (string, string) {
	c.t.Helper()
	credentials := map[string]any{"email": email, "password": "s3cret!"}
	status, body := c.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": email,
		"whatsappNumber": "+15550002222", "companyName": "Analytical Engines",
		"password": "s3cret!", "confirmPassword": "s3cret!",
	})
	require.Equal(c.t, http.StatusCreated, status, string(body))
	var created struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(c.t, json.Unmarshal(body, &created))
	status, body = c.do(http.MethodPost, "/api/admin/users/"+created.User.ID+"/approve", admin, nil)
	require.Equal(c.t, http.StatusOK, status, string(body))
	return created.User.ID, c.token("/api/auth/login", credentials)
}

func gatewayStock(t *testing.T, c client) int {
	t.Helper()
	p, err := c.app.Services.Catalog.Get("prod_gateway")
	require.NoError(t, err)
	require.NotNil(t, p.Stock)
	return *p.Stock
}

func TestDeletedAccountTokenIsRevoked(t *testing.T) {
	c := newClient(t)
	admin := c.token("/api/auth/admin/login", map[string]any{"username": "admin", "password": "hunter2"})
	id, user := c.activeUser("ada@example.com", admin)

	status, body := c.do(http.MethodPost, "/api/cart/items", user, map[string]any{"productId": "prod_gateway", "quantity": 2})
	require.Equal(t, http.StatusOK, status, string(body))
	stock := gatewayStock(t, c)

	status, _ = c.do(http.MethodDelete, "/api/admin/users/"+id, admin, nil)
	require.Equal(t, http.StatusNoContent, status)

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/cart/items", map[string]any{"productId": "prod_gateway", "quantity": 2}},
		{http.MethodPost, "/api/cart/checkout", nil},
		{http.MethodGet, "/api/notifications", nil},
		{http.MethodGet, "/api/me", nil},
		{http.MethodPost, "/api/device-command/dev_001", map[string]any{"command": "OFF"}},
	} {
		status, body := c.do(tc.method, tc.path, user, tc.body)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", tc.method, tc.path)
		assert.Contains(t, string(body), `"invalid_token"`)
	}

	assert.Equal(t, stock, gatewayStock(t, c))
	assert.Empty(t, c.app.Services.Carts.Get(id).Items)
	inbox, unread := c.app.Services.Notifications.List(id)
	assert.Empty(t, inbox)
	assert.Zero(t, unread)
}

func TestRejectedAccountTokenIsRevoked(t *testing.T) {
	c := newClient(t)
	admin := c.token("/api/auth/admin/login", map[string]any{"username": "admin", "password": "hunter2"})
	id, user := c.activeUser("ada@example.com", admin)

	status, _ := c.do(http.MethodGet, "/api/cart", user, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := c.do(http.MethodPost, "/api/admin/users/"+id+"/reject", admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = c.do(http.MethodGet, "/api/cart", user, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.do(http.MethodPost, "/api/cart/items", user, map[string]any{"productId": "prod_gateway", "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, c.app.Services.Carts.Get(id).Items)
}
