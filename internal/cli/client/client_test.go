package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *staticTokens) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

type countingHandler struct {
	calls int
}

func (c *countingHandler) HandleUnauthorized() {
	c.calls++
}

// recordingServer answers every request with status/body and remembers the headers it saw
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *[]*http.Request) {
	t.Helper()

	var (
		mu   sync.Mutex
		seen []*http.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Clone(context.Background()))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(url string, tokens TokenSource, handler UnauthorizedHandler) *Client {
	return New(url, Options{
		Timeout:      5 * time.Second,
		Tokens:       tokens,
		Unauthorized: handler,
		Logger:       zerolog.Nop(),
	})
}

func TestBearerInterceptor_AttachesCurrentToken(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK, `[]`)
	tokens := &staticTokens{token: "t1"}
	c := newTestClient(srv.URL, tokens, nil)

	_, err := c.ListExpenses(context.Background(), Filters{})
	require.NoError(t, err)

	tokens.set("t2")
	_, err = c.ListIncomes(context.Background(), Filters{})
	require.NoError(t, err)

	tokens.set("")
	_, err = c.ListCategories(context.Background())
	require.NoError(t, err)

	require.Len(t, *seen, 3)
	assert.Equal(t, "Bearer t1", (*seen)[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer t2", (*seen)[1].Header.Get("Authorization"))
	_, present := (*seen)[2].Header["Authorization"]
	assert.False(t, present, "no token means no header")
}

func TestBearerInterceptor_NilSource(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK, `{}`)
	c := newTestClient(srv.URL, nil, nil)

	_, err := c.MonthlySummary(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Empty(t, (*seen)[0].Header.Get("Authorization"))
}

func TestUnauthorizedInterceptor(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusUnauthorized, `{"error":"Invalid or expired token"}`)
	handler := &countingHandler{}
	c := newTestClient(srv.URL, &staticTokens{token: "stale"}, handler)

	_, err := c.Profile(context.Background())

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, handler.calls)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)
}

func TestUnauthorizedInterceptor_IgnoresOtherStatuses(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusForbidden, `{"error":"nope"}`)
	handler := &countingHandler{}
	c := newTestClient(srv.URL, &staticTokens{token: "t1"}, handler)

	_, err := c.ListExpenses(context.Background(), Filters{})

	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Zero(t, handler.calls)
}

func TestLogin_401DoesNotTriggerUnauthorizedHandler(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusUnauthorized, `{"error":"Invalid credentials"}`)
	handler := &countingHandler{}
	c := newTestClient(srv.URL, &staticTokens{token: "t1"}, handler)

	resp, err := c.Login(context.Background(), "bad@x.com", "wrongpw")

	assert.Nil(t, resp)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Zero(t, handler.calls)
	assert.Empty(t, (*seen)[0].Header.Get("Authorization"))
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CredentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, CredentialsRequest{Email: "good@x.com", Password: "correctpw"}, req)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"t1","user":{"email":"good@x.com"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil, nil)
	resp, err := c.Login(context.Background(), "good@x.com", "correctpw")

	require.NoError(t, err)
	assert.Equal(t, "t1", resp.Token)
	assert.Equal(t, "good@x.com", resp.User.Email)
}

func TestSignup_PostsToSignupEndpoint(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusCreated, `{"token":"t9","user":{"id":"u1","email":"new@x.com"}}`)
	c := newTestClient(srv.URL, nil, nil)

	resp, err := c.Signup(context.Background(), "new@x.com", "longenough")

	require.NoError(t, err)
	assert.Equal(t, "t9", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "/api/auth/signup", (*seen)[0].URL.Path)
}

func TestAPIError_NonJSONBody(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	c := newTestClient(srv.URL, nil, nil)

	_, err := c.ListExpenses(context.Background(), Filters{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "request failed with status 502", apiErr.Error())
}

func TestTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", Options{Timeout: time.Second, Logger: zerolog.Nop()})

	_, err := c.Login(context.Background(), "a@b.co", "pw")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestDecodeError(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK, `{"token":`)
	c := newTestClient(srv.URL, nil, nil)

	_, err := c.Login(context.Background(), "a@b.co", "pw")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestListExpenses_SendsOnlySetFilters(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK, `[
		{"id":"e1","amount":12.5,"description":"Lunch","type":"one-time","date":"2026-10-01T00:00:00Z","category":{"id":"food","name":"Food"}}
	]`)
	c := newTestClient(srv.URL, &staticTokens{token: "t1"}, nil)

	expenses, err := c.ListExpenses(context.Background(), Filters{Start: "2026-10-01", Category: "food"})

	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, 12.5, expenses[0].Amount)
	assert.Equal(t, "Food", expenses[0].Category.Name)
	require.NotNil(t, expenses[0].Date)
	assert.Equal(t, 2026, expenses[0].Date.Year())

	query := (*seen)[0].URL.Query()
	assert.Equal(t, "2026-10-01", query.Get("start"))
	assert.Equal(t, "food", query.Get("category"))
	assert.NotContains(t, query, "end")
	assert.NotContains(t, query, "type")
}

func TestSummaryAlerts(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK, `{"alert":true,"message":"Over budget"}`)
	c := newTestClient(srv.URL, &staticTokens{token: "t1"}, nil)

	alert, err := c.SummaryAlerts(context.Background(), Filters{Start: "2026-10-01", End: "2026-10-31"})

	require.NoError(t, err)
	assert.Equal(t, &BudgetAlert{Alert: true, Message: "Over budget"}, alert)
	assert.Equal(t, "/api/summary/alerts", (*seen)[0].URL.Path)
}
