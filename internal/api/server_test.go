package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/fine/internal/aggregate"
	"github.com/pbaille/fine/internal/config"
	"github.com/pbaille/fine/internal/domain"
	"github.com/pbaille/fine/internal/logger"
	"github.com/pbaille/fine/internal/service"
	"github.com/pbaille/fine/internal/store"
)

type testEnv struct {
	handler http.Handler
	backend *store.FileBackend
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	backend, err := store.NewFileBackend(dir)
	require.NoError(t, err)

	svc := service.New(backend, logger.Discard())
	srv := New(svc, Options{Version: "test", CORS: config.CORSConfig{AllowedOrigins: "*"}}, logger.Discard())
	srv.now = func() time.Time { return time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC) }

	return &testEnv{handler: srv.Handler(), backend: backend, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestEvents_ListEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestEvents_CreateThenList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/events", `{"date":"2026-04-15","title":"exam"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[domain.Event](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "exam", created.Title)

	rec = env.do(t, http.MethodGet, "/events", "")
	events := decodeBody[[]domain.Event](t, rec)
	assert.Equal(t, []domain.Event{created}, events)
}

func TestEvents_CreateRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/events", `{"title":"no date"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "date", resp.Fields[0].Field)

	rec = env.do(t, http.MethodPost, "/events", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"invalid request body"}`, rec.Body.String())

	_, err := os.Stat(env.backend.Path(service.EventsCollection))
	assert.True(t, os.IsNotExist(err))
}

func TestCalendar(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/events", `{"date":"2026-04-15","title":"exam"}`)

	rec := env.do(t, http.MethodGet, "/calendar?month=2026-04", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[aggregate.MonthView](t, rec)
	assert.Equal(t, 3, view.Leading)
	require.Len(t, view.Weeks, 5)
	require.Len(t, view.Weeks[2][3].Events, 1)

	// no month falls back to the current one
	rec = env.do(t, http.MethodGet, "/calendar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[aggregate.MonthView](t, rec)
	assert.Equal(t, 4, view.Month)

	rec = env.do(t, http.MethodGet, "/calendar?month=April", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommunity_Flow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/community", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/community", `{"category":"notice","title":"Rules","author":"admin","content":"<p>Be kind</p>"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decodeBody[domain.CommunityPost](t, rec)
	assert.Equal(t, "Be kind", post.Content)

	rec = env.do(t, http.MethodPost, "/community/"+post.ID+"/comments", `{"author":"kim","content":"ok"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/community?category=notice", "")
	summaries := decodeBody[[]domain.PostSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Replies)

	rec = env.do(t, http.MethodGet, "/community?category=column", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/community/"+post.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	full := decodeBody[domain.CommunityPost](t, rec)
	require.Len(t, full.Comments, 1)
	assert.Equal(t, "kim", full.Comments[0].Author)

	rec = env.do(t, http.MethodGet, "/profile/stats?author=kim", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ProfileStats{Author: "kim", Comments: 1}, decodeBody[domain.ProfileStats](t, rec))
}

func TestCommunity_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/community/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Message, "not found")

	rec = env.do(t, http.MethodPost, "/community/missing/comments", `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileStats_RequiresAuthor(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/profile/stats", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllocation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/allocation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decodeBody[[]aggregate.CategoryTotal](t, rec)
	require.Len(t, totals, 4)
	assert.Equal(t, "cash", totals[0].Category)

	rec = env.do(t, http.MethodPut, "/allocation", `{"values":{"13":10}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	totals = decodeBody[[]aggregate.CategoryTotal](t, rec)
	assert.Equal(t, 12, totals[0].Current)

	rec = env.do(t, http.MethodPut, "/allocation", `{"values":{"13":11}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "values.13", resp.Fields[0].Field)
}

func TestStorageFailureIs500(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.backend.Path(service.EventsCollection), []byte("{oops"), 0o644))

	// reads fail soft
	rec := env.do(t, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	// writes refuse to clobber the unreadable unit
	rec = env.do(t, http.MethodPost, "/events", `{"date":"2026-04-15","title":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)

	require.NoError(t, os.RemoveAll(env.dir))
	rec = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", decodeBody[HealthResponse](t, rec).Status)
}

func TestMiddlewareApplied(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestBodyTooLarge(t *testing.T) {
	env := newTestEnv(t)

	big := `{"date":"2026-04-15","title":"` + string(bytes.Repeat([]byte("a"), maxBodyBytes)) + `"}`
	rec := env.do(t, http.MethodPost, "/events", big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	backend, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	srv := New(service.New(backend, logger.Discard()), Options{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
