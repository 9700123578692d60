package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/api"
	"github.com/nasermirzaei89/remarks/db/sqlite3"
	"github.com/nasermirzaei89/remarks/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}

func newTestHandler(t *testing.T, pinger api.Pinger, allowedOrigins []string) *api.Handler {
	t.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "remarks.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sqlite3.NewDB(ctx, dsn)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	err = sqlite3.MigrateUp(ctx, db)
	require.NoError(t, err)

	accountsSvc := accounts.NewService(sqlite3.NewUserRepository(db))
	discussSvc := discuss.NewService(sqlite3.NewCommentRepository(db), accountsSvc)

	if pinger == nil {
		pinger = db
	}

	return api.NewHandler(accountsSvc, discussSvc, pinger, allowedOrigins)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var payload struct {
		Error string `json:"error"`
	}

	err := json.NewDecoder(rec.Body).Decode(&payload)
	require.NoError(t, err)

	return payload.Error
}

func TestHandleIndex(t *testing.T) {
	h := newTestHandler(t, nil, []string{"*"})

	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remarks api is running", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleHealth(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		h := newTestHandler(t, nil, []string{"*"})

		rec := serve(h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database unreachable", func(t *testing.T) {
		h := newTestHandler(t, stubPinger{err: errors.New("connection refused")}, []string{"*"})

		rec := serve(h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, errorMessage(t, rec), "connection refused")
	})
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(t, nil, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/comments", nil)
	req.Header.Set("X-Request-ID", "req-123")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestMalformedInput(t *testing.T) {
	h := newTestHandler(t, nil, []string{"*"})

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "broken comment body", method: http.MethodPost, target: "/comments", body: "{"},
		{name: "score as text", method: http.MethodPost, target: "/comments", body: `{"content":"hi","score":"many","userId":1}`},
		{name: "broken user body", method: http.MethodPost, target: "/users", body: "not json"},
		{name: "non numeric comment id", method: http.MethodPatch, target: "/comments/abc", body: `{"content":"hi","score":0}`},
		{name: "non numeric delete id", method: http.MethodDelete, target: "/comments/abc"},
		{name: "non numeric user id", method: http.MethodDelete, target: "/users/abc"},
		{name: "missing score", method: http.MethodPost, target: "/comments", body: `{"content":"hi","userId":1}`},
		{name: "blank content", method: http.MethodPost, target: "/comments", body: `{"content":"  ","score":0,"userId":1}`},
		{name: "missing user id", method: http.MethodPost, target: "/comments", body: `{"content":"hi","score":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestCommentLifecycle(t *testing.T) {
	h := newTestHandler(t, nil, []string{"*"})

	rec := serve(h, http.MethodPost, "/users", `{"username":"amyrobson"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var user accounts.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))

	rec = serve(h, http.MethodPost, "/users", `{"username":"amyrobson"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(h, http.MethodGet, "/users/amyrobson", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodPost, "/comments", `{"content":"hello","score":3,"userId":1,"parentId":42}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodPost, "/comments", `{"content":"hello","score":3,"userId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment discuss.Comment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&comment))
	assert.Equal(t, "hello", comment.Content)
	assert.Equal(t, user.ID, comment.UserID)

	rec = serve(h, http.MethodPatch, "/comments/1", `{"content":"hi","score":3,"replyingTo":"amyrobson"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPatch, "/comments/1", `{"content":"hi","score":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodDelete, "/comments/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, http.MethodDelete, "/comments/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Run("preflight from allowed origin", func(t *testing.T) {
		h := newTestHandler(t, nil, []string{"http://localhost:3000"})

		req := httptest.NewRequest(http.MethodOptions, "/comments", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	})

	t.Run("preflight for a method that is not allowed", func(t *testing.T) {
		h := newTestHandler(t, nil, []string{"http://localhost:3000"})

		req := httptest.NewRequest(http.MethodOptions, "/comments", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("unknown origin gets no allow header", func(t *testing.T) {
		h := newTestHandler(t, nil, []string{"http://localhost:3000"})

		req := httptest.NewRequest(http.MethodGet, "/comments", nil)
		req.Header.Set("Origin", "http://evil.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard", func(t *testing.T) {
		h := newTestHandler(t, nil, []string{"*"})

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Origin", "http://anywhere.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
