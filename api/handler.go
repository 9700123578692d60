// Package api serves the comment store REST surface.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/discuss"
)

const maxBodyBytes = 1 << 20

// Pinger reports database liveness.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	accountsSvc *accounts.Service
	discussSvc  *discuss.Service
	pinger      Pinger
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	accountsSvc *accounts.Service,
	discussSvc *discuss.Service,
	pinger Pinger,
	allowedOrigins []string,
) *Handler {
	h := &Handler{
		mux:         &http.ServeMux{},
		accountsSvc: accountsSvc,
		discussSvc:  discussSvc,
		pinger:      pinger,
	}

	h.registerRoutes()

	h.handler = h.mux
	h.handler = corsMiddleware(allowedOrigins)(h.handler)
	h.handler = accessLogMiddleware(h.handler)
	h.handler = requestIDMiddleware(h.handler)
	h.handler = recoverMiddleware(h.handler)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /{$}", h.HandleIndex)
	h.mux.HandleFunc("GET /healthz", h.HandleHealth)

	h.mux.HandleFunc("GET /comments", h.HandleListComments)
	h.mux.HandleFunc("POST /comments", h.HandleCreateComment)
	h.mux.HandleFunc("PATCH /comments/{id}", h.HandleUpdateComment)
	h.mux.HandleFunc("DELETE /comments/{id}", h.HandleDeleteComment)

	h.mux.HandleFunc("GET /users", h.HandleListUsers)
	h.mux.HandleFunc("GET /users/{identifier}", h.HandleGetUser)
	h.mux.HandleFunc("POST /users", h.HandleCreateUser)
	h.mux.HandleFunc("PATCH /users/{id}", h.HandleUpdateUser)
	h.mux.HandleFunc("DELETE /users/{id}", h.HandleDeleteUser)
}

func (h *Handler) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("remarks api is running"))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	err := h.pinger.PingContext(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to ping database", "error", err)
		writeError(w, r, http.StatusServiceUnavailable, "database unavailable")

		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
