package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/sessions"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nasermirzaei89/remarks/accounts"
	"github.com/nasermirzaei89/remarks/client"
	"github.com/nasermirzaei89/remarks/view"
)

var (
	//go:embed templates/*
	templatesFS embed.FS

	//go:embed static/*
	staticFS embed.FS
)

const (
	defaultSiteTitle = "Remarks"
	DefaultCacheSize = 1024
)

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	tpl         *template.Template
	static      fs.FS
	cookieStore *sessions.CookieStore
	sessionName string
	views       *lru.Cache[string, *view.View]
	newView     func() *view.View
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	newView func() *view.View,
	cookieStore *sessions.CookieStore,
	sessionName string,
	cacheSize int,
) (*Handler, error) {
	h := &Handler{
		cookieStore: cookieStore,
		sessionName: sessionName,
		newView:     newView,
	}

	{
		tpl, err := template.New("").Funcs(h.funcs()).ParseFS(templatesFS, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}

		h.tpl = tpl
	}

	{
		static, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to sub static fs: %w", err)
		}

		h.static = static
	}

	{
		if cacheSize <= 0 {
			cacheSize = DefaultCacheSize
		}

		views, err := lru.New[string, *view.View](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create view cache: %w", err)
		}

		h.views = views
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	h.handler = recoverMiddleware(h.handler)

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /{$}", h.HandleHomePage)
	h.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))

	h.mux.HandleFunc("POST /comments", h.HandleAddComment)
	h.mux.HandleFunc("POST /comments/{id}/reply", h.HandleReply)
	h.mux.HandleFunc("POST /comments/{id}/edit", h.HandleEdit)
	h.mux.HandleFunc("GET /comments/{id}/delete", h.HandleDeletePage)
	h.mux.HandleFunc("POST /comments/{id}/delete", h.HandleDelete)
	h.mux.HandleFunc("POST /comments/{id}/upvote", h.HandleUpvote)
	h.mux.HandleFunc("POST /comments/{id}/downvote", h.HandleDownvote)
	h.mux.HandleFunc("POST /reload", h.HandleReload)
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"humanizeTime": func(t time.Time) string {
			return humanize.Time(t)
		},
		"isoTime": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) renderTemplate(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	name string,
	extraData map[string]any,
) {
	data := map[string]any{
		"CurrentPath": r.URL.Path,
		"Lang":        "en",
		"Dir":         "ltr",
	}

	maps.Copy(data, extraData)

	data["SiteTitle"] = defaultSiteTitle

	if extraData["SiteTitle"] != nil {
		data["SiteTitle"] = fmt.Sprintf("%s | %s", extraData["SiteTitle"], data["SiteTitle"])
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	err := h.tpl.ExecuteTemplate(w, name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "name", name, "error", err)

		return
	}
}

// commentCard is a view item plus the per-request form state.
type commentCard struct {
	*view.Item

	CurrentUser accounts.User
	Editing     bool
	Replying    bool
	Cards       []commentCard
}

func buildCards(items []*view.Item, currentUser accounts.User, editID, replyID int64) []commentCard {
	cards := make([]commentCard, 0, len(items))

	for _, item := range items {
		cards = append(cards, commentCard{
			Item:        item,
			CurrentUser: currentUser,
			Editing:     item.Owned && item.Comment.ID == editID,
			Replying:    !item.Owned && item.Comment.ID == replyID,
			Cards:       buildCards(item.Replies, currentUser, editID, replyID),
		})
	}

	return cards
}

type homeState struct {
	EditID  int64
	ReplyID int64
	Error   string
}

func (h *Handler) renderHome(w http.ResponseWriter, r *http.Request, v *view.View, status int, state homeState) {
	err := v.Load(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load view", "error", err)
		http.Error(w, "Failed to load comments", http.StatusBadGateway)

		return
	}

	currentUser, _ := v.CurrentUser()

	data := map[string]any{
		"CurrentUser": currentUser,
		"Comments":    buildCards(v.Items(), currentUser, state.EditID, state.ReplyID),
		"Error":       state.Error,
	}

	h.renderTemplate(w, r, status, "home-page.gohtml", data)
}

func errorStatus(err error) (int, string) {
	var apiErr *client.Error

	switch {
	case errors.Is(err, view.ErrEmptyContent):
		return http.StatusBadRequest, "Comment cannot be empty"
	case errors.Is(err, view.ErrNotOwner):
		return http.StatusForbidden, "You can only change your own comments"
	case errors.Is(err, view.ErrSelfReply):
		return http.StatusBadRequest, "You cannot reply to your own comment"
	case errors.Is(err, view.ErrUnknownComment):
		return http.StatusNotFound, "Comment not found"
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return apiErr.StatusCode, apiErr.Message
	default:
		return http.StatusBadGateway, "Comment store is unavailable"
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, v *view.View, err error, state homeState) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "failed to handle request", "path", r.URL.Path, "error", err)
	} else {
		slog.InfoContext(r.Context(), "rejected request", "path", r.URL.Path, "error", err)
	}

	state.Error = message

	h.renderHome(w, r, v, status, state)
}

func queryID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)

	return id
}

func commentAnchor(commentID int64) string {
	return "/#comment-" + strconv.FormatInt(commentID, 10)
}
