package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nasermirzaei89/remarks/view"
)

// prepare resolves the session view, the {id} path value and the parsed form.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request, withID bool) (*view.View, int64, bool) {
	v, err := h.viewFor(w, r)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to resolve view", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return nil, 0, false
	}

	var commentID int64

	if withID {
		commentID, err = strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid comment id", http.StatusBadRequest)

			return nil, 0, false
		}
	}

	if r.Method == http.MethodPost {
		err = r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return nil, 0, false
		}
	}

	return v, commentID, true
}

func (h *Handler) HandleHomePage(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.prepare(w, r, false)
	if !ok {
		return
	}

	h.renderHome(w, r, v, http.StatusOK, homeState{
		EditID:  queryID(r, "edit"),
		ReplyID: queryID(r, "reply"),
	})
}

func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.prepare(w, r, false)
	if !ok {
		return
	}

	comment, err := v.AddComment(r.Context(), r.FormValue("content"))
	if err != nil {
		h.renderError(w, r, v, err, homeState{})

		return
	}

	http.Redirect(w, r, commentAnchor(comment.ID), http.StatusSeeOther)
}

func (h *Handler) HandleReply(w http.ResponseWriter, r *http.Request) {
	v, commentID, ok := h.prepare(w, r, true)
	if !ok {
		return
	}

	reply, err := v.AddReply(r.Context(), commentID, r.FormValue("content"))
	if err != nil {
		h.renderError(w, r, v, err, homeState{ReplyID: commentID})

		return
	}

	http.Redirect(w, r, commentAnchor(reply.ID), http.StatusSeeOther)
}

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	v, commentID, ok := h.prepare(w, r, true)
	if !ok {
		return
	}

	_, err := v.Edit(r.Context(), commentID, r.FormValue("content"))
	if err != nil {
		h.renderError(w, r, v, err, homeState{EditID: commentID})

		return
	}

	http.Redirect(w, r, commentAnchor(commentID), http.StatusSeeOther)
}

func (h *Handler) HandleDeletePage(w http.ResponseWriter, r *http.Request) {
	v, commentID, ok := h.prepare(w, r, true)
	if !ok {
		return
	}

	err := v.Load(r.Context())
	if err != nil {
		h.renderError(w, r, v, err, homeState{})

		return
	}

	comment, err := v.Owned(commentID)
	if err != nil {
		h.renderError(w, r, v, err, homeState{})

		return
	}

	h.renderTemplate(w, r, http.StatusOK, "delete-page.gohtml", map[string]any{
		"SiteTitle": "Delete comment",
		"Comment":   comment,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	v, commentID, ok := h.prepare(w, r, true)
	if !ok {
		return
	}

	err := v.Remove(r.Context(), commentID)
	if err != nil {
		h.renderError(w, r, v, err, homeState{})

		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) HandleUpvote(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, (*view.View).Upvote)
}

func (h *Handler) HandleDownvote(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, (*view.View).Downvote)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request, vote func(v *view.View, commentID int64) error) {
	v, commentID, ok := h.prepare(w, r, true)
	if !ok {
		return
	}

	err := v.Load(r.Context())
	if err == nil {
		err = vote(v, commentID)
	}

	if err != nil {
		h.renderError(w, r, v, err, homeState{})

		return
	}

	http.Redirect(w, r, commentAnchor(commentID), http.StatusSeeOther)
}

func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	v, _, ok := h.prepare(w, r, false)
	if !ok {
		return
	}

	err := v.Reload(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to reload view", "error", err)
		http.Error(w, "Failed to load comments", http.StatusBadGateway)

		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
