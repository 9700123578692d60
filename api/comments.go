package api

import (
	"net/http"

	"github.com/nasermirzaei89/remarks/discuss"
)

type createCommentPayload struct {
	Content    string  `json:"content"`
	Score      *int    `json:"score"`
	UserID     int64   `json:"userId"`
	ParentID   *int64  `json:"parentId"`
	ReplyingTo *string `json:"replyingTo"`
}

type updateCommentPayload struct {
	Content    string  `json:"content"`
	Score      *int    `json:"score"`
	ReplyingTo *string `json:"replyingTo"`
	ParentID   *int64  `json:"parentId"`
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.discussSvc.ListComments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, comments)
}

func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var payload createCommentPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	comment, err := h.discussSvc.CreateComment(r.Context(), discuss.CreateCommentRequest{
		Content:    payload.Content,
		Score:      payload.Score,
		UserID:     payload.UserID,
		ParentID:   payload.ParentID,
		ReplyingTo: derefString(payload.ReplyingTo),
	})
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusCreated, comment)
}

func (h *Handler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload updateCommentPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	comment, err := h.discussSvc.UpdateComment(r.Context(), commentID, discuss.UpdateCommentRequest{
		Content:    payload.Content,
		Score:      payload.Score,
		ReplyingTo: derefString(payload.ReplyingTo),
		ParentID:   payload.ParentID,
	})
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, comment)
}

func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.discussSvc.DeleteComment(r.Context(), commentID)
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
