package api

import (
	"net/http"

	"github.com/nasermirzaei89/remarks/accounts"
)

type userPayload struct {
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accountsSvc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, users)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.accountsSvc.GetUserByIdentifier(r.Context(), r.PathValue("identifier"))
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload userPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.accountsSvc.CreateUser(r.Context(), accounts.CreateUserRequest{
		Username: payload.Username,
		Avatar:   derefString(payload.Avatar),
	})
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusCreated, user)
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	var payload userPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	user, err := h.accountsSvc.UpdateUser(r.Context(), userID, accounts.UpdateUserRequest{
		Username: payload.Username,
		Avatar:   derefString(payload.Avatar),
	})
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, user)
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	err := h.accountsSvc.DeleteUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
