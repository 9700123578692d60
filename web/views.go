package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/remarks/view"
)

// viewFor returns the view bound to the request's session, starting a new
// session when there is none or its view was evicted.
func (h *Handler) viewFor(w http.ResponseWriter, r *http.Request) (*view.View, error) {
	value, err := h.getSessionValue(r, viewIDKey)
	if err != nil {
		slog.DebugContext(r.Context(), "starting new view session", "reason", err)
	}

	viewID, _ := value.(string)
	if viewID == "" {
		viewID = uuid.NewString()

		err = h.setSessionValue(w, r, viewIDKey, viewID)
		if err != nil {
			return nil, fmt.Errorf("failed to set view id: %w", err)
		}
	}

	if v, ok := h.views.Get(viewID); ok {
		return v, nil
	}

	v := h.newView()

	previous, ok, _ := h.views.PeekOrAdd(viewID, v)
	if ok {
		return previous, nil
	}

	return v, nil
}
