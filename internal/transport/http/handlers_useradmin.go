package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ludendorff/internal/useradmin"
)

// UserAdminService is the slice of the user administration service the
// transport needs.
type UserAdminService interface {
	Create(ctx context.Context, token string, user useradmin.NewUser) error
	Modify(ctx context.Context, token, userID string, disabled bool) error
	Delete(ctx context.Context, token, userID string) error
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req useradmin.NewUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	if err := h.users.Create(r.Context(), bearerToken(r), req); err != nil {
		h.logFailure(r, "createUser", err)
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

type modifyUserRequest struct {
	Disabled bool `json:"disabled"`
}

func (h *Handler) handleModifyUser(w http.ResponseWriter, r *http.Request) {
	var req modifyUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	userID := chi.URLParam(r, "userID")
	if err := h.users.Modify(r.Context(), bearerToken(r), userID, req.Disabled); err != nil {
		h.logFailure(r, "modifyUser", err)
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.users.Delete(r.Context(), bearerToken(r), userID); err != nil {
		h.logFailure(r, "deleteUser", err)
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
