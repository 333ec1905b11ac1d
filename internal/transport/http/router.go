// Package httptransport is the thin HTTP layer over the callable
// operations. It decodes requests, delegates to services, and keeps the
// error surface opaque: callers see one generic envelope regardless of
// whether permission checks or downstream collaborators failed.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the callable surface plus health and metrics endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users", h.handleCreateUser)
		r.Patch("/users/{userID}", h.handleModifyUser)
		r.Delete("/users/{userID}", h.handleDeleteUser)

		r.Post("/search/inventories", h.handleIndexInventory)
		r.Post("/search/issued", h.handleIndexIssued)
		r.Post("/search/cards", h.handleIndexStockCard)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Handler delegates to the domain services; no business logic lives here.
type Handler struct {
	users  UserAdminService
	search SearchSyncService
	logger *slog.Logger
}

func NewHandler(users UserAdminService, search SearchSyncService, logger *slog.Logger) *Handler {
	return &Handler{users: users, search: search, logger: logger}
}
