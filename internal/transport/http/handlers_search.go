package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
)

// SearchSyncService is the slice of the search sync service the transport
// needs. No permission check applies to these operations.
type SearchSyncService interface {
	IndexInventory(ctx context.Context, id string, entries []any) error
	IndexIssued(ctx context.Context, id string, entries []any) error
	IndexStockCard(ctx context.Context, id string, entries []any) error
}

type indexRequest struct {
	ID      string `json:"id"`
	Entries []any  `json:"entries"`
}

func (h *Handler) handleIndexInventory(w http.ResponseWriter, r *http.Request) {
	h.handleIndex(w, r, "indexInventory", h.search.IndexInventory)
}

func (h *Handler) handleIndexIssued(w http.ResponseWriter, r *http.Request) {
	h.handleIndex(w, r, "indexIssued", h.search.IndexIssued)
}

func (h *Handler) handleIndexStockCard(w http.ResponseWriter, r *http.Request) {
	h.handleIndex(w, r, "indexStockCard", h.search.IndexStockCard)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request, op string, sync func(context.Context, string, []any) error) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w)
		return
	}

	if err := sync(r.Context(), req.ID, req.Entries); err != nil {
		h.logFailure(r, op, err)
		writeError(w, err)
		return
	}
	writeNoContent(w)
}
