// Package searchsync pushes batches of line items to the external search
// index. Clients call it after batch-editing a report's or card's entries;
// it is independent of the audit pipeline and needs no permission check.
package searchsync

import (
	"context"
	"fmt"

	"ludendorff/internal/search"
	dErrors "ludendorff/pkg/domain-errors"
)

// Each report type lands in its own index under a type-specific field.
const (
	inventoryIndex = "inventories"
	issuedIndex    = "issued"
	cardIndex      = "cards"

	inventoryField = "inventoryItems"
	issuedField    = "issuedItems"
	cardField      = "entries"
)

type Service struct {
	index search.Index
}

func New(index search.Index) *Service {
	return &Service{index: index}
}

// IndexInventory attaches entries to the inventory report's index object.
func (s *Service) IndexInventory(ctx context.Context, id string, entries []any) error {
	return s.update(ctx, inventoryIndex, id, inventoryField, entries)
}

// IndexIssued attaches entries to the issued report's index object.
func (s *Service) IndexIssued(ctx context.Context, id string, entries []any) error {
	return s.update(ctx, issuedIndex, id, issuedField, entries)
}

// IndexStockCard attaches entries to the stock card's index object.
func (s *Service) IndexStockCard(ctx context.Context, id string, entries []any) error {
	return s.update(ctx, cardIndex, id, cardField, entries)
}

func (s *Service) update(ctx context.Context, index, id, field string, entries []any) error {
	if id == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	if err := s.index.PartialUpdate(ctx, index, id, field, entries); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("index update: %v", err))
	}
	return nil
}
