// Package changefeed moves change notifications from the record store to
// the trigger dispatcher. All transports deliver at-least-once; ordering is
// preserved per document path, not across documents.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"ludendorff/internal/docstore"
)

// HandlerFunc processes one change. A non-nil error asks the transport not
// to acknowledge the message (redelivery where the transport supports it).
type HandlerFunc func(ctx context.Context, change docstore.Change) error

// Consumer delivers changes to a handler until ctx is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handle HandlerFunc) error
}

// Encode serializes a change for wire transports.
func Encode(change docstore.Change) ([]byte, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("encode change: %w", err)
	}
	return payload, nil
}

// Decode deserializes a wire payload back into a change.
func Decode(payload []byte) (docstore.Change, error) {
	var change docstore.Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return docstore.Change{}, fmt.Errorf("decode change: %w", err)
	}
	return change, nil
}
