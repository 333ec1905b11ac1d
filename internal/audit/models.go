// Package audit derives immutable log entries from record store changes.
// Every write to a watched collection yields exactly one entry describing
// who changed what, with before/after snapshots scrubbed of the transient
// actor metadata the client embedded in the record.
package audit

import (
	"context"
	"time"

	"ludendorff/internal/docstore"
)

// ActorField is the transient document field carrying who performed the
// write. It is consumed by the normalizer and must never persist.
const ActorField = "actor"

// Operation classifies a change by snapshot presence.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpRemove Operation = "remove"
)

// RecordType tags which watched collection a log entry belongs to.
type RecordType string

const (
	TypeAsset         RecordType = "asset"
	TypeInventory     RecordType = "inventory"
	TypeInventoryItem RecordType = "inventoryItem"
	TypeIssued        RecordType = "issued"
	TypeIssuedItem    RecordType = "issuedItem"
	TypeCard          RecordType = "card"
	TypeCardEntry     RecordType = "cardEntry"
	TypeUser          RecordType = "user"
)

// Actor identifies who performed a write, copied from the record's
// transient actor field.
type Actor struct {
	ActorID string `json:"actorId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// Snapshots holds the scrubbed before/after documents. Create and remove
// populate Before only; update populates both.
type Snapshots struct {
	Before docstore.Document `json:"before,omitempty"`
	After  docstore.Document `json:"after,omitempty"`
}

// LogEntry is one immutable audit record, keyed by a fresh 20-character id
// in the logs collection. Never updated or deleted by this subsystem.
type LogEntry struct {
	ID         string     `json:"-"`
	User       Actor      `json:"user"`
	RecordType RecordType `json:"recordType"`
	Identifier string     `json:"identifier"`
	Operation  Operation  `json:"operation"`
	Data       Snapshots  `json:"data"`
	Timestamp  time.Time  `json:"timestamp"`
}

// LogStore appends entries to the append-only log collection.
type LogStore interface {
	Append(ctx context.Context, entry LogEntry) error
}

// Classify derives the operation from snapshot presence. ok is false for
// the unreachable no-before/no-after case.
func Classify(before, after docstore.Document) (Operation, bool) {
	switch {
	case before != nil && after != nil:
		return OpUpdate, true
	case before != nil:
		return OpRemove, true
	case after != nil:
		return OpCreate, true
	default:
		return "", false
	}
}

// actorFrom decodes the actor triple from a snapshot. ok is false when the
// field is absent or not an object.
func actorFrom(doc docstore.Document) (Actor, bool) {
	raw, ok := doc[ActorField].(map[string]any)
	if !ok {
		return Actor{}, false
	}
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	return Actor{
		ActorID: str("actorId"),
		Name:    str("name"),
		Email:   str("email"),
	}, true
}

// scrub returns a copy of doc without the actor field. Snapshots must never
// store actor metadata.
func scrub(doc docstore.Document) docstore.Document {
	out := doc.Clone()
	delete(out, ActorField)
	return out
}
