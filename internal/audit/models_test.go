package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ludendorff/internal/docstore"
)

type ModelsSuite struct {
	suite.Suite
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) TestClassify() {
	doc := docstore.Document{"k": "v"}

	s.Run("after only is create", func() {
		op, ok := Classify(nil, doc)
		s.True(ok)
		s.Equal(OpCreate, op)
	})

	s.Run("before only is remove", func() {
		op, ok := Classify(doc, nil)
		s.True(ok)
		s.Equal(OpRemove, op)
	})

	s.Run("both is update", func() {
		op, ok := Classify(doc, doc)
		s.True(ok)
		s.Equal(OpUpdate, op)
	})

	s.Run("neither is unclassifiable", func() {
		_, ok := Classify(nil, nil)
		s.False(ok)
	})
}

func (s *ModelsSuite) TestActorFrom() {
	s.Run("decodes the actor triple", func() {
		actor, ok := actorFrom(docstore.Document{
			"actor": map[string]any{
				"actorId": "user-1",
				"name":    "Alice Reyes",
				"email":   "alice@example.com",
			},
		})
		s.True(ok)
		s.Equal(Actor{ActorID: "user-1", Name: "Alice Reyes", Email: "alice@example.com"}, actor)
	})

	s.Run("missing field is not ok", func() {
		_, ok := actorFrom(docstore.Document{"stockNumber": "ABC123"})
		s.False(ok)
	})

	s.Run("non-object actor is not ok", func() {
		_, ok := actorFrom(docstore.Document{"actor": "user-1"})
		s.False(ok)
	})

	s.Run("non-string triple fields decode as empty", func() {
		actor, ok := actorFrom(docstore.Document{
			"actor": map[string]any{"actorId": 42},
		})
		s.True(ok)
		s.Equal("", actor.ActorID)
	})
}

func (s *ModelsSuite) TestScrub() {
	doc := docstore.Document{
		"stockNumber": "ABC123",
		"actor":       map[string]any{"actorId": "user-1"},
	}
	scrubbed := scrub(doc)

	s.NotContains(scrubbed, "actor")
	s.Equal("ABC123", scrubbed["stockNumber"])
	// The source document keeps its actor; scrub works on a copy.
	s.Contains(doc, "actor")
}

func (s *ModelsSuite) TestLogEntryJSON() {
	entry := LogEntry{
		ID:         "internal-key",
		User:       Actor{ActorID: "user-1", Name: "Alice Reyes", Email: "alice@example.com"},
		RecordType: TypeAsset,
		Identifier: "ABC123",
		Operation:  OpUpdate,
		Data: Snapshots{
			Before: docstore.Document{"unitValue": 5},
			After:  docstore.Document{"unitValue": 7},
		},
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}

	raw, err := json.Marshal(entry)
	s.Require().NoError(err)

	var decoded map[string]any
	s.Require().NoError(json.Unmarshal(raw, &decoded))

	s.Run("storage key never serializes", func() {
		s.NotContains(decoded, "ID")
		s.NotContains(decoded, "id")
	})

	s.Run("wire field names match the record layout", func() {
		s.Contains(decoded, "user")
		s.Contains(decoded, "recordType")
		s.Contains(decoded, "identifier")
		s.Contains(decoded, "operation")
		s.Contains(decoded, "data")
		s.Contains(decoded, "timestamp")

		user := decoded["user"].(map[string]any)
		s.Equal("user-1", user["actorId"])

		data := decoded["data"].(map[string]any)
		s.Contains(data, "before")
		s.Contains(data, "after")
	})
}

func (s *ModelsSuite) TestWatched() {
	descs := Watched()
	s.Len(descs, 8)

	byType := make(map[RecordType]Descriptor, len(descs))
	for _, d := range descs {
		byType[d.RecordType] = d
	}

	s.Run("every collection identifies by the top-level key", func() {
		for _, d := range descs {
			s.Equal("id", d.IdentifierParam, d.Pattern)
		}
	})

	s.Run("nested collections are watched under their parents", func() {
		s.Equal("inventories/{id}/inventoryItems/{stockNumber}", byType[TypeInventoryItem].Pattern)
		s.Equal("issued/{id}/issuedItems/{itemId}", byType[TypeIssuedItem].Pattern)
		s.Equal("cards/{id}/entries/{entryId}", byType[TypeCardEntry].Pattern)
	})
}
