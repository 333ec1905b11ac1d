package randid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEntryID(t *testing.T) {
	t.Run("length is 20", func(t *testing.T) {
		assert.Len(t, NewEntryID(), EntryIDLength)
	})

	t.Run("draws only from the alphanumeric alphabet", func(t *testing.T) {
		for range 200 {
			id := NewEntryID()
			for _, r := range id {
				assert.Contains(t, Alphanumeric, string(r))
			}
		}
	})

	t.Run("does not repeat across calls", func(t *testing.T) {
		seen := make(map[string]struct{}, 10000)
		for range 10000 {
			id := NewEntryID()
			_, dup := seen[id]
			assert.False(t, dup, "duplicate id %s", id)
			seen[id] = struct{}{}
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("respects requested length", func(t *testing.T) {
		for _, n := range []int{1, 8, 20, 64} {
			assert.Len(t, New(n), n)
		}
	})

	t.Run("covers the whole alphabet eventually", func(t *testing.T) {
		var sb strings.Builder
		for range 500 {
			sb.WriteString(New(20))
		}
		got := sb.String()
		for _, r := range Alphanumeric {
			assert.Contains(t, got, string(r))
		}
	})
}

func TestPassword(t *testing.T) {
	t.Run("length is as requested", func(t *testing.T) {
		assert.Len(t, Password(8), 8)
	})

	t.Run("characters come from the password alphabet", func(t *testing.T) {
		for range 100 {
			for _, r := range Password(8) {
				assert.Contains(t, passwordAlphabet, string(r))
			}
		}
	})
}
