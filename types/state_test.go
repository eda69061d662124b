package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSetAndGet(t *testing.T) {
	s := NewState()

	_, found := s.Get("charges", "created")
	assert.False(t, found, "empty state should have no bookmark")

	s.Set("charges", "created", 1700000000)
	value, found := s.Get("charges", "created")
	require.True(t, found)
	assert.Equal(t, int64(1700000000), value)

	// empty stream or key is ignored
	s.Set("", "created", 5)
	s.Set("charges", "", 5)
	value, _ = s.Get("charges", "created")
	assert.Equal(t, int64(1700000000), value)
}

func TestStateBookmarksOnlyMoveForward(t *testing.T) {
	s := NewState()
	s.Set("charges", "created", 200)
	s.Set("charges", "created", 100)

	value, found := s.Get("charges", "created")
	require.True(t, found)
	assert.Equal(t, int64(200), value, "a smaller bookmark must never regress the stored value")

	s.Set("charges", "created", 300)
	value, _ = s.Get("charges", "created")
	assert.Equal(t, int64(300), value)
}

func TestStateInvoiceKeyRedirect(t *testing.T) {
	s := NewState()

	// bookmark stored under the native replication key
	s.Set("invoices", "date", 1650000000)

	// a lookup with the query-filter field lands on the same entry
	value, found := s.Get("invoices", "created")
	require.True(t, found)
	assert.Equal(t, int64(1650000000), value)

	// writes through the filter field also land on "date"
	s.Set("invoice_items", "created", 42)
	value, found = s.Get("invoice_items", "date")
	require.True(t, found)
	assert.Equal(t, int64(42), value)

	// non-invoice streams are untouched
	s.Set("charges", "created", 7)
	_, found = s.Get("charges", "date")
	assert.False(t, found)
}

func TestStateMarshalLayout(t *testing.T) {
	s := NewState()
	s.Set("charges", "created", 1700000000)
	s.Set(EventsStream("charges"), UpdatesBookmarkKey, 1700000100)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"bookmarks":{"charges":{"created":1700000000},"charges_events":{"updates_created":1700000100}}}`,
		string(raw))
}

func TestStateUnmarshalToleratesMissingKeys(t *testing.T) {
	var s State
	require.NoError(t, json.Unmarshal([]byte(`{}`), &s))
	assert.True(t, s.IsZero())

	// writable after decode
	s.Set("customers", "created", 9)
	value, found := s.Get("customers", "created")
	require.True(t, found)
	assert.Equal(t, int64(9), value)
}

func TestEventsStream(t *testing.T) {
	assert.Equal(t, "charges_events", EventsStream("charges"))
}
