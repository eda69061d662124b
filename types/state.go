package types

import (
	"sync"

	"github.com/goccy/go-json"
)

// UpdatesBookmarkKey is the bookmark key used by the event-driven update pass.
const UpdatesBookmarkKey = "updates_created"

// Streams whose native replication key differs from the stored bookmark key.
// A lookup against the query-filter field is redirected to the stored key so
// callers never need to know the distinction.
var bookmarkKeyRedirects = map[string]map[string]string{
	"invoices":      {"created": "date"},
	"invoice_items": {"created": "date"},
}

// State is the resumable sync progress of a run: a nested mapping from stream
// name to named bookmark values (integer epoch seconds). The update pass for a
// stream keeps its bookmark under the derived "<stream>_events" namespace.
type State struct {
	Mutex     *sync.Mutex                 `json:"-"`
	Bookmarks map[string]map[string]int64 `json:"bookmarks"`
}

func NewState() *State {
	return &State{
		Mutex:     &sync.Mutex{},
		Bookmarks: map[string]map[string]int64{},
	}
}

// UnmarshalJSON tolerates a missing or partial bookmarks block; absent keys
// mean no prior progress.
func (s *State) UnmarshalJSON(data []byte) error {
	type alias State
	aux := &struct{ *alias }{alias: (*alias)(s)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]map[string]int64{}
	}
	if s.Mutex == nil {
		s.Mutex = &sync.Mutex{}
	}
	return nil
}

func redirected(stream, key string) string {
	if redirects, found := bookmarkKeyRedirects[stream]; found {
		if stored, found := redirects[key]; found {
			return stored
		}
	}
	return key
}

// Get returns the bookmark for (stream, key); false when no prior progress.
func (s *State) Get(stream, key string) (int64, bool) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()

	entries, found := s.Bookmarks[stream]
	if !found {
		return 0, false
	}
	value, found := entries[redirected(stream, key)]
	return value, found
}

// Set advances the bookmark for (stream, key). Bookmarks only ever move
// forward; a smaller value is dropped.
func (s *State) Set(stream, key string, value int64) {
	if stream == "" || key == "" {
		return
	}

	s.Mutex.Lock()
	defer s.Mutex.Unlock()

	key = redirected(stream, key)
	entries, found := s.Bookmarks[stream]
	if !found {
		entries = map[string]int64{}
		s.Bookmarks[stream] = entries
	}
	if current, found := entries[key]; found && value < current {
		return
	}
	entries[key] = value
}

func (s *State) IsZero() bool {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()

	return len(s.Bookmarks) == 0
}

// EventsStream derives the bookmark namespace used by a stream's update pass.
func EventsStream(stream string) string {
	return stream + "_events"
}
