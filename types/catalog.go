package types

// Record is a raw or normalized API object flowing through the sync engine.
type Record = map[string]any

// ReplicationMethod for every stream in this tap.
const ReplicationMethodIncremental = "INCREMENTAL"

// Field inclusion levels for discovery metadata.
const (
	InclusionAutomatic = "automatic"
	InclusionAvailable = "available"
)

// Catalog is the discovery document: one entry per stream.
type Catalog struct {
	Streams []*CatalogEntry `json:"streams"`
}

// CatalogEntry describes a single stream: its schema, primary key(s),
// replication key and per-field selection metadata.
type CatalogEntry struct {
	Stream            string         `json:"stream"`
	TapStreamID       string         `json:"tap_stream_id"`
	Schema            map[string]any `json:"schema"`
	Metadata          []Metadata     `json:"metadata"`
	KeyProperties     []string       `json:"key_properties"`
	ReplicationKey    string         `json:"replication_key,omitempty"`
	ReplicationMethod string         `json:"replication_method"`
}

// Metadata is a breadcrumb-addressed metadata row. The root breadcrumb (empty
// slice) carries stream-level flags; ["properties", <field>] rows carry
// per-field inclusion.
type Metadata struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   MetadataFields `json:"metadata"`
}

type MetadataFields struct {
	Selected                *bool    `json:"selected,omitempty"`
	Inclusion               string   `json:"inclusion,omitempty"`
	ForcedReplicationMethod string   `json:"forced-replication-method,omitempty"`
	ValidReplicationKeys    []string `json:"valid-replication-keys,omitempty"`
	TableKeyProperties      []string `json:"table-key-properties,omitempty"`
}

// IsSelected reports whether the stream's root breadcrumb carries a truthy
// selected flag.
func (e *CatalogEntry) IsSelected() bool {
	for _, row := range e.Metadata {
		if len(row.Breadcrumb) == 0 {
			return row.Metadata.Selected != nil && *row.Metadata.Selected
		}
	}
	return false
}

// SelectedSet returns the set of selected stream names.
func (c *Catalog) SelectedSet() map[string]bool {
	selected := map[string]bool{}
	for _, entry := range c.Streams {
		if entry.IsSelected() {
			selected[entry.TapStreamID] = true
		}
	}
	return selected
}

// EntriesByID maps tap_stream_id to its catalog entry.
func (c *Catalog) EntriesByID() map[string]*CatalogEntry {
	entries := map[string]*CatalogEntry{}
	for _, entry := range c.Streams {
		entries[entry.TapStreamID] = entry
	}
	return entries
}
