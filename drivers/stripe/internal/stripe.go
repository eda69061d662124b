package driver

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/singer-io/tap-stripe/constants"
	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/types"
)

type Stripe struct {
	config *Config
	client *Client
}

// config reference; must be pointer
func (s *Stripe) GetConfigRef() any {
	s.config = &Config{}
	return s.config
}

func (s *Stripe) Type() string {
	return "Stripe"
}

func (s *Stripe) Spec() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"client_secret":          map[string]any{"type": "string", "required": true, "secret": true},
			"account_id":             map[string]any{"type": "string", "required": true},
			"start_date":             map[string]any{"type": "string", "required": true, "format": "date-time"},
			"date_window_size":       map[string]any{"type": "number", "default": defaultDateWindowDays},
			"event_date_window_size": map[string]any{"type": "number", "default": defaultEventDateWindowDays},
			"lookback_window":        map[string]any{"type": "integer", "default": defaultLookbackSeconds},
			"request_timeout":        map[string]any{"type": "integer", "default": defaultRequestTimeoutSec},
			"whitelist_map":          map[string]any{"type": "string"},
			"user_agent":             map[string]any{"type": "string"},
		},
	}
}

// Setup validates config and verifies connectivity by retrieving the account.
func (s *Stripe) Setup() error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.client = NewClient(s.config)
	account, err := s.client.Account()
	if err != nil {
		return fmt.Errorf("failed to connect to account %s: %s", s.config.AccountID, err)
	}

	logger.Infof("Successfully connected to account with display name `%v`", account["display_name"])
	return nil
}

// Discover builds the catalog: every stream's resolved schema plus metadata
// marking key and replication fields as automatically included.
func (s *Stripe) Discover() (*types.Catalog, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	catalog := &types.Catalog{Streams: []*types.CatalogEntry{}}
	for _, def := range streamDefs {
		schema, found := schemas[def.Name]
		if !found {
			return nil, fmt.Errorf("no schema file for stream %s", def.Name)
		}

		automatic := map[string]bool{}
		for _, field := range def.AutomaticFields() {
			automatic[field] = true
		}

		metadata := []types.Metadata{{
			Breadcrumb: []string{},
			Metadata: types.MetadataFields{
				ForcedReplicationMethod: types.ReplicationMethodIncremental,
				TableKeyProperties:      def.KeyProperties,
				ValidReplicationKeys:    validReplicationKeys(def),
			},
		}}
		if properties, ok := schema["properties"].(map[string]any); ok {
			for field := range properties {
				inclusion := types.InclusionAvailable
				if automatic[field] {
					inclusion = types.InclusionAutomatic
				}
				metadata = append(metadata, types.Metadata{
					Breadcrumb: []string{"properties", field},
					Metadata:   types.MetadataFields{Inclusion: inclusion},
				})
			}
		}

		catalog.Streams = append(catalog.Streams, &types.CatalogEntry{
			Stream:            def.Name,
			TapStreamID:       def.Name,
			Schema:            schema,
			Metadata:          metadata,
			KeyProperties:     def.KeyProperties,
			ReplicationKey:    def.ReplicationKey,
			ReplicationMethod: types.ReplicationMethodIncremental,
		})
	}

	return catalog, nil
}

func validReplicationKeys(def StreamDef) []string {
	if def.ReplicationKey == "" {
		return nil
	}
	return []string{def.ReplicationKey}
}

// validateDependencies fails fast when any child stream is selected without
// its parent, reporting every violation found.
func validateDependencies(selected map[string]bool) error {
	var errs *multierror.Error
	for _, def := range streamDefs {
		if def.Parent == "" || !selected[def.Name] {
			continue
		}
		if !selected[def.Parent] {
			errs = multierror.Append(errs, fmt.Errorf(
				"unable to extract %s data: to receive %s data, you also need to select %s",
				def.Name, def.Name, def.Parent))
		}
	}
	return errs.ErrorOrNil()
}

// Sync runs the creation pass for every selected top-level stream in catalog
// order, then the event-driven update pass per stream group.
func (s *Stripe) Sync(catalog *types.Catalog, state *types.State) error {
	selected := catalog.SelectedSet()
	if err := validateDependencies(selected); err != nil {
		return err
	}

	entries := catalog.EntriesByID()
	transformers := map[string]*Transformer{}
	for _, def := range streamDefs {
		if !selected[def.Name] {
			continue
		}
		entry, found := entries[def.Name]
		if !found {
			return fmt.Errorf("selected stream %s missing from catalog", def.Name)
		}
		transformers[def.Name] = NewTransformer(entry.Schema, def.AutomaticFields(), s.config.whitelist[def.Name])
	}

	ctx := &SyncContext{
		Config:       s.config,
		State:        state,
		Client:       s.client,
		Selected:     selected,
		Transformers: transformers,
		Counters:     NewCounters(),
		// captured once so windowed walks terminate
		Now: time.Now().Unix(),
	}

	for _, def := range streamDefs {
		if !selected[def.Name] {
			continue
		}
		entry := entries[def.Name]
		bookmarkProperties := []string{}
		if def.ReplicationKey != "" {
			bookmarkProperties = append(bookmarkProperties, def.ReplicationKey)
		}
		bookmarkProperties = append(bookmarkProperties, constants.UpdatedField)
		logger.LogSchema(def.Name, entry.Schema, def.KeyProperties, bookmarkProperties)
	}

	for _, def := range streamDefs {
		if !selected[def.Name] || def.Parent != "" {
			continue
		}
		logger.Infof("Syncing stream %s", def.Name)
		streamStartTime := time.Now()
		if err := syncerFor(def, selected).Sync(ctx); err != nil {
			return fmt.Errorf("stream %s: %s", def.Name, err)
		}
		ctx.flushState()
		logger.Infof("Finished stream %s in %s", def.Name, time.Since(streamStartTime).String())
	}

	for _, def := range streamDefs {
		if !selected[def.Name] || def.Parent != "" || def.EventType == "" {
			continue
		}
		logger.Infof("Syncing event updates for stream %s", def.Name)
		if err := ctx.syncEventUpdates(def); err != nil {
			return fmt.Errorf("stream %s updates: %s", def.Name, err)
		}
		ctx.flushState()
	}

	ctx.Counters.Report()
	return nil
}
