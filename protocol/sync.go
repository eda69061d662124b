package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/types"
	"github.com/singer-io/tap-stripe/utils"
)

func runSync() error {
	if err := utils.UnmarshalFile(configPath, connector.GetConfigRef()); err != nil {
		return err
	}

	// default state; a missing file means no prior progress
	state := types.NewState()
	if statePath != "" {
		if err := utils.UnmarshalFile(statePath, state); err != nil {
			return err
		}
	}

	if err := connector.Setup(); err != nil {
		return fmt.Errorf("failed to setup %s connector: %s", connector.Type(), err)
	}

	// without a catalog, sync everything discovery finds
	catalog := &types.Catalog{}
	if path := catalogFile(); path != "" {
		if err := utils.UnmarshalFile(path, catalog); err != nil {
			return err
		}
	} else {
		discovered, err := connector.Discover()
		if err != nil {
			return err
		}
		selected := true
		for _, entry := range discovered.Streams {
			for idx := range entry.Metadata {
				if len(entry.Metadata[idx].Breadcrumb) == 0 {
					entry.Metadata[idx].Metadata.Selected = &selected
				}
			}
		}
		catalog = discovered
	}

	selected := []string{}
	for name := range catalog.SelectedSet() {
		selected = append(selected, name)
	}
	logger.Infof("Valid selected streams are %s", strings.Join(selected, ", "))

	syncStartTime := time.Now()
	if err := connector.Sync(catalog, state); err != nil {
		return fmt.Errorf("error occurred while syncing records: %s", err)
	}

	logger.Infof("Finished sync in %s", time.Since(syncStartTime).String())
	if !state.IsZero() {
		logger.LogState(state)
	}

	return nil
}
