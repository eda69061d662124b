package protocol

import (
	"errors"
	"fmt"

	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/utils"
)

func runDiscover() error {
	if err := utils.UnmarshalFile(configPath, connector.GetConfigRef()); err != nil {
		return err
	}

	if err := connector.Setup(); err != nil {
		return fmt.Errorf("failed to setup %s connector: %s", connector.Type(), err)
	}

	catalog, err := connector.Discover()
	if err != nil {
		return err
	}
	if len(catalog.Streams) == 0 {
		return errors.New("no streams found in connector")
	}

	logger.LogCatalog(catalog)
	return nil
}
