package protocol

import (
	"github.com/singer-io/tap-stripe/logger"
	"github.com/spf13/cobra"
)

// specCmd prints the connector's config specification.
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "spec command",
	RunE: func(_ *cobra.Command, _ []string) error {
		logger.LogSpec(connector.Spec())
		return nil
	},
}
