package protocol

import (
	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/types"
	"github.com/singer-io/tap-stripe/utils"
	"github.com/spf13/cobra"
)

// checkCmd verifies config and upstream connectivity without syncing.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "check command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return utils.UnmarshalFile(configPath, connector.GetConfigRef())
	},
	Run: func(_ *cobra.Command, _ []string) {
		err := connector.Setup()
		if err != nil {
			logger.LogConnectionStatus(types.ConnectionFailed, err.Error())
			return
		}
		logger.LogConnectionStatus(types.ConnectionSucceed, "")
	},
}
