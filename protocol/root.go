package protocol

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/singer-io/tap-stripe/constants"
	"github.com/singer-io/tap-stripe/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath     string
	catalogPath    string
	propertiesPath string
	statePath      string
	discoverMode   bool

	connector Driver
)

// RootCmd implements the tap entrypoint: sync by default, discovery with
// --discover. check and spec remain available as subcommands.
var RootCmd = &cobra.Command{
	Use:   "tap-stripe",
	Short: "Singer tap for the Stripe billing API",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// local .env may carry the client secret during development
		_ = godotenv.Load()

		if configPath == "" {
			return fmt.Errorf("--config not passed")
		}

		viper.SetDefault(constants.ConfigFolder, filepath.Dir(configPath))
		if statePath != "" {
			viper.Set(constants.StatePath, statePath)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()

		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		if discoverMode {
			return runDiscover()
		}
		return runSync()
	},
}

// catalogFile resolves --catalog with --properties kept as a legacy alias.
func catalogFile() string {
	if catalogPath != "" {
		return catalogPath
	}
	return propertiesPath
}

func CreateRootCommand(driver Driver) *cobra.Command {
	connector = driver
	return RootCmd
}

func init() {
	RootCmd.AddCommand(checkCmd, specCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "(Required) Path to config file")
	RootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "", "", "Path to catalog file")
	RootCmd.PersistentFlags().StringVarP(&propertiesPath, "properties", "p", "", "Path to catalog file (legacy alias)")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "s", "", "Path to state file")
	RootCmd.Flags().BoolVarP(&discoverMode, "discover", "d", false, "Run discovery and print the catalog")
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
