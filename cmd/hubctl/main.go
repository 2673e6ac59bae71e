// Command hubctl runs administrative tasks against the hub database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hubctl",
	Short: "Administrative tasks for the community hub",
	Long: `hubctl runs maintenance tasks against the hub database.

Available commands:
  migrate - Create or update the schema
  user    - Create users
  token   - Issue a development access token
  logs    - Print the audit log of a community`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := logging.InitLogger(&loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.GetLogger().Sync()
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd, userCmd, tokenCmd, logsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
