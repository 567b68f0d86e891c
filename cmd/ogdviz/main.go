package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opengamedata/ogdviz/cmd/ogdviz/commands"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ogdviz",
	Short: "ogdviz - OpenGameData telemetry dashboard",
	Long: `ogdviz - OpenGameData telemetry dashboard.

Fetches gameplay metrics from the OpenGameData service, caches them locally
and turns them into job graphs, histograms, scatterplots and player timelines.

Available commands:
  visualize - Fetch and summarize one visualization
  layout    - Run the job graph force layout and export the positions
  serve     - Start the render server (REST + WebSocket)
  metrics   - List the metrics the service offers for a game
  cache     - Inspect or clear the local payload cache
  am        - Show or change configuration
  version   - Show build information

Examples:
  ogdviz visualize job_graph Game=AQUALAB DateRange=2024-01-01..2024-01-31
  ogdviz layout Game=AQUALAB --ticks 300 -o aqualab.yaml
  ogdviz serve --port 8740
  ogdviz cache ls`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")

	rootCmd.AddCommand(commands.VisualizeCmd)
	rootCmd.AddCommand(commands.LayoutCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.MetricsCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
