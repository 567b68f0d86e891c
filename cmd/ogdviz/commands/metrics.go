package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opengamedata/ogdviz/ogdapi"
	"github.com/opengamedata/ogdviz/payload"
	"github.com/opengamedata/ogdviz/request"
)

// MetricsCmd lists the metrics the service can compute for a game.
var MetricsCmd = &cobra.Command{
	Use:   "metrics [game]",
	Short: "List the metrics the service offers for a game",
	Long: `Fetch the feature list for a game at the given scope. Lists are
cached like any other payload. Metrics the catalog uses for a visualization
are marked.

Examples:
  ogdviz metrics AQUALAB
  ogdviz metrics WAVES --scope player`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMetrics,
}

var metricsScope string

func init() {
	MetricsCmd.Flags().StringVar(&metricsScope, "scope", "session", "Scope: population, player or session")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	scope, err := request.ParseScope(metricsScope)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	game := s.catalog.DefaultGame()
	if len(args) == 1 {
		game = args[0]
	}

	d, err := request.FeatureList(scope, game)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	raw, err := s.results.GetOrFetch(ctx, d.CacheKey(), func(ctx context.Context) (payload.Raw, error) {
		return s.client.Fetch(ctx, d)
	})
	if err != nil {
		return userError(err)
	}
	names, err := ogdapi.DecodeMetricList(raw)
	if err != nil {
		return err
	}

	used := map[string]bool{}
	if g, ok := s.catalog.Lookup(game); ok {
		for _, metrics := range g.Metrics {
			for _, m := range metrics {
				used[m] = true
			}
		}
	}

	pterm.DefaultSection.Printfln("%s %s metrics (%d)", game, scope, len(names))
	items := make([]pterm.BulletListItem, 0, len(names))
	for _, name := range names {
		item := pterm.BulletListItem{Level: 0, Text: name}
		if used[name] {
			item.Text += " *"
		}
		items = append(items, item)
	}
	return pterm.DefaultBulletList.WithItems(items).Render()
}
