package commands

import (
	"os"
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/graph"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/visualizer"
)

// LayoutCmd settles a job graph offline and writes the frame as YAML.
var LayoutCmd = &cobra.Command{
	Use:   "layout [Name=value ...]",
	Short: "Run the job graph force layout and export the positions",
	Long: `Fetch a job graph, run the force simulation until it converges (or --ticks
runs out) and write the resulting frame as YAML: node positions, radii and
colors, link endpoints and widths.

Examples:
  ogdviz layout Game=AQUALAB DateRange=2024-01-01..2024-01-31
  ogdviz layout Game=AQUALAB --transition switch -o aqualab-switch.yaml`,
	RunE: runLayout,
}

var (
	layoutTicks      int
	layoutOutput     string
	layoutTransition string
)

func init() {
	LayoutCmd.Flags().IntVar(&layoutTicks, "ticks", 300, "Maximum simulation ticks")
	LayoutCmd.Flags().StringVarP(&layoutOutput, "output", "o", "", "Write YAML to this file instead of stdout")
	LayoutCmd.Flags().StringVar(&layoutTransition, "transition", "", "Transition kind: completion, switch or in_progress")
}

func runLayout(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	model, err := visualizeWith(ctx, s, visualizer.JobGraph, args, layoutTransition)
	if err != nil {
		return err
	}
	g, ok := model.(*graph.JobGraph)
	if !ok {
		return errors.AssertionFailedf("job graph visualize returned %T", model)
	}
	if g.IsEmpty() {
		pterm.Warning.Println("No jobs for these filters")
		return nil
	}

	snap := settle(g, layout.ParamsFrom(s.cfg.Layout), layoutTicks)
	data, err := yaml.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal layout")
	}

	if layoutOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(layoutOutput, data, am.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", layoutOutput)
	}
	pterm.Success.Printfln("Wrote %d nodes after %d ticks to %s", len(snap.Nodes), snap.Tick, layoutOutput)
	return nil
}

// settle runs the simulation synchronously and renders the final frame unzoomed.
func settle(g *graph.JobGraph, p layout.Params, ticks int) layout.Snapshot {
	engine := layout.NewEngine(g, p)
	engine.Settle(ticks)
	return engine.Snapshot(layout.NewStyle(g, p), layout.IdentityView())
}
