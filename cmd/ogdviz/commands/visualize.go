package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/graph"
	grapherr "github.com/opengamedata/ogdviz/graph/error"
	"github.com/opengamedata/ogdviz/visualizer"
)

// VisualizeCmd fetches one visualization and prints a summary of its model.
var VisualizeCmd = &cobra.Command{
	Use:   "visualize <visualizer> [Name=value ...]",
	Short: "Fetch and summarize one visualization",
	Long: `Select a visualizer, apply filter assignments, validate, fetch through the
local cache and print the resulting model.

Visualizers: job_graph, histogram, scatterplot, player_timeline.
Ranges are written min..max; either bound may be * to leave it open.

Examples:
  ogdviz visualize job_graph Game=AQUALAB DateRange=2024-01-01..2024-01-31
  ogdviz visualize histogram Game=WAVES "Session or Player=Session" Metric=SessionDuration
  ogdviz visualize player_timeline "Player ID=SunnyGoldenLobster"
  ogdviz visualize job_graph --transition switch --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVisualize,
}

var (
	visualizeJSON       bool
	visualizeTransition string
)

func init() {
	VisualizeCmd.Flags().BoolVar(&visualizeJSON, "json", false, "Print the model as JSON")
	VisualizeCmd.Flags().StringVar(&visualizeTransition, "transition", "", "Job graph transition kind: completion, switch or in_progress")
}

func runVisualize(cmd *cobra.Command, args []string) error {
	kind, err := visualizer.ParseKind(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	model, err := visualizeWith(ctx, s, kind, args[1:], visualizeTransition)
	if err != nil {
		return err
	}

	if visualizeJSON {
		data, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal model")
		}
		fmt.Println(string(data))
		return nil
	}
	return printModel(model)
}

// visualizeWith drives the container through select, adjust, commit and visualize.
func visualizeWith(ctx context.Context, s *session, kind visualizer.Kind, assignments []string, transition string) (visualizer.Model, error) {
	if err := s.dash.Select(kind); err != nil {
		return nil, err
	}
	if transition != "" {
		tk, err := graph.ParseTransitionKind(transition)
		if err != nil {
			return nil, err
		}
		if _, err := s.dash.SetTransitionKind(tk); err != nil {
			return nil, err
		}
	}
	if len(assignments) > 0 {
		if _, err := s.dash.AdjustLine(shellquote.Join(assignments...)); err != nil {
			return nil, err
		}
	}
	if err := s.dash.Commit(); err != nil {
		return nil, userError(err)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Fetching " + kind.Label() + " data...")
	model, err := s.dash.Visualize(ctx)
	if err != nil {
		if spinner != nil {
			spinner.Fail("Fetch failed")
		}
		return nil, userError(err)
	}
	if spinner != nil {
		spinner.Success("Loaded " + kind.Label())
	}
	return model, nil
}

// userError attaches the display message as a hint when it says more than err.
func userError(err error) error {
	msg := grapherr.Classify(err).ToUIMessage()
	if msg == "" || msg == err.Error() {
		return err
	}
	return errors.WithHint(err, msg)
}

func printModel(model visualizer.Model) error {
	if m, ok := model.(visualizer.InitialModel); ok {
		pterm.Info.Printfln("Choose a visualizer for %s", m.Game)
		return nil
	}
	if model == nil || model.IsEmpty() {
		pterm.Warning.Println("No data for these filters")
		return nil
	}
	switch m := model.(type) {
	case *graph.JobGraph:
		return printJobGraph(m)
	case *visualizer.HistogramModel:
		return printHistogram(m)
	case *visualizer.ScatterplotModel:
		return printScatterplot(m)
	case *visualizer.TimelineModel:
		return printTimeline(m)
	default:
		return errors.AssertionFailedf("unexpected model %T", model)
	}
}

func printJobGraph(g *graph.JobGraph) error {
	pterm.DefaultSection.Printfln("%s job graph (%s)", g.Meta.Game, g.Meta.TransitionKind)

	data := pterm.TableData{{"Job", "Players", "Completion", "Avg time"}}
	for _, n := range g.Nodes {
		avg := "-"
		if v, ok := graph.NumberAttr(n, graph.AttrAvgTime); ok {
			avg = strconv.FormatFloat(v, 'f', 1, 64)
		}
		data = append(data, []string{
			n.ID,
			strconv.Itoa(len(n.Players)),
			strconv.FormatFloat(graph.CompletionRatio(n), 'f', 2, 64),
			avg,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	if len(g.Links) > 0 {
		links := pterm.TableData{{"From", "To", "Players"}}
		for _, l := range g.Links {
			links = append(links, []string{l.Source, l.Target, strconv.Itoa(l.Value)})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(links).Render(); err != nil {
			return err
		}
	}
	pterm.Info.Printfln("%d jobs, %d links, %d players", g.Meta.Stats.TotalNodes, g.Meta.Stats.TotalLinks, g.Meta.Stats.TotalPlayers)
	if g.Meta.Stats.Omitted > 0 {
		pterm.Warning.Printfln("%d fields could not be used", g.Meta.Stats.Omitted)
	}
	return nil
}

func printHistogram(m *visualizer.HistogramModel) error {
	pterm.DefaultSection.Printfln("%s: %s", m.Game, m.Metric)
	bars := make(pterm.Bars, 0, len(m.Bins))
	for _, b := range m.Bins {
		bars = append(bars, pterm.Bar{
			Label: fmt.Sprintf("%g-%g", b.Lower, b.Upper),
			Value: b.Count,
		})
	}
	if err := pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("n=%d min=%g max=%g mean=%.2f skipped=%d", m.Count, m.Min, m.Max, m.Mean, m.Skipped)
	return nil
}

func printScatterplot(m *visualizer.ScatterplotModel) error {
	pterm.DefaultSection.Printfln("%s: %s vs %s", m.Game, m.XMetric, m.YMetric)
	data := pterm.TableData{{"ID", m.XMetric, m.YMetric}}
	for _, p := range m.Points {
		data = append(data, []string{p.ID, strconv.FormatFloat(p.X, 'g', -1, 64), strconv.FormatFloat(p.Y, 'g', -1, 64)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d points, x in [%g, %g], y in [%g, %g], skipped %d",
		len(m.Points), m.MinX, m.MaxX, m.MinY, m.MaxY, m.Skipped)
	return nil
}

func printTimeline(m *visualizer.TimelineModel) error {
	pterm.DefaultSection.Printfln("Player %s: %d sessions, %ds total", m.Meta.PlayerID, m.Meta.SessionCount, m.Meta.TotalTime)
	data := pterm.TableData{{"+s", "Duration", "Type", "Event"}}
	for _, e := range m.Events {
		data = append(data, []string{
			strconv.FormatInt(e.Timestamp, 10),
			strconv.FormatInt(e.Duration, 10),
			e.Type,
			e.Name,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
