package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/filter"
	"github.com/opengamedata/ogdviz/graph"
	grapherr "github.com/opengamedata/ogdviz/graph/error"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/version"
	"github.com/opengamedata/ogdviz/visualizer"
)

// HandleWebSocket upgrades the connection and starts the client's pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"Failed to upgrade WebSocket connection",
		).WithSubcategory(grapherr.SubcategoryWSUpgrade)

		s.logger.Warnw("WebSocket upgrade failed", graphErr.ToLogFields()...)
		return
	}

	client := newClient(s, conn, fmt.Sprintf("%s_%d", r.RemoteAddr, time.Now().UnixNano()))
	if !s.register(client) {
		_ = conn.Close()
		return
	}

	// Queued before the pumps start so they are the first frames out.
	client.queue(Envelope{Type: MsgVersion, Data: version.Get()})
	client.queue(Envelope{Type: MsgStatus, Data: s.dash.Status()})

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Get(),
		Clients: s.clientCount(),
	})
}

// HandleVisualizers lists the selectable visualizations.
func (s *Server) HandleVisualizers(w http.ResponseWriter, r *http.Request) {
	kinds := visualizer.Kinds()
	out := make([]VisualizerInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, VisualizerInfo{ID: k.String(), Label: k.Label()})
	}
	_ = writeJSON(w, http.StatusOK, out)
}

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.dash.Status())
}

// HandleFilters returns the filter items with their pending values and the
// first validation failure, if any.
func (s *Server) HandleFilters(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.filtersView())
}

func (s *Server) filtersView() FiltersResponse {
	model := s.dash.FilterModel()
	pending := s.dash.Pending()

	resp := FiltersResponse{Visualizer: s.dash.Status().Visualizer.String()}
	for _, item := range model.Items() {
		resp.Items = append(resp.Items, FilterItemView{
			Name:    item.Name,
			Input:   item.Input.String(),
			Mode:    item.Mode.String(),
			Options: item.Options,
			Value:   pending[item.Name].Format(item.Input, item.Mode),
		})
	}
	if res := model.Validate(pending); !res.OK {
		resp.Error, resp.ErrorItem = res.Message, res.Item
	}
	return resp
}

func (s *Server) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if err := s.selectVisualizer(req.Visualizer); err != nil {
		writeFailure(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, s.filtersView())
}

func (s *Server) selectVisualizer(name string) error {
	kind, err := visualizer.ParseKind(name)
	if err != nil {
		return err
	}
	if err := s.dash.Select(kind); err != nil {
		return err
	}
	s.stateChanged()
	return nil
}

func (s *Server) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if err := s.adjust(req.Filters); err != nil {
		writeFailure(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, s.filtersView())
}

func (s *Server) HandleCommit(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Commit(); err != nil {
		writeFailure(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, s.dash.Status())
}

// HandleVisualize optionally selects a visualizer and applies filters, then
// commits and visualizes. It blocks until the model is built.
func (s *Server) HandleVisualize(w http.ResponseWriter, r *http.Request) {
	var req VisualizeRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	model, err := s.visualize(r.Context(), req)
	if err != nil {
		logger.FromContext(r.Context(), s.logger).Infow("Visualize failed", logger.FieldError, err)
		writeFailure(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, ModelResponse{Status: s.dash.Status(), Model: model})
}

func (s *Server) visualize(ctx context.Context, req VisualizeRequest) (visualizer.Model, error) {
	if req.Visualizer != "" {
		kind, err := visualizer.ParseKind(req.Visualizer)
		if err != nil {
			return nil, err
		}
		if kind != s.dash.Status().Visualizer {
			if err := s.dash.Select(kind); err != nil {
				return nil, err
			}
		}
	}
	if req.Filters != "" {
		if err := s.adjust(req.Filters); err != nil {
			return nil, err
		}
	}
	if err := s.dash.Commit(); err != nil {
		return nil, err
	}
	model, err := s.dash.Visualize(ctx)
	s.stateChanged()
	return model, err
}

func (s *Server) HandleTransition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	kind, err := graph.ParseTransitionKind(req.Kind)
	if err != nil {
		writeFailure(w, err)
		return
	}
	model, err := s.dash.SetTransitionKind(kind)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.stateChanged()
	_ = writeJSON(w, http.StatusOK, ModelResponse{Status: s.dash.Status(), Model: model})
}

func (s *Server) HandleModel(w http.ResponseWriter, r *http.Request) {
	model := s.dash.Model()
	if model == nil {
		writeFailure(w, errors.NewNotFoundError("no model has been built"))
		return
	}
	_ = writeJSON(w, http.StatusOK, ModelResponse{Status: s.dash.Status(), Model: model})
}

// HandleSnapshot returns the latest frame of the running layout.
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	runner := s.dash.Layout()
	if runner == nil {
		writeFailure(w, errors.NewNotFoundError("no layout is running"))
		return
	}
	_ = writeJSON(w, http.StatusOK, SnapshotResponse{Snapshot: runner.Latest()})
}

// HandlePlayers lists the players on a link (?source=&target=) or, for an
// in-progress graph, on a node (?node=).
func (s *Server) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source, target := q.Get("source"), q.Get("target")
	if node := q.Get("node"); node != "" {
		source, target = node, ""
	}
	if source == "" {
		writeFailure(w, errors.NewInvalidRequestError("either node or source and target are required"))
		return
	}
	list, err := s.dash.Players(source, target)
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, list)
}

// HandleOpenTimeline switches to the chosen player's timeline and visualizes it.
func (s *Server) HandleOpenTimeline(w http.ResponseWriter, r *http.Request) {
	var req TimelineRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	model, err := s.openTimeline(r.Context(), req.Player)
	if err != nil {
		writeFailure(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, ModelResponse{Status: s.dash.Status(), Model: model})
}

func (s *Server) openTimeline(ctx context.Context, player string) (visualizer.Model, error) {
	if err := s.dash.OpenTimeline(player); err != nil {
		return nil, err
	}
	s.stateChanged()
	model, err := s.dash.Visualize(ctx)
	s.stateChanged()
	return model, err
}

func (s *Server) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.ClearCache(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adjust applies an assignment line to the pending filters. Parse failures
// carry a hint with the expected syntax.
func (s *Server) adjust(line string) error {
	if _, err := s.dash.AdjustLine(line); err != nil {
		return errors.WithHint(err, "use Name=value pairs, ranges as Name=min"+filter.RangeSeparator+"max")
	}
	return nil
}
