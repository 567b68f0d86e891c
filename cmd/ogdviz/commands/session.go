package commands

import (
	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/cache"
	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/dashboard"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/ogdapi"
)

// session is everything a command needs to run the dashboard pipeline.
type session struct {
	cfg     *am.Config
	catalog *catalog.Catalog
	results *cache.ResultCache
	client  *ogdapi.Client
	dash    *dashboard.Container
}

func openSession() (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	results, err := cache.Open(cfg.Cache, logger.Logger)
	if err != nil {
		return nil, err
	}

	apiCfg := ogdapi.ConfigFromAM(cfg.API)
	apiCfg.Logger = logger.Logger
	client, err := ogdapi.NewClient(apiCfg)
	if err != nil {
		_ = results.Close()
		return nil, err
	}

	dash := dashboard.New(results, client, dashboard.Options{
		Catalog: cat,
		Layout:  layout.ParamsFrom(cfg.Layout),
		Logger:  logger.Logger,
	})
	return &session{cfg: cfg, catalog: cat, results: results, client: client, dash: dash}, nil
}

func (s *session) Close() {
	s.dash.Close()
	if err := s.results.Close(); err != nil {
		logger.Warnw("Failed to close cache", logger.FieldError, err)
	}
}

// openCache opens only the payload cache, for commands that never fetch.
func openCache() (*cache.ResultCache, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cache.Open(cfg.Cache, logger.Logger)
}
