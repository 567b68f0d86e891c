package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/server"
	"github.com/opengamedata/ogdviz/version"
)

// ServeCmd starts the render server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the render server (REST + WebSocket)",
	Long: `Serve one dashboard session over HTTP. Clients drive it through the /api
endpoints and receive layout frames over /ws. Layout parameters and allowed
origins are reloaded when the config file changes.`,
	RunE: runServe,
}

var (
	servePort  int
	serveWatch bool
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: server.port)")
	ServeCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload layout settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	port := servePort
	if port == 0 {
		port = s.cfg.Server.Port
	}

	srv := server.New(s.dash, server.Options{
		Catalog:        s.catalog,
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		Logger:         logger.Logger,
	})

	if serveWatch {
		if path := watchedConfigPath(); path != "" {
			watcher, err := am.NewConfigWatcher(path)
			if err != nil {
				pterm.Warning.Printfln("Config reload disabled: %v", err)
			} else {
				srv.WatchConfig(watcher)
				pterm.Info.Printfln("Watching %s", path)
			}
		}
	}

	pterm.DefaultSection.Println("ogdviz render server")
	pterm.Info.Printfln("Version:  %s", version.Short())
	pterm.Info.Printfln("Upstream: %s", s.client.BaseURL())
	pterm.Info.Printfln("Cache:    %s (%s)", s.cfg.Cache.Path, s.cfg.Cache.Backend)
	pterm.Info.Printfln("Listening on port %d (Ctrl+C to stop)", port)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server stopped")
	case <-sigChan:
		pterm.Info.Println("Shutting down...")
		if err := srv.Stop(); err != nil {
			return err
		}
		return <-errChan
	}
}

// watchedConfigPath prefers the project am.toml, then the user file if it exists.
func watchedConfigPath() string {
	if p := am.FindProjectConfig(); p != "" {
		return p
	}
	if p := am.UserConfigPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
