package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/glimmerlab/graphview/internal/config"
	"github.com/glimmerlab/graphview/internal/ui"
	"github.com/glimmerlab/graphview/pkg/graph"
	"github.com/glimmerlab/graphview/pkg/graphview"
	"github.com/glimmerlab/graphview/pkg/layout"
	"github.com/glimmerlab/graphview/pkg/server"
)

func newServeCommand() *cobra.Command {
	var host string
	var port int
	var useTUI bool
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve <graph-file>",
		Short: "Serve a graph file in the browser",
		Long: `Starts the diagram server for a graph file. Connected browsers get live
updates when the file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args[0], host, port, useTUI, noWatch)
		},
	}

	cmd.Flags().StringVarP(&host, "host", "H", "", "host to bind to (overrides graphview.json)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides graphview.json)")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show the terminal dashboard")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable file watching")

	return cmd
}

func runServe(graphPath, host string, port int, useTUI, noWatch bool) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "graphview",
	})

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if noWatch {
		cfg.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Fail early on an unreadable or malformed graph file.
	if _, err := graph.Load(graphPath); err != nil {
		return fmt.Errorf("loading %s: %w", graphPath, err)
	}

	provider := func() (*graph.Graph, error) {
		return graph.Load(graphPath)
	}

	engine := layout.NewForceEngine(cfg.LayoutConfig())
	srv := server.New(server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Width:     cfg.View.Width,
		Height:    cfg.View.Height,
		AssetsDir: cfg.Server.AssetsDir,
		Title:     cfg.View.Title,
	}, provider, logger, graphview.WithEngine(engine))

	notifyReload := func(err error) {}
	notifySessions := func(n int) {}
	serverErr := make(chan error, 1)

	var program *tea.Program
	if useTUI {
		// Log lines would tear the dashboard.
		logger.SetOutput(io.Discard)
		model := ui.NewModel(srv.Config().Addr(), graphPath, cfg.Watch, func() {
			srv.Live().Broadcast()
		})
		program = tea.NewProgram(model)
		notifyReload = func(err error) {
			program.Send(ui.ReloadMsg{At: time.Now(), Err: err})
		}
		notifySessions = func(n int) {
			program.Send(ui.SessionsMsg(n))
		}
	}

	if cfg.Watch {
		watcher, err := watchGraph(graphPath, logger, srv, notifyReload)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	if !useTUI {
		return <-serverErr
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			notifySessions(srv.Live().SessionCount())
		}
	}()
	go func() {
		err := <-serverErr
		program.Send(ui.ServerErrMsg{Err: err})
	}()

	_, err = program.Run()
	return err
}

// watchGraph rebroadcasts to connected sessions when the graph file changes.
// Editors replace files rather than writing in place, so the watch covers the
// directory and filters on the file name.
func watchGraph(graphPath string, logger *log.Logger, srv *server.Server, notify func(error)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(graphPath)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		var lastReload time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// Editors fire bursts of events per save.
				if time.Since(lastReload) < 100*time.Millisecond {
					continue
				}
				lastReload = time.Now()

				logger.Info("graph changed, rebroadcasting", "file", graphPath)
				if _, err := graph.Load(graphPath); err != nil {
					logger.Error("reload failed", "err", err)
					notify(err)
					continue
				}
				srv.Live().Broadcast()
				notify(nil)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("watch error", "err", err)
			}
		}
	}()

	return watcher, nil
}
