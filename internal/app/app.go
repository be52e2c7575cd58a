// Package app assembles the MorpheusAI components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/browser"
	"github.com/shubharthaksangharsha/morpheusAI/internal/config"
	"github.com/shubharthaksangharsha/morpheusAI/internal/editor"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/planner"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
	"github.com/shubharthaksangharsha/morpheusAI/internal/server"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
	"github.com/shubharthaksangharsha/morpheusAI/internal/storage"
	"github.com/shubharthaksangharsha/morpheusAI/internal/terminal"
	"github.com/shubharthaksangharsha/morpheusAI/internal/tool"
	"github.com/shubharthaksangharsha/morpheusAI/internal/watcher"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// Options adjust how the application is assembled.
type Options struct {
	// Offline skips provider setup; classification then always falls
	// back to the deterministic rules.
	Offline bool
	// Completer, when set, replaces the configured provider.
	Completer provider.Completer
	// Launcher replaces the go-rod browser launcher.
	Launcher browser.Launcher
	// NoWatch disables the editor sandbox watcher regardless of config.
	NoWatch bool
}

// App holds the assembled components.
type App struct {
	Config    *types.Config
	Bus       *event.Bus
	Storage   *storage.Storage
	Sessions  *session.Store
	Completer provider.Completer
	Registry  *agent.Registry
	Router    *router.Router

	Terminal *terminal.Worker
	Editor   *editor.Worker
	Browser  *browser.Worker
	Planner  *planner.Worker
	Tools    *tool.Worker

	watcher *watcher.Watcher
	untrace func()
}

// New loads configuration from workDir and builds every component. Worker
// initialization failures are logged; the worker stays registered and
// reports the failure on use.
func New(ctx context.Context, workDir string, opts Options) (*App, error) {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, fmt.Errorf("create data directories: %w", err)
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return Build(ctx, cfg, storage.New(paths.StoragePath()), opts)
}

// Build assembles the application from an already loaded configuration.
func Build(ctx context.Context, cfg *types.Config, store *storage.Storage, opts Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Bus:     event.NewBus(),
		Storage: store,
	}
	a.untrace = a.Bus.SubscribeAll(traceEvent)
	a.Sessions = session.NewStore(session.WithBus(a.Bus))
	a.Completer = a.completer(ctx, opts)
	bounded := provider.WithTimeout(a.Completer, config.CompletionTimeout(cfg))

	a.Terminal = terminal.New(cfg.Sandbox.CommandRoot,
		terminal.WithTimeout(config.CommandTimeout(cfg)),
		terminal.WithCompleter(bounded),
		terminal.WithBus(a.Bus),
	)

	ed, err := editor.New(cfg.Sandbox.EditorRoot,
		editor.WithCompleter(bounded),
		editor.WithBus(a.Bus),
	)
	if err != nil {
		a.Bus.Close()
		return nil, err
	}
	a.Editor = ed

	launch := opts.Launcher
	if launch == nil {
		headless := cfg.Browser.Headless == nil || *cfg.Browser.Headless
		launch = browser.RodLauncher(headless, cfg.Browser.Bin)
	}
	a.Browser = browser.New(launch, cfg.Sandbox.ScreenshotDir,
		browser.WithNavigationTimeout(config.NavigationTimeout(cfg)),
		browser.WithCompleter(bounded),
		browser.WithBus(a.Bus),
	)

	a.Planner = planner.New(
		planner.WithStorage(store),
		planner.WithCompleter(bounded),
	)

	a.Tools = tool.New(
		tool.WithStorage(store),
		tool.WithCompleter(bounded),
		tool.WithDefinitionsFile(cfg.Tools.DefinitionsFile),
		tool.WithCredentials(cfg.Tools.APIKeys),
	)

	a.Registry, err = agent.NewRegistry(a.Terminal, a.Editor, a.Browser, a.Planner, a.Tools)
	if err != nil {
		a.Bus.Close()
		return nil, err
	}
	if err := a.Registry.InitializeAll(ctx); err != nil {
		logging.Warn().Err(err).Msg("some agents failed to initialize")
	}

	a.Router = router.New(a.Registry, a.Completer,
		router.WithStore(a.Sessions),
		router.WithHistoryWindow(cfg.Router.HistoryWindow),
		router.WithPersona(cfg.Router.Persona),
		router.WithAnswerTimeout(config.CompletionTimeout(cfg)),
	)

	watch := cfg.Sandbox.Watch == nil || *cfg.Sandbox.Watch
	if watch && !opts.NoWatch {
		w, err := watcher.New(a.Editor.Root(), a.Bus, editor.DefaultIgnore...)
		if err != nil {
			logging.Warn().Err(err).Msg("sandbox watcher disabled")
		} else {
			w.Start()
			a.watcher = w
		}
	}

	logging.Info().
		Int("agents", a.Registry.Count()).
		Str("commandRoot", a.Terminal.Root()).
		Str("editorRoot", a.Editor.Root()).
		Msg("MorpheusAI ready")
	return a, nil
}

// traceEvent logs every bus event at debug level.
func traceEvent(e event.Event) {
	logging.Debug().
		Str("event", string(e.Type)).
		Str("sessionID", event.SessionID(e)).
		Msg("bus event")
}

func (a *App) completer(ctx context.Context, opts Options) provider.Completer {
	switch {
	case opts.Completer != nil:
		return opts.Completer
	case opts.Offline:
		return provider.Unavailable{}
	}

	c, err := provider.New(ctx, a.Config)
	if err != nil {
		if errors.Is(err, provider.ErrNoProvider) {
			logging.Warn().Msg("no completion provider configured, using fallback routing only")
		} else {
			logging.Warn().Err(err).Msg("completion provider unavailable, using fallback routing only")
		}
		return provider.Unavailable{}
	}
	return c
}

// Server builds the HTTP API over the application.
func (a *App) Server(port int) *server.Server {
	cfg := server.DefaultConfig()
	if port > 0 {
		cfg.Port = port
	} else if a.Config.Server.Port > 0 {
		cfg.Port = a.Config.Server.Port
	}
	if a.Config.Server.CORS != nil {
		cfg.EnableCORS = *a.Config.Server.CORS
	}
	return server.New(cfg, a.Sessions, a.Router, a.Bus)
}

// Close stops the watcher, shuts the workers down and closes the bus.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop())
	}
	errs = append(errs, a.Registry.ShutdownAll(ctx))
	a.untrace()
	errs = append(errs, a.Bus.Close())
	return errors.Join(errs...)
}
