// Package shell assembles the GTK application: the main window, the webview
// surface host, and the orchestration manager.
package shell

import (
	"context"

	"github.com/jwijenbergh/puregotk/v4/gio"
	"github.com/jwijenbergh/puregotk/v4/gtk"
	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/infrastructure/config"
	"github.com/chatdock/chatdock/internal/infrastructure/webkit"
	"github.com/chatdock/chatdock/internal/logging"
	"github.com/chatdock/chatdock/internal/ui/orchestrator"
	"github.com/chatdock/chatdock/internal/ui/window"
)

// Dependencies holds everything the shell needs from the outside.
type Dependencies struct {
	Ctx           context.Context
	Config        *config.Config
	ConfigManager *config.Manager
	Store         port.StateStore
}

// App is the running GTK application.
type App struct {
	deps   *Dependencies
	logger zerolog.Logger

	gtkApp  *gtk.Application
	win     *window.MainWindow
	host    *webkit.SurfaceHost
	loop    *webkit.MainLoop
	manager *orchestrator.Manager

	headerLabel *gtk.Label

	// keeps signal callback references alive for the app's lifetime
	retainedCallbacks []interface{}
}

// New creates the shell app.
func New(deps *Dependencies) (*App, error) {
	if deps == nil || deps.Config == nil {
		return nil, window.WindowError{Message: "shell dependencies incomplete"}
	}
	log := logging.FromContext(deps.Ctx)
	return &App{
		deps:   deps,
		logger: log.With().Str("component", "shell").Logger(),
	}, nil
}

// Run starts the GTK main loop and blocks until the application exits.
// Returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	log := logging.FromContext(ctx)

	a.gtkApp = gtk.NewApplication(nil, gio.GApplicationFlagsNoneValue)
	if a.gtkApp == nil {
		log.Error().Msg("failed to create GTK application")
		return 1
	}
	defer a.gtkApp.Unref()

	activateCb := func(_ gio.Application) {
		a.onActivate(ctx)
	}
	a.gtkApp.ConnectActivate(&activateCb)

	shutdownCb := func(_ gio.Application) {
		a.onShutdown(ctx)
	}
	a.gtkApp.ConnectShutdown(&shutdownCb)
	a.retainedCallbacks = append(a.retainedCallbacks, &activateCb, &shutdownCb)

	log.Info().Msg("starting GTK main loop")
	return a.gtkApp.Run(len(args), args)
}

// Quit requests the application to quit.
func (a *App) Quit() {
	if a.gtkApp != nil {
		a.gtkApp.Quit()
	}
}

// Manager returns the orchestration manager; nil before activation.
func (a *App) Manager() *orchestrator.Manager {
	return a.manager
}

func (a *App) onActivate(ctx context.Context) {
	log := logging.FromContext(ctx)
	cfg := a.deps.Config

	win, err := window.New(ctx, a.gtkApp, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create main window")
		return
	}
	a.win = win

	a.loop = webkit.NewMainLoop(cfg.Layout.FrameIntervalMs)
	a.host = webkit.NewSurfaceHost(ctx, webkit.SurfaceHostConfig{
		Layer:  win.Layer(),
		Origin: win.LayerOrigin,
		Invoke: a.loop.Invoke,
	})

	a.manager = orchestrator.NewManager(ctx, orchestrator.ManagerConfig{
		Host:      a.host,
		Window:    win,
		Events:    win,
		Post:      a.loop.PostFrame,
		Store:     a.deps.Store,
		Capacity:  cfg.Cache.Capacity,
		Platforms: cfg.Descriptors(),
	})

	a.buildHeader()
	a.buildRail(ctx, cfg.Descriptors())
	a.watchConfig()

	// Close-request teardown is wired per group by the event bridge; quit the
	// main loop once the window goes away. The subscription lives as long as
	// the app, so the unsubscribe func is dropped.
	win.OnCloseRequested(func() {
		a.Quit()
	})

	win.Show()

	for _, coord := range a.manager.Groups() {
		group := coord.Group()
		if err := a.manager.RestoreLastActive(ctx, group); err != nil {
			log.Warn().Err(err).Str("group", string(group)).Msg("failed to restore last platform")
		}
	}
}

func (a *App) onShutdown(ctx context.Context) {
	if a.manager != nil {
		a.manager.Shutdown(ctx)
	}
	a.logger.Info().Msg("application shut down")
}

// buildHeader places the active-platform label in the header bar.
func (a *App) buildHeader() {
	a.headerLabel = gtk.NewLabel(nil)
	if a.headerLabel == nil {
		return
	}
	a.headerLabel.AddCssClass("active-platform")
	a.headerLabel.SetVisible(true)
	a.win.Header().Append(&a.headerLabel.Widget)

	for _, coord := range a.manager.Groups() {
		coord.SetOnSurfaceReady(func(group entity.GroupID, id entity.PlatformID) {
			a.logger.Debug().
				Str("group", string(group)).
				Str("platform", string(id)).
				Msg("surface ready")
		})
	}
}

// buildRail fills the sidebar with one button per enabled platform, grouped
// in descriptor order (chat first).
func (a *App) buildRail(ctx context.Context, descs []entity.PlatformDescriptor) {
	var lastGroup entity.GroupID
	for _, desc := range descs {
		if !desc.Enabled {
			continue
		}
		if lastGroup != "" && desc.Group != lastGroup {
			sep := gtk.NewSeparator(gtk.OrientationHorizontalValue)
			if sep != nil {
				sep.SetVisible(true)
				a.win.Sidebar().Append(&sep.Widget)
			}
		}
		lastGroup = desc.Group

		btn := gtk.NewButtonWithLabel(railGlyph(desc.Name))
		if btn == nil {
			continue
		}
		btn.SetTooltipText(&desc.Name)
		btn.AddCssClass("rail-button")
		btn.SetVisible(true)

		desc := desc
		cb := func(_ gtk.Button) {
			a.selectPlatform(ctx, desc)
		}
		a.retainedCallbacks = append(a.retainedCallbacks, &cb)
		btn.ConnectClicked(&cb)

		a.win.Sidebar().Append(&btn.Widget)
	}
}

func (a *App) selectPlatform(ctx context.Context, desc entity.PlatformDescriptor) {
	coord, ok := a.manager.Group(desc.Group)
	if !ok {
		return
	}
	if err := coord.Select(ctx, desc.ID); err != nil {
		a.logger.Error().Err(err).
			Str("platform", string(desc.ID)).
			Msg("platform selection failed")
		return
	}
	if a.headerLabel != nil {
		a.headerLabel.SetText(desc.Name)
	}
}

// watchConfig reloads descriptors on config file changes. Platform set and
// proxy changes take effect on the next selection; already-live surfaces are
// left alone until then.
func (a *App) watchConfig() {
	if a.deps.ConfigManager == nil {
		return
	}
	a.deps.ConfigManager.OnConfigChange(func(cfg *config.Config) {
		a.loop.Invoke(func() {
			a.logger.Info().Msg("configuration reloaded")
			a.deps.Config = cfg
			a.manager.UpdatePlatforms(cfg.Descriptors())
		})
	})
}

// railGlyph shortens a platform name to a two-letter rail label.
func railGlyph(name string) string {
	runes := []rune(name)
	if len(runes) <= 2 {
		return name
	}
	return string(runes[:2])
}
