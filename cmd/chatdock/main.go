package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/chatdock/chatdock/internal/cli"
	"github.com/chatdock/chatdock/internal/logging"
	"github.com/chatdock/chatdock/internal/ui/shell"
)

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, buildDate)
	cli.SetGUIRunner(runGUI)
	cli.Execute()
}

func runGUI(app *cli.App) error {
	runtime.LockOSThread()

	ctx := app.Context()
	log := logging.FromContext(ctx)
	log.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Msg("starting chatdock")

	if app.Config.Logging.CaptureNative {
		capture := logging.NewOutputCapture(app.Logger)
		if err := capture.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to capture native output")
		} else {
			defer capture.Stop()
		}
	}

	if err := app.ConfigManager.Watch(); err != nil {
		log.Warn().Err(err).Msg("failed to watch config file")
	}

	gui, err := shell.New(&shell.Dependencies{
		Ctx:           ctx,
		Config:        app.Config,
		ConfigManager: app.ConfigManager,
		Store:         app.Store,
	})
	if err != nil {
		return fmt.Errorf("create shell: %w", err)
	}

	setupSignalHandler(gui)

	// GTK parses argv itself; pass only the program name so subcommand
	// arguments never reach it.
	if code := gui.Run(ctx, os.Args[:1]); code != 0 {
		return fmt.Errorf("shell exited with code %d", code)
	}
	return nil
}

func setupSignalHandler(gui *shell.App) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		signal.Stop(sigCh)
		gui.Quit()
	}()
}
