package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	app *App

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"

	// runGUI is injected by main.go; the GTK stack never leaks into this
	// package so CLI-only invocations stay headless.
	runGUI func(*App) error
)

var rootCmd = &cobra.Command{
	Use:   "chatdock",
	Short: "A dock for AI chat and translation platforms",
	Long: `Chatdock - one window for every AI chat and translation platform.

A GTK4 shell that embeds ChatGPT, Claude, Gemini, DeepL and friends as
managed webviews. Switching platforms is instant: pages stay loaded in a
bounded cache, so chat history and half-typed prompts survive.

Run without arguments to launch the dock, or use the subcommands for
headless operations.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if runGUI == nil {
			return cmd.Help()
		}
		return runGUI(app)
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch cmd.Name() {
		case "help", "completion", "version":
			return nil
		}
		var err error
		app, err = NewApp()
		if err != nil {
			return fmt.Errorf("initialize app: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if app != nil {
			_ = app.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("chatdock %s\n", buildVersion)
		fmt.Printf("commit: %s\n", buildCommit)
		fmt.Printf("built: %s\n", buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// SetBuildInfo records the build metadata stamped by the linker (called from
// main.go before Execute).
func SetBuildInfo(version, commit, date string) {
	buildVersion, buildCommit, buildDate = version, commit, date
}

// SetGUIRunner injects the GTK launcher invoked by the bare root command.
func SetGUIRunner(fn func(*App) error) {
	runGUI = fn
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
