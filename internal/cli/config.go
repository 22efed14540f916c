package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatdock/chatdock/internal/infrastructure/config"
)

var schemaWrite bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Inspect the config file, print the resolved settings, or emit the JSON schema.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println(app.ConfigManager.GetConfigFile())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the config file contents",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := app.ConfigManager.GetConfigFile()
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println(app.Theme.Subtle.Render("no config file yet; defaults are in effect"))
				fmt.Println(app.Theme.Subtle.Render("expected at: " + path))
				return nil
			}
			return fmt.Errorf("read config file: %w", err)
		}
		fmt.Println(app.Theme.Title.Render(path))
		fmt.Print(string(data))
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the config JSON schema",
	Long:  `Print the JSON schema describing the config file, for editor completion. Use --write to place config.schema.json next to the config file.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if schemaWrite {
			if err := config.GenerateSchemaFile(); err != nil {
				return fmt.Errorf("write schema file: %w", err)
			}
			dir, err := config.GetConfigDir()
			if err == nil {
				fmt.Println(app.Theme.SuccessStyle.Render("schema written to " + dir + "/config.schema.json"))
			}
			return nil
		}
		data, err := config.GenerateSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	configSchemaCmd.Flags().BoolVar(&schemaWrite, "write", false, "write the schema next to the config file")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSchemaCmd)
	rootCmd.AddCommand(configCmd)
}
