package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oldmangrizzz/looktony/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	Long: `Display the configuration the engine would run with.

Configuration is read from ~/.config/looktony/config.yaml, overridden by a
project-local .looktony.yaml (searched upward from the current directory),
and finally by LOOKTONY_* environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("engine.event_buffer: %d\n", cfg.Engine.EventBuffer)
		fmt.Printf("engine.default_layer: %s\n", cfg.Engine.DefaultLayer)
		fmt.Printf("protocols.dir: %s\n", cfg.Protocols.Dir)
		fmt.Printf("protocols.watch: %t\n", cfg.Protocols.Watch)
		fmt.Printf("state.enabled: %t\n", cfg.State.Enabled)
		fmt.Printf("state.path: %s\n", displayPath(cfg.State.Path))
		fmt.Printf("logging.debug_log: %s\n", displayPath(cfg.Logging.DebugLog))

		fmt.Println()
		fmt.Printf("user config: %s\n", config.GetUserConfigPath())
		if project := config.GetProjectConfigPath(); project != "" {
			fmt.Printf("project config: %s\n", project)
		}
	},
}

func displayPath(p string) string {
	if p == "" {
		return "(default)"
	}
	return p
}
