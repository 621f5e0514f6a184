package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oldmangrizzz/looktony/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent protocol activity",
	Long: `Display recent activation episodes recorded by the engine.

Shows:
  - Activation episodes, newest first
  - Each episode's protocol, start time, and current status
  - The step executions recorded during each episode`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of activation episodes to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Get current working directory for project database
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	// Try project database first, then global
	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		dbPath = state.GlobalDBPath()
	}

	// Check if any database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No recorded activity. Run 'looktony run' to start the engine.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Ensure schema is up to date
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	activations, err := db.ListActivations(statusLimit)
	if err != nil {
		return fmt.Errorf("list activations: %w", err)
	}

	if len(activations) == 0 {
		fmt.Println("No recorded activity. Run 'looktony run' to start the engine.")
		return nil
	}

	for _, a := range activations {
		displayActivation(db, a)
	}
	return nil
}

func displayActivation(db *state.DB, a *state.Activation) {
	name := a.ProtocolName
	if name == "" {
		name = a.ProtocolID
	}

	statusColor := color.FgGreen
	if a.Status == state.ActivationDeactivated {
		statusColor = color.FgYellow
	}

	fmt.Printf("%s (%s)\n", name, a.ProtocolID)
	fmt.Printf("  started: %s\n", a.StartedAt.Local().Format(time.RFC822))
	if a.EndedAt != nil {
		fmt.Printf("  ended:   %s\n", a.EndedAt.Local().Format(time.RFC822))
	}
	color.New(statusColor).Printf("  status:  %s\n", a.Status)

	executions, err := db.ListStepExecutions(a.ID)
	if err != nil {
		fmt.Printf("  (failed to load step executions: %v)\n", err)
		return
	}
	for _, e := range executions {
		if e.Error != "" {
			color.New(color.FgRed).Printf("  ✗ %s: %s\n", e.StepID, e.Error)
			continue
		}
		marker := "·"
		if e.Complete {
			marker = "✓"
		}
		fmt.Printf("  %s %s\n", marker, e.StepID)
	}
	fmt.Println()
}
