package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oldmangrizzz/looktony/internal/protocol"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate protocol definition files",
	Long: `Validate one or more protocol definition files without loading them
into a running engine.

Checks performed:
  - YAML parses into a protocol definition with an id
  - At least one step is declared
  - Every next_steps reference names a step in the same protocol

With --strict, the step graph is additionally checked for cycles. A cycle in
next_steps causes unbounded re-progression at runtime.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Also reject step graphs containing cycles")
}

func runValidate(cmd *cobra.Command, args []string) error {
	failures := 0
	for _, path := range args {
		if err := validateFile(path); err != nil {
			printStatus("✗", fmt.Sprintf("%s: %v", path, err), color.FgRed)
			failures++
			continue
		}
		printStatus("✓", path, color.FgGreen)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed validation", failures, len(args))
	}
	return nil
}

func validateFile(path string) error {
	p, err := protocol.LoadFile(path)
	if err != nil {
		return err
	}
	if err := protocol.Validate(p); err != nil {
		return err
	}
	if validateStrict {
		if err := protocol.DetectCycles(p); err != nil {
			return err
		}
	}
	return nil
}

// printStatus prints a colored status line.
func printStatus(symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	c.Printf("%s ", symbol)
	fmt.Println(message)
}
