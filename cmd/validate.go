package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/engine"
	"github.com/sells-group/farm-advisor/internal/normalize"
)

var validateInput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a field record without running the engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(validateInput, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return validateRecord(cmd.OutOrStdout(), raw, cfg.Engine)
	},
}

// validateRecord prints the gate verdict and any normalization warnings. It
// fails only when the gate rejects the record.
func validateRecord(w io.Writer, raw map[string]any, ec config.EngineConfig) error {
	ok, msg := engine.ValidateInputs(raw)
	fmt.Fprintln(w, msg)

	_, warnings := normalize.Normalize(raw, ec)
	for _, warn := range warnings {
		fmt.Fprintf(w, "  - %s\n", warn)
	}

	if !ok {
		return eris.Errorf("validate: %s", msg)
	}
	return nil
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "-", "JSON file with the field record (- for stdin)")
	rootCmd.AddCommand(validateCmd)
}
