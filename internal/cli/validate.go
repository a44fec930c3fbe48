package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                 `json:"valid"`
	Entries int                  `json:"entries,omitempty"`
	Hash    string               `json:"hash,omitempty"`
	Errors  []ir.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <descriptors>",
		Short: "Validate a descriptor file or CUE package",
		Long: `Load descriptors (.yaml, .yml, .cue or a CUE package directory) and
report every structural problem found, without mirroring anything.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	specs, err := descriptor.Load(path)
	if err != nil {
		return loadFailure(formatter, path, err)
	}
	formatter.VerboseLog("Loaded %d librar(ies) from %s", len(specs), path)

	if errs := descriptor.Validate(specs); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	table, err := descriptor.Build(specs)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeInvalid, "invalid descriptors", err)
	}

	result := ValidationResult{Valid: true, Entries: table.Len(), Hash: table.Hash()}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Descriptors valid (%d entries, hash %s)\n", result.Entries, result.Hash[:12])
	return nil
}

// outputValidationErrors outputs every validation error and fails with
// exit code 1.
func outputValidationErrors(formatter *OutputFormatter, errs []ir.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: errs[0].Error(),
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeInvalid, err.Error())
	}
	return failure
}
