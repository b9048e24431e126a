package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dtable/internal/compiler"
	"github.com/roach88/dtable/internal/source"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Files    int                        `json:"files"`
	Tables   int                        `json:"tables"`
	Commands int                        `json:"commands"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [specs-dir]",
		Short: "Validate rule tables and commands without evaluating them",
		Long: `Validate the CSV rule tables, YAML command files and CUE specs of a
directory.

Checks table shape, coordinate syntax and name collisions, and reports
potential table reference cycles as warnings. Nothing is evaluated.

Exit codes:
  0 - All specs valid
  1 - Validation failed
  2 - Command error (directory not found, unreadable files, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadProject(opts)
	if err != nil {
		return err
	}
	dir := specsDir(cfg, args)

	loadResult, loadErrors := source.Load(dir, source.LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *source.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(f, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(f, source.ErrCodeGeneric, loadErrors[0].Error())
	}

	f.VerboseLog("Found %d spec file(s) in %s", loadResult.FileCount, dir)

	// Unparseable files are reported alongside shape errors.
	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		ve := compiler.ValidationError{Field: "load", Message: err.Error(), Code: source.ErrCodeGeneric}
		var loadErr *source.LoadError
		if errors.As(err, &loadErr) {
			ve.Field = loadErr.File
			ve.Message = loadErr.Message
			ve.Code = loadErr.Code
			ve.Line = loadErr.Line
		}
		validationErrors = append(validationErrors, ve)
	}

	bundle := loadResult.Bundle
	for _, t := range bundle.Tables {
		f.VerboseLog("Validating table: %s", t.Name)
	}
	for _, c := range bundle.Commands {
		f.VerboseLog("Validating command: %s", c.Name)
	}
	validationErrors = append(validationErrors, compiler.Validate(bundle)...)

	result := ValidationResult{
		Valid:    len(validationErrors) == 0,
		Files:    loadResult.FileCount,
		Tables:   len(bundle.Tables),
		Commands: len(bundle.Commands),
		Errors:   validationErrors,
		Warnings: compiler.AnalyzeDependencies(bundle),
	}

	if !result.Valid {
		return outputValidationErrors(f, result)
	}
	return outputValidateSuccess(f, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(f *OutputFormatter, result ValidationResult) error {
	if f.IsJSON() {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "✓ All specs valid (%d table(s), %d command(s))\n", result.Tables, result.Commands)
	outputWarnings(f, result.Warnings)
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(f *OutputFormatter, code, message string) error {
	_ = f.Error(code, message, nil)
	// Unreadable input is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if f.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := f.encode(response); err != nil {
			return err
		}
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)

	for _, err := range errs {
		switch {
		case err.Field != "" && err.Line > 0:
			fmt.Fprintf(f.Writer, "%s (line %d)\n", err.Field, err.Line)
		case err.Line > 0:
			fmt.Fprintf(f.Writer, "line %d\n", err.Line)
		case err.Field != "":
			fmt.Fprintln(f.Writer, err.Field)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	outputWarnings(f, result.Warnings)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func outputWarnings(f *OutputFormatter, warnings []compiler.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(f.Writer, "⚠ %s\n", w.Message)
	}
}
