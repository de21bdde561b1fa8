package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/codetrail/internal/course"
)

// CatalogIssue is one catalog validation finding in serializable form.
type CatalogIssue struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Pages  int            `json:"pages"`
	Steps  int            `json:"steps"`
	Issues []CatalogIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-file>",
		Short: "Validate a course catalog",
		Long: `Validate a YAML course catalog against the course schema.

Checks YAML syntax, schema conformance (page slugs, step kinds, exercise
solutions), and slug/name uniqueness without starting the service.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	catalog, loadErrors := course.Load(catalogPath)
	if len(loadErrors) > 0 {
		issues := toIssues(loadErrors)
		// An unreadable or unparsable file is a command error, not a
		// catalog finding.
		if len(issues) == 1 && (issues[0].Code == course.ErrCodeFileRead || issues[0].Code == course.ErrCodeYAMLParse) {
			_ = formatter.Error(issues[0].Code, issues[0].Message, nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", issues[0].Code, issues[0].Message))
		}
		return outputValidationIssues(formatter, issues)
	}

	steps := 0
	for _, page := range catalog.Pages() {
		formatter.VerboseLog("page %s: %d step(s)", page.Slug, page.StepCount())
		steps += page.StepCount()
	}

	return outputValidateSuccess(formatter, ValidationResult{
		Valid: true,
		Pages: catalog.Len(),
		Steps: steps,
	})
}

func toIssues(errs []error) []CatalogIssue {
	issues := make([]CatalogIssue, 0, len(errs))
	for _, err := range errs {
		var loadErr *course.LoadError
		if errors.As(err, &loadErr) {
			issues = append(issues, CatalogIssue{
				Code:    loadErr.Code,
				Path:    loadErr.Path,
				Message: loadErr.Message,
			})
			continue
		}
		issues = append(issues, CatalogIssue{Code: course.ErrCodeSchema, Message: err.Error()})
	}
	return issues
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d page(s), %d step(s)\n", result.Pages, result.Steps)
	return nil
}

func outputValidationIssues(formatter *OutputFormatter, issues []CatalogIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Issues: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Path != "" {
			fmt.Fprintf(formatter.Writer, "%s\n", issue.Path)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
}
