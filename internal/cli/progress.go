package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/codetrail/internal/course"
	"github.com/roach88/codetrail/internal/progress"
)

// ProgressOptions holds flags for the progress command.
type ProgressOptions struct {
	*RootOptions
	Database string
	Catalog  string
}

// LearnerReport is the progress command's output payload.
type LearnerReport struct {
	LearnerID     string `json:"learner_id"`
	Email         string `json:"email"`
	DeveloperMode bool   `json:"developer_mode"`
	PageSlug      string `json:"page_slug,omitempty"`
	PagesProgress []int  `json:"pages_progress"`
}

// NewProgressCommand creates the progress command.
func NewProgressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProgressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "progress <learner-id>",
		Short: "Show a learner's course progress",
		Long: `Show a learner's recorded progress across all catalog pages.

Example:
  codetrail progress --db ./codetrail.db --catalog ./course.yaml learner-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgress(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "path to course catalog (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func runProgress(opts *ProgressOptions, learnerID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	catalog, loadErrors := course.Load(opts.Catalog)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load catalog", loadErrors[0])
	}

	store, err := progress.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	learner, err := store.Learner(ctx, learnerID)
	if errors.Is(err, progress.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown learner %q", learnerID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read learner", err)
	}

	rec, err := store.Progress(ctx, learnerID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read progress", err)
	}

	snap := progress.NewTracker(catalog, store).CurrentState(rec)
	report := LearnerReport{
		LearnerID:     learner.ID,
		Email:         learner.Email,
		DeveloperMode: learner.DeveloperMode,
		PageSlug:      learner.PageSlug,
		PagesProgress: snap.PagesProgress,
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "learner %s <%s>\n", report.LearnerID, report.Email)
	if report.PageSlug != "" {
		fmt.Fprintf(formatter.Writer, "current page: %s\n", report.PageSlug)
	}
	for i, page := range catalog.Pages() {
		fmt.Fprintf(formatter.Writer, "  %-20s %d/%d\n", page.Slug, snap.PagesProgress[i], page.StepCount())
	}
	return nil
}
