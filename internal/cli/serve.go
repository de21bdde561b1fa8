package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/codetrail/internal/api"
	"github.com/roach88/codetrail/internal/course"
	"github.com/roach88/codetrail/internal/exec"
	"github.com/roach88/codetrail/internal/feedback"
	"github.com/roach88/codetrail/internal/progress"
	"github.com/roach88/codetrail/internal/puzzle"
	"github.com/roach88/codetrail/internal/submit"
	"github.com/roach88/codetrail/internal/trace"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database    string
	TraceDB     string
	EntriesDB   string
	Catalog     string
	ExecutorURL string
	Listen      string
	GitHubRepo  string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the course backend",
		Long: `Start the course backend HTTP service.

Loads the course catalog, opens the SQLite databases (creating them if
they don't exist), and serves the operation API on the listen address.
Feedback is filed to GitHub when --github-repo is set and GITHUB_TOKEN
is present; otherwise feedback is logged.

Example:
  codetrail serve --db ./codetrail.db --catalog ./course.yaml --executor-url http://localhost:8080/run
  codetrail serve --db /tmp/dev.db --catalog ./course.yaml --executor-url http://localhost:8080/run --entries-db ./entries.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to progress SQLite database (required)")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "path to trace SQLite database (defaults to <db>.trace)")
	cmd.Flags().StringVar(&opts.EntriesDB, "entries-db", "", "path to submission-log SQLite database (empty = submissions not persisted)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "path to course catalog (required)")
	cmd.Flags().StringVar(&opts.ExecutorURL, "executor-url", "", "URL of the sandboxed code executor (required)")
	cmd.Flags().StringVar(&opts.Listen, "listen", ":8300", "listen address")
	cmd.Flags().StringVar(&opts.GitHubRepo, "github-repo", "", `feedback repository as "owner/repo"`)
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("executor-url")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	slog.Info("loading catalog", "path", opts.Catalog)
	catalog, loadErrors := course.Load(opts.Catalog)
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load catalog", loadErrors[0])
	}
	slog.Info("catalog loaded", "pages", catalog.Len())

	slog.Info("opening database", "path", opts.Database)
	store, err := progress.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	traceDB := opts.TraceDB
	if traceDB == "" {
		traceDB = opts.Database + ".trace"
	}
	traces, err := trace.Open(traceDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer func() {
		if closeErr := traces.Close(); closeErr != nil {
			slog.Error("error closing trace database", "error", closeErr)
		}
	}()

	serviceOpts := []submit.ServiceOption{}
	if opts.EntriesDB != "" {
		entries, err := submit.OpenEntryStore(opts.EntriesDB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open submission-log database", err)
		}
		defer func() {
			if closeErr := entries.Close(); closeErr != nil {
				slog.Error("error closing submission-log database", "error", closeErr)
			}
		}()
		serviceOpts = append(serviceOpts, submit.WithEntryRecorder(entries))
	}

	var filer feedback.Filer = logFiler{}
	if opts.GitHubRepo != "" {
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			return NewExitError(ExitCommandError, "--github-repo requires GITHUB_TOKEN in the environment")
		}
		filer = feedback.NewGitHub(opts.GitHubRepo, token)
	}

	tracker := progress.NewTracker(catalog, store)
	runner := exec.NewHTTPRunner(opts.ExecutorURL)
	service := submit.NewService(catalog, tracker, runner, traces, serviceOpts...)
	dispatcher := api.New(catalog, store, tracker, service, puzzle.NewGenerator(puzzle.RandShuffler{}), filer, api.LogReporter{})
	server := api.NewServer(dispatcher, store, api.UUIDGenerator{})

	httpServer := &http.Server{
		Addr:              opts.Listen,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM. The command's context takes
	// the same path so tests can stop the server.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("service starting", "listen", opts.Listen, "executor", opts.ExecutorURL)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", opts.Listen)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "server error", err)
	}

	slog.Info("service stopped gracefully")
	return nil
}

// logFiler records feedback in the service log when no issue tracker is
// configured.
type logFiler struct{}

// File implements feedback.Filer.
func (logFiler) File(_ context.Context, issue feedback.Issue) error {
	slog.Info("feedback received", "title", issue.Title, "labels", issue.Labels)
	slog.Debug("feedback body", "body", issue.Body)
	return nil
}
