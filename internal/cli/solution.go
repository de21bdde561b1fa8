package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/codetrail/internal/course"
	"github.com/roach88/codetrail/internal/puzzle"
)

// SolutionOptions holds flags for the solution command.
type SolutionOptions struct {
	*RootOptions
	Seed uint64
}

// NewSolutionCommand creates the solution command.
func NewSolutionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolutionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solution <catalog-file> <page-index> <step-index>",
		Short: "Generate the solution puzzle for a step",
		Long: `Generate the shuffled solution puzzle for one catalog step.

Tokenizes the step's solution (or its program for informational steps)
and prints the token list with the masked indices in presentation order.

Example:
  codetrail solution ./course.yaml 0 1
  codetrail solution ./course.yaml 0 1 --seed 7 --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolution(opts, args, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for a reproducible shuffle (0 = random)")

	return cmd
}

func runSolution(opts *SolutionOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pageIndex, err := strconv.Atoi(args[1])
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("page index %q is not an integer", args[1]))
	}
	stepIndex, err := strconv.Atoi(args[2])
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("step index %q is not an integer", args[2]))
	}

	catalog, loadErrors := course.Load(args[0])
	if len(loadErrors) > 0 {
		return WrapExitError(ExitCommandError, "failed to load catalog", loadErrors[0])
	}

	page, step, err := catalog.ResolveStep(pageIndex, stepIndex)
	if err != nil {
		return WrapExitError(ExitCommandError, "no such step", err)
	}
	formatter.VerboseLog("step %s/%s", page.Slug, step.Name)

	var shuffler puzzle.Shuffler = puzzle.RandShuffler{}
	if opts.Seed != 0 {
		shuffler = puzzle.NewSeededShuffler(opts.Seed)
	}
	spec := puzzle.NewGenerator(shuffler).Generate(step.PuzzleProgram())

	if formatter.Format == "json" {
		return formatter.Success(spec)
	}

	fmt.Fprintf(formatter.Writer, "%s/%s: %d token(s), %d masked\n", page.Slug, step.Name, len(spec.Tokens), len(spec.MaskedIndices))
	for i, tok := range spec.Tokens {
		marker := " "
		if spec.Mask[i] {
			marker = "*"
		}
		fmt.Fprintf(formatter.Writer, "%s %3d %q\n", marker, i, tok)
	}
	fmt.Fprintf(formatter.Writer, "order: %v\n", spec.MaskedIndices)
	return nil
}
