package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specparse"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Simplify bool
}

// ParseResult is the parsed form of a query.
type ParseResult struct {
	Query     string         `json:"query"`
	Canonical string         `json:"canonical"`
	Tree      map[string]any `json:"tree"`

	// Problems lists structural mistakes that parse but can never match
	// as intended, such as a range with its bounds reversed.
	Problems []string `json:"problems,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a where clause and print its canonical form",
		Long: `Parse a where clause without a catalog.

Prints the canonical query text, which parses back to the same tree, and
with --format json the tree itself. Structural problems, such as a range
whose lower bound exceeds its upper bound, are reported as warnings.

Examples:
  nodeql parse 'p.name:jo* AND NOT r.knows.id:null'
  nodeql parse --simplify '(code:A OR *:*) AND n:3'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Simplify, "simplify", false, "simplify the tree before printing")

	return cmd
}

func runParse(opts *ParseOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	parsed, err := specparse.Parse(query)
	if err != nil {
		var pe *specparse.ParseError
		if errors.As(err, &pe) {
			return outputQueryError(formatter, err, map[string]any{
				"position":  pe.Pos,
				"remainder": pe.Remainder,
			})
		}
		return outputQueryError(formatter, err, nil)
	}
	if opts.Simplify {
		parsed = spec.Simplify(parsed)
	}

	result := ParseResult{
		Query:     query,
		Canonical: parsed.String(),
		Tree:      spec.Describe(parsed),
		Problems:  spec.Validate(parsed).Problems,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.Canonical)
	for _, p := range result.Problems {
		fmt.Fprintf(formatter.ErrWriter, "warning: %s\n", p)
	}
	return nil
}
