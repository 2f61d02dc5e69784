package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nodeql/internal/spec"
	"github.com/roach88/nodeql/internal/specsearch"
	"github.com/roach88/nodeql/internal/specsql"
)

// Compile targets.
const (
	TargetSQL    = "sql"
	TargetSearch = "search"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Target  string // "sql" | "search"
	Dialect string // "sqlite" | "postgres"
}

// CompilationResult is a where clause compiled for one viewing type.
type CompilationResult struct {
	Type   string `json:"type"`
	Query  string `json:"query"`
	Spec   string `json:"spec"`
	Target string `json:"target"`

	// SQL and Params are set for the sql target.
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	// Search is the bleve query for the search target.
	Search json.RawMessage `json:"search,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph.Type> <query>",
		Short: "Compile a where clause to SQL or a search query",
		Long: `Compile a where clause for a viewing type.

The clause is scoped to the type, indirect graph and type references are
replaced by ids, and reference paths are resolved against the configured
store. The resolved tree is then compiled for the target backend.

Examples:
  nodeql compile --catalog ./catalog acme.Person 'code:PERSON-1'
  nodeql compile --catalog ./catalog --target search acme.Person 'p.name:john'
  nodeql compile --catalog ./catalog --sqlite-path people.db acme.Person 'r.knows.code:PERSON-3'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", TargetSQL, "compile target (sql|search)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|postgres)")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, typeName, query string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	compiler := specsql.NewSQLCompiler()
	switch opts.Dialect {
	case "sqlite":
	case "postgres":
		compiler.Dialect = specsql.Postgres
	default:
		return outputCompileError(formatter, ErrCodeConfig, fmt.Sprintf("unknown dialect %q", opts.Dialect))
	}
	if opts.Target != TargetSQL && opts.Target != TargetSearch {
		return outputCompileError(formatter, ErrCodeConfig, fmt.Sprintf("unknown target %q", opts.Target))
	}

	sess, err := openSession(ctx, opts.Settings())
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer sess.Close()

	viewing, err := sess.viewingType(typeName)
	if err != nil {
		return outputQueryError(formatter, err, nil)
	}
	prepared, err := sess.engine.Prepare(viewing, query)
	if err != nil {
		return outputQueryError(formatter, err, nil)
	}
	formatter.VerboseLog("Prepared: %s", prepared)

	resolved, err := sess.engine.Resolve(ctx, prepared)
	if err != nil {
		return outputQueryError(formatter, err, nil)
	}
	formatter.VerboseLog("Resolved: %s", resolved)

	result := &CompilationResult{
		Type:   typeName,
		Query:  query,
		Spec:   resolved.String(),
		Target: opts.Target,
	}
	if err := compileTo(result, compiler, resolved); err != nil {
		return outputCompileError(formatter, ErrCodeCompile, err.Error())
	}

	return outputCompileSuccess(formatter, result)
}

// compileTo fills the target fields of result from s.
func compileTo(result *CompilationResult, compiler *specsql.SQLCompiler, s spec.Specification) error {
	if result.Target == TargetSQL {
		sql, params, err := compiler.Compile(s)
		if err != nil {
			return err
		}
		result.SQL, result.Params = sql, params
		return nil
	}

	q, err := specsearch.Compile(s)
	if err != nil {
		return err
	}
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshaling search query: %w", err)
	}
	result.Search = data
	return nil
}

// outputCompileSuccess outputs the compiled form.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "%s\n\n", result.Spec)
	if result.Target == TargetSQL {
		fmt.Fprintln(formatter.Writer, result.SQL)
		for i, p := range result.Params {
			fmt.Fprintf(formatter.Writer, "  $%d = %v\n", i+1, p)
		}
		return nil
	}
	fmt.Fprintln(formatter.Writer, string(result.Search))
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
