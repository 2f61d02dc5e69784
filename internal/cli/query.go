package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nodeql/internal/domain"
	"github.com/roach88/nodeql/internal/engine"
)

// QueryOptions holds flags for the query and search commands.
type QueryOptions struct {
	*RootOptions
	Backend string
	Limit   int
	Offset  int
	Count   bool
}

// NodeSummary is one matching node.
type NodeSummary struct {
	ID     string   `json:"id"`
	Type   string   `json:"type"`
	Code   string   `json:"code,omitempty"`
	URI    string   `json:"uri,omitempty"`
	Number int64    `json:"number,omitempty"`
	Score  *float64 `json:"score,omitempty"`
}

// QueryResult is the output of the query and search commands.
type QueryResult struct {
	Spec    string        `json:"spec,omitempty"`
	Backend string        `json:"backend"`
	Count   int           `json:"count"`
	Nodes   []NodeSummary `json:"nodes,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <graph.Type> <query>",
		Short: "Find nodes of one type",
		Long: `Run a where clause for a viewing type against the configured store.

The backend is chosen per query: the store when the resolved clause
compiles to SQL, the index otherwise. --backend forces one.

Examples:
  nodeql query --catalog ./catalog --sqlite-path people.db acme.Person 'p.name:jo*'
  nodeql query --catalog ./catalog --sqlite-path people.db --count acme.Person '*:*'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "auto", "backend (auto|sql|search)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of nodes (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "nodes to skip; needs --limit")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matches only")

	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search nodes of every type",
		Long: `Run a where clause against every type of the catalog through the index.

Each type only sees the attributes it declares. Hits are ordered by score.

Examples:
  nodeql search --catalog ./catalog --sqlite-path people.db 'code:PERSON-1'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of hits (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "hits to skip; needs --limit")

	return cmd
}

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the store",
		Long: `Write every stored node to the index at --index-path and remove
index entries for nodes the store no longer has.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReindex(cmd.Context(), rootOpts, cmd)
		},
	}

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, typeName, where string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	backend, err := engine.ParseBackend(opts.Backend)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
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
	req := engine.Request{
		Type:    viewing,
		Where:   where,
		Backend: backend,
		Page:    engine.Page{Limit: opts.Limit, Offset: opts.Offset},
	}

	if opts.Count {
		n, err := sess.engine.Count(ctx, req)
		if err != nil {
			return outputQueryError(formatter, err, nil)
		}
		return outputQueryResult(formatter, QueryResult{Backend: opts.Backend, Count: n})
	}

	res, err := sess.engine.Query(ctx, req)
	if err != nil {
		return outputQueryError(formatter, err, nil)
	}
	formatter.VerboseLog("Ran on %s: %s", res.Backend, res.Spec)

	result := QueryResult{
		Spec:    res.Spec.String(),
		Backend: string(res.Backend),
		Count:   len(res.Nodes),
		Nodes:   make([]NodeSummary, len(res.Nodes)),
	}
	for i, n := range res.Nodes {
		result.Nodes[i] = sess.summarize(n)
	}
	return outputQueryResult(formatter, result)
}

func runSearch(ctx context.Context, opts *QueryOptions, where string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(ctx, opts.Settings())
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer sess.Close()

	hits, err := sess.engine.Search(ctx, where, engine.Page{Limit: opts.Limit, Offset: opts.Offset})
	if err != nil {
		return outputQueryError(formatter, err, nil)
	}

	ids := make([]domain.NodeID, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	nodes, err := sess.store.Nodes(ctx, ids)
	if err != nil {
		return outputQueryError(formatter, err, nil)
	}
	byID := make(map[domain.NodeID]domain.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	result := QueryResult{Backend: string(engine.BackendSearch), Nodes: []NodeSummary{}}
	for _, h := range hits {
		n, ok := byID[h.ID]
		if !ok {
			continue
		}
		summary := sess.summarize(n)
		summary.Score = &h.Score
		result.Nodes = append(result.Nodes, summary)
	}
	result.Count = len(result.Nodes)
	return outputQueryResult(formatter, result)
}

func runReindex(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings := opts.Settings()
	if settings.IndexPath == "" {
		return outputCompileError(formatter, ErrCodeConfig, "reindex needs --index-path")
	}

	sess, err := openSession(ctx, settings)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer sess.Close()

	n, err := sess.engine.Rebuild(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitFailure, "reindex failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]int{"nodes": n})
	}
	fmt.Fprintf(formatter.Writer, "✓ Indexed %d node(s)\n", n)
	return nil
}

func (s *session) summarize(n domain.Node) NodeSummary {
	return NodeSummary{
		ID:     n.ID.ID.String(),
		Type:   s.catalog.Name(n.ID.Type),
		Code:   n.Code,
		URI:    n.URI,
		Number: n.Number,
	}
}

// outputQueryResult prints one line per node in text mode.
func outputQueryResult(formatter *OutputFormatter, result QueryResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Nodes == nil {
		fmt.Fprintf(w, "%d\n", result.Count)
		return nil
	}
	for _, n := range result.Nodes {
		if n.Score != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\n", n.Type, n.ID, n.Code, *n.Score)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.Type, n.ID, n.Code)
	}
	fmt.Fprintf(w, "\n%d node(s)\n", result.Count)
	return nil
}
