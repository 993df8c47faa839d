package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/store"
)

// SearchResult is the JSON form of a directory search.
type SearchResult struct {
	ID    string   `json:"id"`
	Seq   int64    `json:"seq"`
	Kind  string   `json:"kind"`
	Query string   `json:"query"`
	Keys  []string `json:"keys"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DirectoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <specs-dir> <query>",
		Short: "Search the directory with a query",
		Long: `Search the directory for agents or services whose description
satisfies a query from the specs.

Matching public keys are printed one per line in byte order. Each search
is recorded in the directory's search log.

Examples:
  oefq search ./specs full_weather --kind agent
  oefq search ./specs sixties --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", string(store.KindService), "registration kind to search (agent|service)")

	return cmd
}

func runSearch(opts *DirectoryOptions, specsDir, queryName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	kind, err := parseKind(formatter, opts.Kind)
	if err != nil {
		return err
	}

	specs, err := loadSpecs(formatter, specsDir)
	if err != nil {
		return err
	}
	q, ok := specs.Query(queryName)
	if !ok {
		return unknownName(formatter, KindQuery, queryName, specsDir)
	}

	ctx := cmd.Context()
	dir, st, err := openDirectory(ctx, opts.RootOptions, formatter, newLogger(opts.RootOptions, cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := dir.Search(ctx, kind, q)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDirectory, err.Error(), nil)
	}
	formatter.VerboseLog("search %s at seq %d: %d match(es)", res.ID, res.Seq, len(res.PublicKeys))

	if formatter.Format == "json" {
		return formatter.Success(SearchResult{
			ID:    res.ID,
			Seq:   res.Seq,
			Kind:  string(kind),
			Query: queryName,
			Keys:  res.PublicKeys,
		})
	}

	if len(res.PublicKeys) == 0 {
		fmt.Fprintf(formatter.GetErrWriter(), "No %ss match %s\n", kind, queryName)
		return nil
	}
	for _, key := range res.PublicKeys {
		fmt.Fprintln(formatter.Writer, key)
	}
	return nil
}
