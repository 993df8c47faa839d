package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/oefquery/internal/compiler"
)

// MatchResult lists which descriptions of a spec set satisfy a query.
type MatchResult struct {
	Query   string   `json:"query"`
	Checked int      `json:"checked"`
	Matches []string `json:"matches"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <specs-dir> <query> [description...]",
		Short: "Check descriptions against a query without a directory",
		Long: `Evaluate a query from the specs against descriptions from the same
specs, in memory.

With no description names every description in the specs is checked.
A description matches when its model is compatible with the query's and
it satisfies every constraint, the same rule the directory applies.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(rootOpts, args[0], args[1], args[2:], cmd)
		},
	}

	return cmd
}

func runMatch(opts *RootOptions, specsDir, queryName string, names []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	specs, err := loadSpecs(formatter, specsDir)
	if err != nil {
		return err
	}

	q, ok := specs.Query(queryName)
	if !ok {
		return unknownName(formatter, KindQuery, queryName, specsDir)
	}

	candidates := specs.Descriptions
	if len(names) > 0 {
		candidates = make([]compiler.NamedDescription, 0, len(names))
		for _, name := range names {
			d, ok := specs.Description(name)
			if !ok {
				return unknownName(formatter, KindDescription, name, specsDir)
			}
			candidates = append(candidates, compiler.NamedDescription{Name: name, Description: d})
		}
	}

	result := MatchResult{Query: queryName, Checked: len(candidates), Matches: []string{}}
	matched := make([]bool, len(candidates))
	for i, c := range candidates {
		matched[i] = q.Compatible(c.Description) && q.Check(c.Description)
		if matched[i] {
			result.Matches = append(result.Matches, c.Name)
		}
		formatter.VerboseLog("%s: compatible=%t match=%t", c.Name, q.Compatible(c.Description), matched[i])
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "query %s\n", queryName)
	for i, c := range candidates {
		mark := "✗"
		if matched[i] {
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, c.Name)
	}
	fmt.Fprintf(w, "%d of %d description(s) match\n", len(result.Matches), result.Checked)
	return nil
}
