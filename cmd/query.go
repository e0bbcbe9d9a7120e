package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanWEarl5/nassquery/quickstats"
	"github.com/RyanWEarl5/nassquery/rowfilter"
)

var (
	// Command flags
	filters   []string
	whereExpr string
	jsonOut   bool
	rowLimit  int
)

// countCmd represents the count command
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the rows matching a filter set",
	Long: `Ask the QuickStats API how many rows match the given filters without
fetching the rows themselves. Useful for checking a query against the
service's row limit before running fetch.`,
	RunE: runCount,
}

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the rows matching a filter set",
	Long: `Fetch the full result rows for the given filters. Rows can be
narrowed further client-side with --where, which takes an expression
over the row's columns, e.g. --where 'num(Value) > 1000'.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(fetchCmd)

	countCmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as name=value (repeatable)")

	fetchCmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as name=value (repeatable)")
	fetchCmd.Flags().StringVarP(&whereExpr, "where", "w", "", "client-side row filter expression")
	fetchCmd.Flags().BoolVar(&jsonOut, "json", false, "print rows as JSON")
	fetchCmd.Flags().IntVar(&rowLimit, "limit", 0, "print at most N rows (0 = all)")
}

func runCount(cmd *cobra.Command, args []string) error {
	query, err := buildQuery()
	if err != nil {
		return err
	}

	n, err := query.Count(context.Background())
	if err != nil {
		return describeQueryError(err)
	}

	fmt.Println(n)
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	query, err := buildQuery()
	if err != nil {
		return err
	}

	rows, err := query.Execute(context.Background())
	if err != nil {
		return describeQueryError(err)
	}

	if whereExpr != "" {
		filter, err := rowfilter.Compile(whereExpr)
		if err != nil {
			return err
		}

		var kept []quickstats.Row
		for _, row := range rows {
			matched, err := filter.Match(row)
			if err != nil {
				return err
			}
			if matched {
				kept = append(kept, row)
			}
		}

		logger.Debug().
			Str("where", filter.Expression()).
			Int("before", len(rows)).
			Int("after", len(kept)).
			Msg("Applied client-side row filter")
		rows = kept
	}

	if rowLimit > 0 && len(rows) > rowLimit {
		rows = rows[:rowLimit]
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	printRows(rows)
	return nil
}

// buildQuery turns the repeated -f name=value flags into a Query.
func buildQuery() (*quickstats.Query, error) {
	query := client.Query()
	for _, f := range filters {
		name, value, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q: expected name=value", f)
		}
		query.Filter(name, value)
	}
	return query, nil
}

// describeQueryError adds a usage hint to the errors a caller can do
// something about.
func describeQueryError(err error) error {
	var limitErr *quickstats.RowLimitError
	if errors.As(err, &limitErr) {
		if limitErr.LimitKnown {
			return fmt.Errorf("%w (narrow the query with more filters, e.g. year or state_alpha)", limitErr)
		}
		return fmt.Errorf("%w (narrow the query with more filters)", limitErr)
	}

	var multi *quickstats.MultiError
	if errors.As(err, &multi) {
		return fmt.Errorf("the API reported %d problems:\n  - %s",
			len(multi.Messages), strings.Join(multi.Messages, "\n  - "))
	}

	return err
}

// displayColumns are the columns shown in table output, when present.
var displayColumns = []string{"year", "state_alpha", "commodity_desc", "short_desc", "Value"}

func printRows(rows []quickstats.Row) {
	if len(rows) == 0 {
		fmt.Println("No rows matched.")
		return
	}

	for _, row := range rows {
		var parts []string
		for _, column := range displayColumns {
			if value, ok := row[column]; ok {
				parts = append(parts, fmt.Sprintf("%v", value))
			}
		}
		if len(parts) == 0 {
			// Unknown shape; dump the whole row.
			fmt.Printf("• %v\n", row)
			continue
		}
		fmt.Printf("• %s\n", strings.Join(parts, "  "))
	}

	fmt.Printf("\n%d rows\n", len(rows))
}
