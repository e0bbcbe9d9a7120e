package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// paramsConcurrency caps in-flight param_values requests when several
// parameter names are asked for at once.
const paramsConcurrency = 4

// paramsCmd represents the params command
var paramsCmd = &cobra.Command{
	Use:   "params <name>...",
	Short: "List the legal values of one or more query parameters",
	Long: `List every value the QuickStats API accepts for the given parameter
names, e.g. source_desc, sector_desc, state_alpha or year. Values come
straight from the service; nothing is cached locally.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	results := make(map[string][]string, len(args))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(paramsConcurrency)

	for _, name := range args {
		name := name
		g.Go(func() error {
			values, err := client.ParamValues(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to get values for %s: %w", name, err)
			}

			mu.Lock()
			results[name] = values
			mu.Unlock()

			logger.Debug().Str("param", name).Int("count", len(values)).Msg("Retrieved parameter values")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, name := range args {
		values := results[name]
		fmt.Printf("%s (%d values):\n", name, len(values))
		for _, value := range values {
			fmt.Printf("  • %s\n", value)
		}
		fmt.Println()
	}

	return nil
}
