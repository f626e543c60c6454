package cmd

import (
	"fmt"

	"github.com/Kariqs/eshop-api/initializers"
	"github.com/spf13/cobra"
)

var optimizeOpts initializers.OptimizeOptions

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run database and cache maintenance",
	Long: `Run maintenance tasks and print the row count of every table.

Examples:
  eshop optimize --clear-cache
  eshop optimize --analyze-tables --vacuum`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := initializers.OptimizeDatabase(cmd.Context(), a.db, a.cfg.DBDriver, a.cache, optimizeOpts, a.logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "categories: %d\n", stats.Categories)
		fmt.Fprintf(out, "products:   %d\n", stats.Products)
		fmt.Fprintf(out, "users:      %d\n", stats.Users)
		fmt.Fprintf(out, "carts:      %d\n", stats.Carts)
		fmt.Fprintf(out, "cart items: %d\n", stats.CartItems)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().BoolVar(&optimizeOpts.ClearCache, "clear-cache", false, "Drop every cached entry")
	optimizeCmd.Flags().BoolVar(&optimizeOpts.AnalyzeTables, "analyze-tables", false, "Refresh planner statistics")
	optimizeCmd.Flags().BoolVar(&optimizeOpts.Vacuum, "vacuum", false, "Reclaim storage")
}
