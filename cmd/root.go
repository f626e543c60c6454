// Package cmd holds the eshop command line: the API server and its maintenance tasks.
package cmd

import (
	"fmt"
	"os"

	"github.com/Kariqs/eshop-api/initializers"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "eshop",
	Short: "eshop storefront API",
	Long: `eshop serves the storefront REST API: catalog browsing, session and
user carts, profiles and admin catalog management.

Configuration is read from the environment, optionally seeded from a .env file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			initializers.LoadEnv(envFile)
		} else {
			initializers.LoadEnv()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file instead of .env")
}
