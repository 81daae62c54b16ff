// Package cmd implements the farmstay CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🌾"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "farmstay",
	Short: logo + " farmstay — booking assistant for farmhouse and hut stays",
	Long:  logo + " farmstay — a conversational booking assistant for farmhouse and hut stays",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(statusCmd)
}
