package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "meetfn-admin",
		Short:   "Operational commands for the meeting functions service",
		Version: version,
	}

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
