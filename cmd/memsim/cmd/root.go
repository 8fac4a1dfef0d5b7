// Package cmd provides the command-line interface for memsim.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "memsim",
	Short: "memsim simulates a virtual memory subsystem against a trace of process events.",
	Long: "memsim replays a CSV trace of process starts, memory accesses, and heap " +
		"allocations through a discrete-event simulation of a page table, TLB, " +
		"physical frame table, and cooperative scheduler.",
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
