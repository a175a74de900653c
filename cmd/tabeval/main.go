package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "tabeval",
		Short: "tabeval - tabular batch evaluation",
		Long: `tabeval evaluates a row transform over every row of a table, isolating
per-row failures, and writes the output table with an aligned error column.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tabeval v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newEvalCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
