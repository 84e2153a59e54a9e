package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/idealmemcontroller"
	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the parameters accepted in the config file.",
	Run: func(cmd *cobra.Command, _ []string) {
		printParams(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func printParams(w io.Writer) {
	fmt.Fprintln(w, "cache:")

	params := append(slices.Clone(cache.MemoryParams), cache.CompParams...)
	for _, p := range params {
		fmt.Fprintf(w, "  %-16s %-8s default %-6s %s\n",
			p.Name, p.Kind, p.Default, p.Usage)
	}

	fmt.Fprintln(w, "memory:")

	for _, name := range slices.Sorted(maps.Keys(idealmemcontroller.Params)) {
		fmt.Fprintf(w, "  %-16s %s\n", name, idealmemcontroller.Params[name])
	}
}
