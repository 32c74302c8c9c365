package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"statarchive/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect declared dataset sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the datasets declared in the datasets file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadDatasetsIfAny(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		sources := source.List()
		if len(sources) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No datasets declared. Pass --datasets-file.")
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION")
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%s\n", s.Name(), s.Description())
		}
		w.Flush()
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)
	rootCmd.AddCommand(sourcesCmd)
}
