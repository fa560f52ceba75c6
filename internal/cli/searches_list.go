package cli

import (
	"fmt"
	"io"

	"fedsearch/internal/flags"
	"fedsearch/internal/search"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var searchesListQuiet bool
var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "Manage and list searches",
	Long: `List the searches shipped with fedsearch.

Searches are run with "fedsearch search <name>".

Examples:
  # List all available searches
  fedsearch searches list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var searchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available searches",
	Long: `List all searches registered in this build.

Searches are sorted by name.

Examples:
  fedsearch searches list

Output:
  A vertical list of searches:
    ----------------------------------------
    SEARCH: {NAME} ({SCOPE})
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range search.List() {
			if searchesListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), s.ID())
			} else {
				printSearch(cmd.OutOrStdout(), s)
			}
		}
		return nil
	},
}

var searchesShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show details of a specific search",
	Long: `Show details of a specific search by its name.

Examples:
  fedsearch searches show cso-by-overflow
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := search.Lookup(args[0])
		if err != nil {
			return err
		}
		printSearch(cmd.OutOrStdout(), s)
		return nil
	},
}

func printSearch(w io.Writer, s search.Search) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "SEARCH: %s (%s)\n", s.ID(), s.Scope())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, s.Title())
	fmt.Fprintln(w, s.Description())

	if opts := s.Options(); len(opts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Parameters:")
		for _, opt := range opts {
			def := opt.Default
			if def == "" {
				def = "\"\""
			}
			name := opt.Name
			if opt.Required {
				name += " (required)"
			}
			fmt.Fprintf(w, "  %s\n", name)
			fmt.Fprintf(w, "    Description: %s\n", opt.Description)
			fmt.Fprintf(w, "    Default:     %s\n", def)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(searchesCmd)
	searchesCmd.AddCommand(searchesListCmd)
	searchesListCmd.Flags().BoolVarP(&searchesListQuiet, flags.FlagQuiet, "q", false, "Only print search names")
	searchesCmd.AddCommand(searchesShowCmd)
}
