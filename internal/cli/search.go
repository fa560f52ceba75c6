package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fedsearch/internal/engine"
	"fedsearch/internal/flags"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Run a federated search",
	Long: `Run a named search against every active domain and merge the results.

Each domain is first probed with the search's canary statement. Domains that
fail the probe lack the required tables and are skipped silently. Every other
domain runs the search statement; the returned ids are resolved to objects in
that domain.

Single-domain searches (see "fedsearch searches list") run against --domain
only.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown summary
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (search.started, object, search.finished, search.failed).
	Objects are represented as an Event with type "object" and the object's
	fields inlined.

Exit codes:
	0 = search succeeded with results
	1 = search succeeded, nothing found
	2 = search failed (a domain failed or the run timed out; no partial results)
	3 = fatal error (search did not run)

Examples:
  fedsearch search unfinished-runs --domains-file domains.yaml

  fedsearch search cso-by-overflow --param swmm-run=12 --param overflow=3.5

  # Single-domain search against LINZ instead of SUDPLAN
  fedsearch search emission-databases --domain LINZ

  # Stream machine-readable events to stdout
  fedsearch search eta-results --param swmm-project=4 --no-console --emit ndjson
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			return
		}
		cfg.Search.Name = args[0]

		applyImplicitDefaults(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := engine.NewEngine().Run(ctx, cfg)
		stop()
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	// Domains
	searchCmd.Flags().StringVar(&cfg.Domains.Domain, flags.FlagDomain, cfg.Domains.Domain, "Target domain of single-domain searches (default: SUDPLAN)")
	searchCmd.Flags().StringSliceVar(&cfg.Domains.Include, flags.FlagInclude, nil, "Include domain pattern(s) (repeatable; comma-separated accepted). Go path.Match style, case-insensitive")
	searchCmd.Flags().StringSliceVar(&cfg.Domains.Exclude, flags.FlagExclude, nil, "Exclude domain pattern(s) (repeatable; comma-separated accepted). Same matching rules as --include")
	searchCmd.Flags().IntVar(&cfg.Domains.MaxDomains, flags.FlagMaxDomains, 0, "Maximum number of domains to search (0 = unlimited)")
	searchCmd.Flags().BoolVar(&cfg.Domains.DryRun, flags.FlagDryRun, false, "Resolve domains and print the statement without searching")

	// Search
	searchCmd.Flags().StringSliceVar(&cfg.Search.Params, flags.FlagParam, nil, "Search parameters as key=value (repeatable; comma-separated accepted)")
	searchCmd.Flags().StringVar(&cfg.Search.User, flags.FlagAsUser, "", "User name the search runs on behalf of")

	// Output
	searchCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	searchCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterDomain, flags.FlagConsoleFilterDomain, nil, "Only print objects from these domains on the console. Comma-separated.")
	searchCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	searchCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	searchCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	searchCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	searchCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	searchCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Overall search timeout (default: 2m)")
	searchCmd.Flags().IntVar(&cfg.Runtime.MaxWorkers, flags.FlagMaxWorkers, 0, "Concurrent domain workers (0 = one per domain)")
}
