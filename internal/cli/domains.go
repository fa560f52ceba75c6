package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"fedsearch/internal/config"
	"fedsearch/internal/engine"
	"fedsearch/internal/flags"
	"fedsearch/internal/repository"
	"fedsearch/internal/search"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	domainsProbe       bool
	domainsProbeSearch string
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Inspect configured domains",
	Long: `Inspect the domains configured in the domains file.

Examples:
  fedsearch domains list --domains-file domains.yaml
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured domains",
	Long: `List the configured domains and where they live.

With --probe, every enabled domain is connected and probed with the canary
statement of --search (default: unfinished-runs). A domain is:
  compatible    the canary ran; the search would query this domain
  incompatible  the canary failed; the search would skip this domain
  unreachable   the connection could not be opened

Examples:
  fedsearch domains list
  fedsearch domains list --probe --search lightweight-csos
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyImplicitDefaults(cmd, cfg)
		if cfg.Domains.File == "" {
			return fmt.Errorf("--%s must be provided", flags.FlagDomainsFile)
		}
		if err := cfg.Load(); err != nil {
			return err
		}
		if !domainsProbe {
			printDomains(cmd.OutOrStdout(), cfg.Domains.Entries, nil)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		status, err := probeDomains(ctx, cfg, domainsProbeSearch, engine.OpenConnection)
		if err != nil {
			return err
		}
		printDomains(cmd.OutOrStdout(), cfg.Domains.Entries, status)
		return nil
	},
}

// probeDomains returns a colored status per enabled domain.
func probeDomains(ctx context.Context, cfg *config.Config, searchName string, open engine.ConnectionOpener) (map[string]string, error) {
	s, err := search.Lookup(searchName)
	if err != nil {
		return nil, err
	}
	params, err := config.ParseParamAssignments(cfg.Search.Params)
	if err != nil {
		return nil, err
	}
	q, err := s.Build(params)
	if err != nil {
		return nil, err
	}

	status := make(map[string]string)
	reg := repository.NewRegistry()
	for _, e := range cfg.Domains.Entries {
		if e.Disabled {
			continue
		}
		conn, closer, err := open(ctx, cfg, e)
		if err != nil {
			status[e.Name] = color.RedString("unreachable") + ": " + err.Error()
			continue
		}
		if closer != nil {
			defer closer.Close()
		}
		if err := reg.Register(repository.Domain(e.Name), conn); err != nil {
			return nil, err
		}
	}

	logger := engine.NewLogger(os.Stderr, cfg.Runtime.LogLevel, cfg.Runtime.LogFormat)
	sched, err := engine.NewProbeScheduler(4, logger)
	if err != nil {
		return nil, err
	}
	resCh, errCh := sched.Execute(ctx, reg.Snapshot(), q.Canary())
	for r := range resCh {
		if r.Compatible {
			status[string(r.Domain)] = color.GreenString("compatible")
		} else {
			status[string(r.Domain)] = color.YellowString("incompatible")
		}
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return status, nil
}

func printDomains(w io.Writer, entries []config.DomainEntry, status map[string]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "DOMAIN\tDRIVER\tLOCATION"
	if status != nil {
		header += "\tSTATUS"
	}
	fmt.Fprintln(tw, header)
	for _, e := range entries {
		line := fmt.Sprintf("%s\t%s\t%s", e.Name, e.Driver, domainLocation(e))
		if status != nil {
			st := status[e.Name]
			if e.Disabled {
				st = color.New(color.Faint).Sprint("disabled")
			}
			line += "\t" + st
		} else if e.Disabled {
			line += " (disabled)"
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(domainsCmd)
	domainsCmd.AddCommand(domainsListCmd)
	domainsListCmd.Flags().BoolVar(&domainsProbe, flags.FlagProbe, false, "Connect to every enabled domain and run the search's canary statement")
	domainsListCmd.Flags().StringVar(&domainsProbeSearch, "search", "unfinished-runs", "Search whose canary statement --probe runs")
	domainsListCmd.Flags().StringSliceVar(&cfg.Search.Params, flags.FlagParam, nil, "Parameters for --search as key=value (repeatable)")
}

// domainLocation renders where a domain lives. PostgreSQL passwords are
// redacted; key=value DSNs show only their host.
func domainLocation(e config.DomainEntry) string {
	switch e.Driver {
	case config.DriverRemote:
		return e.URL
	case config.DriverPostgres:
		if u, err := url.Parse(e.DSN); err == nil && u.Scheme != "" {
			return u.Redacted()
		}
		for _, kv := range strings.Fields(e.DSN) {
			if host, ok := strings.CutPrefix(kv, "host="); ok {
				return "host=" + host
			}
		}
		return "(dsn)"
	default:
		return e.Path
	}
}
