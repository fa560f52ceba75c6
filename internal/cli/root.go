package cli

import (
	"fmt"
	"os"

	"fedsearch/internal/config"
	"fedsearch/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "fedsearch",
	Short: "Run federated searches across domain repositories",
	Long: `fedsearch runs one search against every configured domain repository at
once and merges the results.

A search either succeeds as a whole or fails as a whole: if any compatible
domain fails, or the run exceeds --timeout, no partial results are reported.
Domains that do not carry the tables a search needs are skipped.

Examples:
	# Show available commands and global flags
	fedsearch --help

	# Run a search over every domain in a domains file
	fedsearch search unfinished-runs --domains-file domains.yaml

	# List searches
	fedsearch searches list

	# Check which domains are reachable and compatible
	fedsearch domains list --probe

	# Print build info
	fedsearch version

Output:
	By default, commands write human-readable output to stdout. Logs go to stderr.
	Some commands support structured output via emitter flags (see each command's --help).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.Domains.File, flags.FlagDomainsFile, "", "YAML domain registry file (default: $"+flags.EnvDomainsFile+")")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Log level: debug|info|warn|error (default: warn; debug with --verbose)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogFormat, flags.FlagLogFormat, cfg.Runtime.LogFormat, "Log format: text|json (default: text)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every remote request and full error details)")
}

// applyImplicitDefaults fills settings the user did not pass explicitly.
func applyImplicitDefaults(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Domains.File == "" && len(cfg.Domains.Entries) == 0 {
		if v := os.Getenv(flags.EnvDomainsFile); v != "" {
			cfg.Domains.File = v
		}
	}
	// --verbose implies debug logs unless --log-level was given.
	if cfg.Runtime.Verbose && cmd != nil {
		if f := cmd.Flag(flags.FlagLogLevel); f == nil || !f.Changed {
			cfg.Runtime.LogLevel = "debug"
		}
	}
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
