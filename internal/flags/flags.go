package flags

// Package flags defines canonical CLI flag names shared across the CLI and engine.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. error messages from config
// validation).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Domains.File, flags.FlagDomainsFile, "", "...")
//	arg := "--" + flags.FlagDomainsFile
const (
	// Domains
	FlagDomainsFile = "domains-file"
	FlagDomain      = "domain"
	FlagInclude     = "include"
	FlagExclude     = "exclude"
	FlagMaxDomains  = "max-domains"
	FlagDryRun      = "dry-run"

	// Search
	FlagParam  = "param"
	FlagAsUser = "as-user"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterDomain = "console-filter-domain"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagTimeout    = "timeout"
	FlagMaxWorkers = "max-workers"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
	FlagVerbose    = "verbose"

	// Serve
	FlagListen = "listen"
	FlagDB     = "db"
	FlagToken  = "token"
	FlagProbe  = "probe"
	FlagQuiet  = "quiet"
)

// EnvDomainsFile names the environment variable consulted when --domains-file
// is not given.
const EnvDomainsFile = "FEDSEARCH_DOMAINS_FILE"
