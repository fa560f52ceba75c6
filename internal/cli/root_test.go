package cli

import (
	"testing"

	"fedsearch/internal/config"
	"fedsearch/internal/flags"

	"github.com/spf13/cobra"
)

func newFlagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "search"}
	cmd.Flags().String(flags.FlagLogLevel, "warn", "")
	return cmd
}

func TestApplyImplicitDefaults_VerboseDefaultsToDebug(t *testing.T) {
	c := config.New()
	c.Runtime.Verbose = true

	applyImplicitDefaults(newFlagCmd(), c)

	if c.Runtime.LogLevel != "debug" {
		t.Fatalf("expected log level debug with --verbose; got %q", c.Runtime.LogLevel)
	}
}

func TestApplyImplicitDefaults_VerboseDoesNotOverrideExplicitLogLevel(t *testing.T) {
	c := config.New()
	c.Runtime.Verbose = true
	c.Runtime.LogLevel = "error"

	cmd := newFlagCmd()
	if err := cmd.Flags().Set(flags.FlagLogLevel, "error"); err != nil {
		t.Fatalf("failed to set log-level flag: %v", err)
	}

	applyImplicitDefaults(cmd, c)

	if c.Runtime.LogLevel != "error" {
		t.Fatalf("expected log level to remain error when --log-level explicitly set; got %q", c.Runtime.LogLevel)
	}
}

func TestApplyImplicitDefaults_DomainsFileFromEnv(t *testing.T) {
	t.Setenv(flags.EnvDomainsFile, "/etc/fedsearch/domains.yaml")

	c := config.New()
	applyImplicitDefaults(newFlagCmd(), c)
	if c.Domains.File != "/etc/fedsearch/domains.yaml" {
		t.Fatalf("expected domains file from env; got %q", c.Domains.File)
	}

	c = config.New()
	c.Domains.File = "explicit.yaml"
	applyImplicitDefaults(newFlagCmd(), c)
	if c.Domains.File != "explicit.yaml" {
		t.Fatalf("expected explicit domains file to win; got %q", c.Domains.File)
	}
}
