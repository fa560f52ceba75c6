package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDomain is the domain single-domain searches run against when
// --domain is not given.
const DefaultDomain = "SUDPLAN"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect
	// search behavior, keep the CLI flags in internal/cli/search.go in sync.
	Domains Domains
	Search  Search
	Output  Output
	Runtime Runtime
}

type Domains struct {
	// File is the YAML domain registry file (see --domains-file).
	File string

	// Entries are the domains loaded from File.
	Entries []DomainEntry

	// Include filters domains by name using Go path.Match style (see --include).
	Include []string

	// Exclude filters domains by name using Go path.Match style (see --exclude).
	Exclude []string

	// MaxDomains limits how many domains take part (see --max-domains). 0 means unlimited.
	MaxDomains int

	// Domain selects the target of single-domain searches (see --domain).
	Domain string

	// DryRun resolves the domain set and prints the statement without searching (see --dry-run).
	DryRun bool
}

type Search struct {
	// Name is the catalog search to run.
	Name string

	// Params are key=value search parameters (repeatable; comma-separated accepted; see --param).
	Params []string

	// User is the user name the search runs on behalf of (see --as-user).
	User string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterDomain limits console object output to these domains (see --console-filter-domain).
	ConsoleFilterDomain []string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// Report writes a Markdown summary of the run to this path (see --report).
	Report string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Timeout bounds the whole federated search (see --timeout). Must be > 0.
	Timeout time.Duration

	// MaxWorkers caps concurrent domain workers (see --max-workers). 0 means one per domain.
	MaxWorkers int

	// LogLevel is one of debug, info, warn, error (see --log-level).
	LogLevel string

	// LogFormat is one of text, json (see --log-format).
	LogFormat string

	// Verbose logs every remote HTTP request to stderr (see --verbose).
	Verbose bool
}

func New() *Config {
	return &Config{
		Domains: Domains{
			Domain: DefaultDomain,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Timeout:   2 * time.Minute,
			LogLevel:  "warn",
			LogFormat: "text",
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Domains.Include = splitCommaList(c.Domains.Include)
	c.Domains.Exclude = splitCommaList(c.Domains.Exclude)
	c.Search.Params = splitCommaList(c.Search.Params)
	c.Output.ConsoleFilterDomain = splitCommaList(c.Output.ConsoleFilterDomain)

	if strings.TrimSpace(c.Domains.File) == "" && len(c.Domains.Entries) == 0 {
		return errors.New("--domains-file must be provided")
	}
	c.Domains.Domain = strings.TrimSpace(c.Domains.Domain)
	if c.Domains.Domain == "" {
		c.Domains.Domain = DefaultDomain
	}
	if c.Domains.MaxDomains < 0 {
		return errors.New("--max-domains must be >= 0")
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}

	if c.Output.Report != "" && c.Output.Report == c.Output.Out {
		return errors.New("--report and --out must not point to the same file")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.Runtime.MaxWorkers < 0 {
		return errors.New("--max-workers must be >= 0")
	}
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	switch c.Runtime.LogLevel {
	case "":
		c.Runtime.LogLevel = "warn"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported --log-level: %s (must be one of: debug, info, warn, error)", c.Runtime.LogLevel)
	}
	c.Runtime.LogFormat = normalizeEnumValue(c.Runtime.LogFormat)
	switch c.Runtime.LogFormat {
	case "":
		c.Runtime.LogFormat = "text"
	case "text", "json":
	default:
		return fmt.Errorf("unsupported --log-format: %s (must be one of: text, json)", c.Runtime.LogFormat)
	}

	// Search parameter syntax validation (key=value)
	if len(c.Search.Params) > 0 {
		if _, err := ParseParamAssignments(c.Search.Params); err != nil {
			return err
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseParamAssignments parses values of the form "key=value".
//
// Notes:
// - Entries may be provided via repeated flags and/or comma-delimited lists.
// - This validates syntax only; the search checks names and values.
// - Empty values are allowed ("key=").
func ParseParamAssignments(values []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, raw := range splitCommaList(values) {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param entry %q: expected key=value", raw)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid --param entry %q: expected non-empty key", raw)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
