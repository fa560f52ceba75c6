package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Domain drivers.
const (
	DriverSQLite   = "sqlite"
	DriverRemote   = "remote"
	DriverPostgres = "postgres"
)

// DomainFile is the on-disk domain registry.
type DomainFile struct {
	Domains []DomainEntry `yaml:"domains"`
}

// DomainEntry describes how to connect to one domain repository.
type DomainEntry struct {
	Name   string `yaml:"name"`
	Driver string `yaml:"driver"`

	// Path is the SQLite file (driver sqlite). Relative paths are resolved
	// against the domain file's directory.
	Path string `yaml:"path,omitempty"`

	// DSN is the connection string of a PostgreSQL server (driver postgres).
	DSN string `yaml:"dsn,omitempty"`

	// MaxOpen caps the SQL pool (drivers sqlite, postgres). 0 uses the default.
	MaxOpen int `yaml:"max_open,omitempty"`

	// URL is the base URL of a remote repository (driver remote).
	URL string `yaml:"url,omitempty"`

	// Token is an explicit bearer token; TokenEnv names an environment
	// variable holding one (driver remote).
	Token    string `yaml:"token,omitempty"`
	TokenEnv string `yaml:"token_env,omitempty"`

	// RateLimit caps requests per second to a remote repository (driver
	// remote). 0 means unlimited.
	RateLimit float64 `yaml:"rate_limit,omitempty"`

	// Disabled keeps the entry in the file without activating it.
	Disabled bool `yaml:"disabled,omitempty"`
}

// LoadDomainFile reads and validates a domain registry file.
func LoadDomainFile(path string) ([]DomainEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domains file: %w", err)
	}
	var f DomainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse domains file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range f.Domains {
		e := &f.Domains[i]
		if strings.EqualFold(strings.TrimSpace(e.Driver), DriverSQLite) {
			if p := strings.TrimSpace(e.Path); p != "" && !filepath.IsAbs(p) {
				e.Path = filepath.Join(base, p)
			}
		}
	}
	if err := ValidateDomainEntries(f.Domains); err != nil {
		return nil, fmt.Errorf("domains file %s: %w", path, err)
	}
	return f.Domains, nil
}

// ValidateDomainEntries normalizes entries in place and rejects duplicates
// and incomplete entries.
func ValidateDomainEntries(entries []DomainEntry) error {
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		e := &entries[i]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return fmt.Errorf("domain #%d: name is required", i+1)
		}
		if seen[e.Name] {
			return fmt.Errorf("domain %s: duplicate name", e.Name)
		}
		seen[e.Name] = true

		e.Driver = normalizeEnumValue(e.Driver)
		switch e.Driver {
		case DriverSQLite:
			if strings.TrimSpace(e.Path) == "" {
				return fmt.Errorf("domain %s: sqlite driver requires path", e.Name)
			}
			if e.MaxOpen < 0 {
				return fmt.Errorf("domain %s: max_open must be >= 0", e.Name)
			}
		case DriverPostgres:
			if strings.TrimSpace(e.DSN) == "" {
				return fmt.Errorf("domain %s: postgres driver requires dsn", e.Name)
			}
			if e.MaxOpen < 0 {
				return fmt.Errorf("domain %s: max_open must be >= 0", e.Name)
			}
		case DriverRemote:
			u := strings.TrimSpace(e.URL)
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return fmt.Errorf("domain %s: remote driver requires an http(s) url", e.Name)
			}
			e.URL = u
			if e.RateLimit < 0 {
				return fmt.Errorf("domain %s: rate_limit must be >= 0", e.Name)
			}
		case "":
			return fmt.Errorf("domain %s: driver is required (sqlite, postgres, remote)", e.Name)
		default:
			return fmt.Errorf("domain %s: unsupported driver %q (must be one of: sqlite, postgres, remote)", e.Name, e.Driver)
		}
	}
	return nil
}

// Load reads Domains.File into Domains.Entries when entries were not set
// directly.
func (c *Config) Load() error {
	if len(c.Domains.Entries) > 0 {
		return ValidateDomainEntries(c.Domains.Entries)
	}
	entries, err := LoadDomainFile(c.Domains.File)
	if err != nil {
		return err
	}
	c.Domains.Entries = entries
	return nil
}
