package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fedsearch/internal/config"
	"fedsearch/internal/remote"
	"fedsearch/internal/repository"
	"fedsearch/internal/repository/sqlrepo"
)

// ConnectionOpener opens the connection for one configured domain. The
// returned closer may be nil.
type ConnectionOpener func(ctx context.Context, cfg *config.Config, entry config.DomainEntry) (repository.Connection, io.Closer, error)

// OpenConnection is the default ConnectionOpener. SQLite files and
// PostgreSQL servers go through sqlrepo, remote repositories through the HTTP
// client.
func OpenConnection(ctx context.Context, cfg *config.Config, entry config.DomainEntry) (repository.Connection, io.Closer, error) {
	domain := repository.Domain(entry.Name)
	switch entry.Driver {
	case config.DriverSQLite:
		conn, err := sqlrepo.Open(domain, entry.Path, entry.MaxOpen)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn, nil
	case config.DriverPostgres:
		conn, err := sqlrepo.OpenPostgres(domain, entry.DSN, entry.MaxOpen)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn, nil
	case config.DriverRemote:
		token, _, err := remote.ResolveToken(entry.Token, entry.TokenEnv)
		if err != nil {
			return nil, nil, fmt.Errorf("domain %s: %w", entry.Name, err)
		}
		var opts []remote.Option
		if cfg != nil && cfg.Runtime.Verbose {
			opts = append(opts, remote.WithVerbose(true, nil))
		}
		if entry.RateLimit > 0 {
			opts = append(opts, remote.WithRateLimit(entry.RateLimit))
		}
		c, err := remote.NewClient(ctx, domain, entry.URL, token, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("domain %s: %w", entry.Name, err)
		}
		return c, nil, nil
	default:
		return nil, nil, fmt.Errorf("domain %s: unsupported driver %q", entry.Name, entry.Driver)
	}
}

// Domains is the set of opened domain connections.
type Domains struct {
	Registry *repository.Registry
	closers  []io.Closer
}

// Names lists the registered domains in sorted order.
func (d *Domains) Names() []repository.Domain {
	if d == nil || d.Registry == nil {
		return nil
	}
	return d.Registry.Snapshot().Domains()
}

// Close removes the domains from the registry and releases every opened
// connection.
func (d *Domains) Close() error {
	if d == nil {
		return nil
	}
	for _, name := range d.Names() {
		d.Registry.Unregister(name)
	}
	var errs []error
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// OpenDomains opens every entry and registers it, wrapped in a class
// descriptor cache. On any failure the connections opened so far are closed.
func OpenDomains(ctx context.Context, cfg *config.Config, entries []config.DomainEntry, open ConnectionOpener) (*Domains, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if open == nil {
		open = OpenConnection
	}

	d := &Domains{Registry: repository.NewRegistry()}
	for _, e := range entries {
		conn, closer, err := open(ctx, cfg, e)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("open domain %s: %w", e.Name, err)
		}
		if closer != nil {
			d.closers = append(d.closers, closer)
		}
		if err := d.Registry.Register(repository.Domain(e.Name), repository.NewClassCache(conn)); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	return d, nil
}

// domainNames returns entry names for messages.
func domainNames(entries []config.DomainEntry) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return strings.Join(names, ", ")
}
