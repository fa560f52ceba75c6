package sqlrepo

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"fedsearch/internal/repository"
)

// OpenPostgres connects to the PostgreSQL server described by dsn for domain,
// pings it and returns a connection that owns the pool.
func OpenPostgres(domain repository.Domain, dsn string, maxOpen int) (*Conn, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("domain %s: postgres dsn is empty", domain)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres for domain %s: %w", domain, err)
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	if err := configurePool(db, maxOpen); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres for domain %s: %w", domain, err)
	}
	return NewWithDialect(domain, db, DialectPostgres), nil
}
