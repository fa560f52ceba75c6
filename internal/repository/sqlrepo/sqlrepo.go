// Package sqlrepo implements repository.Connection on top of database/sql.
// SQLite files and PostgreSQL servers are supported. SQLite connections are
// opened query-only.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fedsearch/internal/repository"
)

// SQLite DSN parameters.
const (
	defaultBusyTimeout = "5000"
	defaultSynchronous = "NORMAL"
	defaultJournalMode = "WAL"
	defaultMaxOpen     = 4
)

// ClassTable holds the class descriptors of a domain.
const ClassTable = "cs_class"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect selects the bind parameter syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Conn is a repository.Connection backed by a SQL database.
type Conn struct {
	domain  repository.Domain
	db      *sql.DB
	dialect Dialect
}

// Open opens the existing SQLite file at path for domain, pings it and
// returns a query-only connection that owns the pool.
func Open(domain repository.Domain, path string, maxOpen int) (*Conn, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("domain %s: sqlite path is empty", domain)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("domain %s: sqlite file: %w", domain, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("domain %s: sqlite path %s is a directory", domain, path)
	}
	db, err := sql.Open("sqlite3", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite for domain %s: %w", domain, err)
	}
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	if err := configurePool(db, maxOpen); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite for domain %s: %w", domain, err)
	}
	return New(domain, db), nil
}

// configurePool sizes the pool and pings the database.
func configurePool(db *sql.DB, maxOpen int) error {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// New wraps an existing SQLite pool. The caller keeps ownership of db unless
// Close is called on the returned connection.
func New(domain repository.Domain, db *sql.DB) *Conn {
	return &Conn{domain: domain, db: db}
}

// NewWithDialect wraps an existing pool of the given dialect.
func NewWithDialect(domain repository.Domain, db *sql.DB, d Dialect) *Conn {
	return &Conn{domain: domain, db: db, dialect: d}
}

// bind returns the n-th (1-based) bind parameter.
func (c *Conn) bind(n int) string {
	if c.dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func buildDSN(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	params.Set("_synchronous", defaultSynchronous)
	params.Set("_foreign_keys", "on")
	params.Set("_query_only", "on")
	return path + "?" + params.Encode()
}

func (c *Conn) Close() error { return c.db.Close() }

// Execute runs statement and returns every row. Text columns surface as
// strings.
func (c *Conn) Execute(ctx context.Context, statement string) ([]repository.Row, error) {
	rows, err := c.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "execute", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "execute", err)
	}

	out := []repository.Row{}
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return nil, repository.NewRemoteAccessError(c.domain, "execute", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "execute", err)
	}
	return out, nil
}

// ClassByTable looks the class up in the cs_class metadata table.
func (c *Conn) ClassByTable(ctx context.Context, _ repository.User, table string) (repository.ClassDescriptor, error) {
	cd := repository.ClassDescriptor{Domain: c.domain}
	q := "SELECT id, name, table_name FROM " + ClassTable + " WHERE lower(table_name) = lower(" + c.bind(1) + ")"
	err := c.db.QueryRowContext(ctx, q, strings.TrimSpace(table)).Scan(&cd.ID, &cd.Name, &cd.Table)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ClassDescriptor{}, repository.NewRemoteAccessError(c.domain, "class by table", fmt.Errorf("no class for table %q", table))
	}
	if err != nil {
		return repository.ClassDescriptor{}, repository.NewRemoteAccessError(c.domain, "class by table", err)
	}
	return cd, nil
}

// FetchByID loads one row of the class table. A missing row yields (nil, nil).
func (c *Conn) FetchByID(ctx context.Context, _ repository.User, id int, class repository.ClassDescriptor) (*repository.Object, error) {
	if !identPattern.MatchString(class.Table) {
		return nil, repository.NewRemoteAccessError(c.domain, "fetch by id", fmt.Errorf("invalid table name %q", class.Table))
	}
	rows, err := c.db.QueryContext(ctx, `SELECT * FROM "`+class.Table+`" WHERE id = `+c.bind(1), id)
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "fetch by id", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "fetch by id", err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, repository.NewRemoteAccessError(c.domain, "fetch by id", err)
		}
		return nil, nil
	}
	row, err := scanRow(rows, len(cols))
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "fetch by id", err)
	}

	fields := make(map[string]any, len(cols))
	for i, name := range cols {
		fields[name] = row[i]
	}
	return &repository.Object{ID: id, Domain: c.domain, Class: class, Fields: fields}, nil
}

func scanRow(rows *sql.Rows, width int) (repository.Row, error) {
	vals := make([]any, width)
	ptrs := make([]any, width)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return repository.Row(vals), nil
}
