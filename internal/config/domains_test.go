package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDomainFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDomainFile(t *testing.T) {
	path := writeDomainFile(t, `
domains:
  - name: SUDPLAN
    driver: sqlite
    path: ./sudplan.db
  - name: " LINZ "
    driver: REMOTE
    url: " http://linz:8090/ "
    token_env: LINZ_TOKEN
    rate_limit: 2.5
  - name: WIEN
    driver: sqlite
    path: /srv/wien.db
    max_open: 2
    disabled: true
  - name: GRAZ
    driver: Postgres
    dsn: postgres://fed@graz/cids?sslmode=disable
`)

	entries, err := LoadDomainFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "SUDPLAN", entries[0].Name)
	assert.Equal(t, DriverSQLite, entries[0].Driver)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "sudplan.db"), entries[0].Path)

	assert.Equal(t, "LINZ", entries[1].Name)
	assert.Equal(t, DriverRemote, entries[1].Driver)
	assert.Equal(t, "http://linz:8090/", entries[1].URL)
	assert.Equal(t, "LINZ_TOKEN", entries[1].TokenEnv)
	assert.Equal(t, 2.5, entries[1].RateLimit)

	assert.Equal(t, "/srv/wien.db", entries[2].Path)
	assert.Equal(t, 2, entries[2].MaxOpen)
	assert.True(t, entries[2].Disabled)

	assert.Equal(t, DriverPostgres, entries[3].Driver)
	assert.Equal(t, "postgres://fed@graz/cids?sslmode=disable", entries[3].DSN)
}

func TestLoadDomainFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad_yaml", body: "domains: [", want: "parse domains file"},
		{name: "missing_name", body: "domains:\n  - driver: sqlite\n    path: a.db\n", want: "name is required"},
		{name: "duplicate", body: "domains:\n  - {name: A, driver: sqlite, path: a.db}\n  - {name: A, driver: sqlite, path: b.db}\n", want: "duplicate name"},
		{name: "missing_driver", body: "domains:\n  - {name: A, path: a.db}\n", want: "driver is required"},
		{name: "unknown_driver", body: "domains:\n  - {name: A, driver: oracle}\n", want: "unsupported driver"},
		{name: "sqlite_without_path", body: "domains:\n  - {name: A, driver: sqlite}\n", want: "requires path"},
		{name: "remote_without_url", body: "domains:\n  - {name: A, driver: remote, url: \"linz:8090\"}\n", want: "http(s) url"},
		{name: "postgres_without_dsn", body: "domains:\n  - {name: A, driver: postgres}\n", want: "requires dsn"},
		{name: "negative_rate_limit", body: "domains:\n  - {name: A, driver: remote, url: \"http://a\", rate_limit: -1}\n", want: "rate_limit must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDomainFile(writeDomainFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDomainFile_Missing(t *testing.T) {
	_, err := LoadDomainFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read domains file")
}

func TestConfigLoad(t *testing.T) {
	cfg := New()
	cfg.Domains.File = writeDomainFile(t, "domains:\n  - {name: A, driver: sqlite, path: a.db}\n")
	require.NoError(t, cfg.Load())
	require.Len(t, cfg.Domains.Entries, 1)

	inline := New()
	inline.Domains.Entries = []DomainEntry{{Name: "B", Driver: "remote", URL: "ftp://b"}}
	require.Error(t, inline.Load())
}
