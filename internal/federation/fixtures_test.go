package federation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"testing"

	"fedsearch/internal/repository"
	"fedsearch/internal/repository/repositorytest"
)

const (
	testCanary    = "SELECT r.id FROM run r LIMIT 1"
	testStatement = "SELECT id FROM run WHERE finished IS NULL"
	testTable     = "run"
)

var errBoom = errors.New("boom")

func testQuery() StaticQuery {
	return StaticQuery{
		SearchName:   "test-search",
		CanarySQL:    testCanary,
		StatementSQL: testStatement,
		Columns:      1,
		Table:        testTable,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// compatibleRepo returns a repository that passes the canary and answers the
// test statement with ids, each resolvable to an object.
func compatibleRepo(domain repository.Domain, ids ...int) *repositorytest.Connection {
	class := repository.ClassDescriptor{ID: 11, Name: "RUN", Table: testTable}
	m := repositorytest.NewConnection(domain).
		SetResult(testCanary).
		AddClass(class)

	rows := make([]repository.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, repository.Row{id})
		m.AddObject(repository.Object{ID: id, Class: class, Fields: map[string]any{"id": id}})
	}
	m.SetResult(testStatement, rows...)
	return m
}

// legacyRepo fails the canary.
func legacyRepo(domain repository.Domain) *repositorytest.Connection {
	return repositorytest.NewConnection(domain).FailStatement(testCanary, errors.New("relation \"run\" does not exist"))
}

func newTestCoordinator(t *testing.T, conns map[repository.Domain]repository.Connection, opts ...Option) *Coordinator {
	t.Helper()
	reg := repository.NewRegistry()
	for d, c := range conns {
		if err := reg.Register(d, c); err != nil {
			t.Fatalf("Register %s: %v", d, err)
		}
	}
	base := []Option{WithLogger(discardLogger()), WithExecutorFactory(SyncExecutorFactory)}
	c, err := NewCoordinator(reg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

func objectKeys(objs []repository.Object) []string {
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, string(o.Domain)+"/"+strconv.Itoa(o.ID))
	}
	sort.Strings(keys)
	return keys
}

// blockingConn blocks every Execute until the context is done.
type blockingConn struct {
	*repositorytest.Connection
	started chan struct{}
}

func (b *blockingConn) Execute(ctx context.Context, statement string) ([]repository.Row, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, repository.NewRemoteAccessError(b.Domain, "execute", ctx.Err())
}
