// Package repositorytest provides an in-memory repository.Connection for
// tests.
package repositorytest

import (
	"context"
	"fmt"
	"sync"

	"fedsearch/internal/repository"
)

// Connection is a repository.Connection backed by maps. Statements are
// matched verbatim.
type Connection struct {
	Domain repository.Domain

	mu        sync.Mutex
	results   map[string][]repository.Row
	failures  map[string]error
	classes   map[string]repository.ClassDescriptor
	objects   map[int]map[int]*repository.Object // class id -> object id -> object
	fetchErr  error
	executed  []string
	onExecute func(statement string)
}

var _ repository.Connection = (*Connection)(nil)

func NewConnection(domain repository.Domain) *Connection {
	return &Connection{
		Domain:   domain,
		results:  make(map[string][]repository.Row),
		failures: make(map[string]error),
		classes:  make(map[string]repository.ClassDescriptor),
		objects:  make(map[int]map[int]*repository.Object),
	}
}

// SetResult makes statement return rows.
func (m *Connection) SetResult(statement string, rows ...repository.Row) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[statement] = rows
	return m
}

// FailStatement makes statement fail with err.
func (m *Connection) FailStatement(statement string, err error) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[statement] = err
	return m
}

// AddClass registers a class descriptor for its table.
func (m *Connection) AddClass(cd repository.ClassDescriptor) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	cd.Domain = m.Domain
	m.classes[cd.Table] = cd
	return m
}

// AddObject stores an object under its class id.
func (m *Connection) AddObject(obj repository.Object) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj.Domain = m.Domain
	byID, ok := m.objects[obj.Class.ID]
	if !ok {
		byID = make(map[int]*repository.Object)
		m.objects[obj.Class.ID] = byID
	}
	o := obj
	byID[obj.ID] = &o
	return m
}

// FailFetch makes every FetchByID call fail with err.
func (m *Connection) FailFetch(err error) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchErr = err
	return m
}

// OnExecute installs a hook invoked before each statement runs.
func (m *Connection) OnExecute(fn func(statement string)) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExecute = fn
	return m
}

// Executed returns the statements run so far.
func (m *Connection) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.executed))
	copy(out, m.executed)
	return out
}

func (m *Connection) Execute(ctx context.Context, statement string) ([]repository.Row, error) {
	m.mu.Lock()
	m.executed = append(m.executed, statement)
	hook := m.onExecute
	m.mu.Unlock()

	if hook != nil {
		hook(statement)
	}
	if err := ctx.Err(); err != nil {
		return nil, repository.NewRemoteAccessError(m.Domain, "execute", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[statement]; ok {
		return nil, repository.NewRemoteAccessError(m.Domain, "execute", err)
	}
	rows, ok := m.results[statement]
	if !ok {
		return nil, repository.NewRemoteAccessError(m.Domain, "execute", fmt.Errorf("unknown statement %q", statement))
	}
	out := make([]repository.Row, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *Connection) ClassByTable(ctx context.Context, _ repository.User, table string) (repository.ClassDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return repository.ClassDescriptor{}, repository.NewRemoteAccessError(m.Domain, "class by table", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cd, ok := m.classes[table]
	if !ok {
		return repository.ClassDescriptor{}, repository.NewRemoteAccessError(m.Domain, "class by table", fmt.Errorf("no class for table %q", table))
	}
	return cd, nil
}

func (m *Connection) FetchByID(ctx context.Context, _ repository.User, id int, class repository.ClassDescriptor) (*repository.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.NewRemoteAccessError(m.Domain, "fetch by id", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, repository.NewRemoteAccessError(m.Domain, "fetch by id", m.fetchErr)
	}
	obj, ok := m.objects[class.ID][id]
	if !ok {
		return nil, nil
	}
	cp := *obj
	return &cp, nil
}
