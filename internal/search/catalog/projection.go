package catalog

import (
	"fmt"

	"fedsearch/internal/federation"
	"fedsearch/internal/repository"
)

// projection is a lightweight query: each row is id followed by the named
// string columns.
type projection struct {
	federation.StaticQuery
	columns []string
}

func newProjection(name, canary, statement, table string, columns ...string) projection {
	return projection{
		StaticQuery: federation.StaticQuery{
			SearchName:   name,
			CanarySQL:    canary,
			StatementSQL: statement,
			Columns:      len(columns) + 1,
			Table:        table,
		},
		columns: columns,
	}
}

func (p projection) Project(row repository.Row) (repository.Object, error) {
	id, err := federation.IntValue(row[0])
	if err != nil {
		return repository.Object{}, fmt.Errorf("id: %w", err)
	}
	fields := make(map[string]any, len(p.columns)+1)
	fields["id"] = id
	for i, col := range p.columns {
		fields[col] = federation.StringValue(row[i+1])
	}
	return repository.Object{
		ID:     id,
		Class:  repository.ClassDescriptor{Table: p.Table},
		Fields: fields,
	}, nil
}
