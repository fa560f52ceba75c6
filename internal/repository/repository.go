// Package repository defines the connection abstraction over one domain
// repository and the registry of currently active connections.
package repository

import (
	"context"
)

// Domain identifies one repository instance within a registry.
type Domain string

// Row is one tabular result row. Column count and value types depend on the
// statement that produced it; consumers must validate both.
type Row []any

// ClassDescriptor describes the class backing a table in one domain.
type ClassDescriptor struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Table  string `json:"table"`
	Domain Domain `json:"domain"`
}

// Object is a fully populated domain object.
type Object struct {
	ID     int             `json:"id"`
	Domain Domain          `json:"domain"`
	Class  ClassDescriptor `json:"class"`
	Fields map[string]any  `json:"fields,omitempty"`
}

// User is the identity a search runs on behalf of.
type User struct {
	Name   string
	Domain Domain
}

// Connection is one connection to one domain repository.
//
// Implementations report every transport or statement failure as a
// *RemoteAccessError.
type Connection interface {
	// Execute runs a custom statement and returns its rows.
	Execute(ctx context.Context, statement string) ([]Row, error)

	// ClassByTable resolves a table name to its class descriptor.
	ClassByTable(ctx context.Context, user User, table string) (ClassDescriptor, error)

	// FetchByID loads one object. A nil object with a nil error means the
	// object does not exist.
	FetchByID(ctx context.Context, user User, id int, class ClassDescriptor) (*Object, error)
}
