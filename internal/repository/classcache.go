package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ClassCache wraps a Connection and memoizes ClassByTable lookups.
// Concurrent lookups for the same table share one round trip. Failed lookups
// are not cached.
type ClassCache struct {
	Connection

	group   singleflight.Group
	classes sync.Map // table -> ClassDescriptor
}

func NewClassCache(conn Connection) *ClassCache {
	return &ClassCache{Connection: conn}
}

func (c *ClassCache) ClassByTable(ctx context.Context, user User, table string) (ClassDescriptor, error) {
	if c == nil || c.Connection == nil {
		return ClassDescriptor{}, fmt.Errorf("ClassByTable: nil connection")
	}
	key := strings.ToLower(strings.TrimSpace(table))
	if v, ok := c.classes.Load(key); ok {
		return v.(ClassDescriptor), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		cd, err := c.Connection.ClassByTable(ctx, user, table)
		if err != nil {
			return nil, err
		}
		c.classes.Store(key, cd)
		return cd, nil
	})
	if err != nil {
		return ClassDescriptor{}, err
	}
	return v.(ClassDescriptor), nil
}
