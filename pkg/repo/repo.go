// Package repo defines the generic Repository interface and a Neo4j-backed
// implementation keyed on a single node property.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entity has the requested ID.
var ErrNotFound = errors.New("repo: not found")

// Repository is a generic keyed store. Upsert is idempotent on the ID.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Upsert(ctx context.Context, entity T) (T, error)
	Count(ctx context.Context) (int64, error)
}

// ListOpts controls pagination for List operations.
type ListOpts struct {
	Offset int
	Limit  int
}

// DefaultListLimit applies when ListOpts.Limit is unset; MaxListLimit caps it.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

func (o ListOpts) normalized() ListOpts {
	if o.Offset < 0 {
		o.Offset = 0
	}
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultListLimit
	case o.Limit > MaxListLimit:
		o.Limit = MaxListLimit
	}
	return o
}
