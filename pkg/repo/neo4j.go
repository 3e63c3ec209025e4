package repo

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Result is the part of a neo4j result the repository reads.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// Tx runs statements inside one transaction.
type Tx interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// Runner is the part of a neo4j session the repository uses. ExecuteWrite
// commits when work returns nil and rolls back otherwise; work may be retried
// on transient errors.
type Runner interface {
	Tx
	ExecuteWrite(ctx context.Context, work func(Tx) error) error
	Close(ctx context.Context) error
}

// Statement is a parameterised Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Neo4jRepo is a generic Neo4j-backed repository. Entities are nodes with a
// single label, identified by the idKey property and returned as "n".
type Neo4jRepo[T any, ID comparable] struct {
	driver     neo4j.DriverWithContext
	database   string
	label      string
	idKey      string
	orderBy    string
	toMap      func(T) map[string]any
	fromRecord func(*neo4j.Record) (T, error)
	newSession func(ctx context.Context, mode neo4j.AccessMode) Runner
}

// Neo4jOption configures a Neo4jRepo.
type Neo4jOption[T any, ID comparable] func(*Neo4jRepo[T, ID])

// WithIDKey sets the property name used as the ID (default "id").
func WithIDKey[T any, ID comparable](key string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.idKey = key }
}

// WithOrderBy sets List's ORDER BY expression over node n
// (default "n.<idKey>").
func WithOrderBy[T any, ID comparable](expr string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.orderBy = expr }
}

// WithDatabase selects a non-default database.
func WithDatabase[T any, ID comparable](name string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.database = name }
}

// WithRunner replaces session creation, for tests.
func WithRunner[T any, ID comparable](f func(ctx context.Context, mode neo4j.AccessMode) Runner) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.newSession = f }
}

// NewNeo4jRepo creates a new Neo4j-backed repository.
func NewNeo4jRepo[T any, ID comparable](
	driver neo4j.DriverWithContext,
	label string,
	toMap func(T) map[string]any,
	fromRecord func(*neo4j.Record) (T, error),
	opts ...Neo4jOption[T, ID],
) *Neo4jRepo[T, ID] {
	r := &Neo4jRepo[T, ID]{
		driver:     driver,
		label:      label,
		idKey:      "id",
		toMap:      toMap,
		fromRecord: fromRecord,
	}
	for _, o := range opts {
		o(r)
	}
	if r.orderBy == "" {
		r.orderBy = "n." + r.idKey
	}
	return r
}

var _ Repository[any, string] = (*Neo4jRepo[any, string])(nil)

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *sessionAdapter) ExecuteWrite(ctx context.Context, work func(Tx) error) error {
	_, err := a.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(txAdapter{tx})
	})
	return err
}

type txAdapter struct{ tx neo4j.ManagedTransaction }

func (a txAdapter) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return a.tx.Run(ctx, cypher, params)
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (r *Neo4jRepo[T, ID]) session(ctx context.Context, mode neo4j.AccessMode) Runner {
	if r.newSession != nil {
		return r.newSession(ctx, mode)
	}
	return &sessionAdapter{sess: r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: r.database,
	})}
}

// single runs cypher and decodes the first row, or returns ErrNotFound.
func (r *Neo4jRepo[T, ID]) single(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) (T, error) {
	sess := r.session(ctx, mode)
	defer sess.Close(ctx)
	return r.first(ctx, sess, cypher, params)
}

func (r *Neo4jRepo[T, ID]) first(ctx context.Context, tx Tx, cypher string, params map[string]any) (T, error) {
	var zero T
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return zero, err
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%s %v: %w", r.label, params[r.idKey], ErrNotFound)
	}
	return r.fromRecord(res.Record())
}

func (r *Neo4jRepo[T, ID]) Get(ctx context.Context, id ID) (T, error) {
	cypher := fmt.Sprintf("MATCH (n:%s {%s: $%s}) RETURN n", r.label, r.idKey, r.idKey)
	return r.single(ctx, neo4j.AccessModeRead, cypher, map[string]any{r.idKey: id})
}

func (r *Neo4jRepo[T, ID]) List(ctx context.Context, opts ListOpts) ([]T, error) {
	opts = opts.normalized()
	sess := r.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MATCH (n:%s) RETURN n ORDER BY %s SKIP $offset LIMIT $limit", r.label, r.orderBy)
	res, err := sess.Run(ctx, cypher, map[string]any{"offset": opts.Offset, "limit": opts.Limit})
	if err != nil {
		return nil, err
	}

	var items []T
	for res.Next(ctx) {
		item, err := r.fromRecord(res.Record())
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, res.Err()
}

// Upsert MERGEs the node on its ID and overwrites the given properties.
func (r *Neo4jRepo[T, ID]) Upsert(ctx context.Context, entity T) (T, error) {
	return r.UpsertWith(ctx, entity)
}

// UpsertWith upserts entity and runs then in the same write transaction, e.g.
// to maintain the entity's relationships. Either everything commits or
// nothing does.
func (r *Neo4jRepo[T, ID]) UpsertWith(ctx context.Context, entity T, then ...Statement) (T, error) {
	props := r.toMap(entity)
	cypher := fmt.Sprintf("MERGE (n:%s {%s: $%s}) SET n += $props RETURN n", r.label, r.idKey, r.idKey)
	params := map[string]any{r.idKey: props[r.idKey], "props": props}

	sess := r.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	var out T
	err := sess.ExecuteWrite(ctx, func(tx Tx) error {
		v, err := r.first(ctx, tx, cypher, params)
		if err != nil {
			return err
		}
		for i, st := range then {
			if err := drain(ctx, tx, st); err != nil {
				return fmt.Errorf("%s statement %d: %w", r.label, i+1, err)
			}
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func drain(ctx context.Context, tx Tx, st Statement) error {
	res, err := tx.Run(ctx, st.Cypher, st.Params)
	if err != nil {
		return err
	}
	for res.Next(ctx) {
	}
	return res.Err()
}

func (r *Neo4jRepo[T, ID]) Count(ctx context.Context) (int64, error) {
	sess := r.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", r.label), nil)
	if err != nil {
		return 0, err
	}
	if !res.Next(ctx) {
		return 0, res.Err()
	}
	c, _, err := neo4j.GetRecordValue[int64](res.Record(), "c")
	return c, err
}

// Exec runs a write statement that returns nothing the repository decodes,
// e.g. schema constraints.
func (r *Neo4jRepo[T, ID]) Exec(ctx context.Context, cypher string, params map[string]any) error {
	sess := r.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)
	return drain(ctx, sess, Statement{Cypher: cypher, Params: params})
}

// Query runs a read statement and hands each row to each.
func (r *Neo4jRepo[T, ID]) Query(ctx context.Context, cypher string, params map[string]any, each func(*neo4j.Record) error) error {
	sess := r.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	for res.Next(ctx) {
		if err := each(res.Record()); err != nil {
			return err
		}
	}
	return res.Err()
}
