package repo_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/vindecoder/pkg/repo"
	"github.com/WessleyAI/vindecoder/pkg/repo/repotest"
)

type entity struct {
	ID   string
	Name string
}

func newTestRepo(r *repotest.Runner) *repo.Neo4jRepo[entity, string] {
	return repo.NewNeo4jRepo[entity, string](
		nil, "Entity",
		func(e entity) map[string]any { return map[string]any{"id": e.ID, "name": e.Name} },
		func(rec *neo4j.Record) (entity, error) {
			n, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "n")
			if err != nil {
				return entity{}, err
			}
			id, _ := n.Props["id"].(string)
			name, _ := n.Props["name"].(string)
			return entity{ID: id, Name: name}, nil
		},
		repo.WithRunner[entity, string](r.Factory()),
	)
}

func node(id, name string) *neo4j.Record {
	return repotest.Node(map[string]any{"id": id, "name": name}, "Entity")
}

func TestGet(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{node("1", "Alice")}})
	e, err := newTestRepo(r).Get(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "1" || e.Name != "Alice" {
		t.Fatalf("got %+v", e)
	}
	call := r.Calls()[0]
	if call.Cypher != "MATCH (n:Entity {id: $id}) RETURN n" || call.Params["id"] != "1" {
		t.Fatalf("unexpected call %+v", call)
	}
	if call.Mode != neo4j.AccessModeRead {
		t.Fatal("Get should use a read session")
	}
	if r.Closed() != 1 {
		t.Fatal("session not closed")
	}
}

func TestGetNotFound(t *testing.T) {
	r := &repotest.Runner{}
	_, err := newTestRepo(r).Get(context.Background(), "x")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRunError(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Err: errors.New("db down")})
	_, err := newTestRepo(r).Get(context.Background(), "x")
	if err == nil || err.Error() != "db down" {
		t.Fatalf("expected db down, got %v", err)
	}
}

func TestList(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{node("1", "A"), node("2", "B")}})
	items, err := newTestRepo(r).List(context.Background(), repo.ListOpts{Offset: 5, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[1].Name != "B" {
		t.Fatalf("got %+v", items)
	}
	call := r.Calls()[0]
	if !strings.Contains(call.Cypher, "ORDER BY n.id SKIP $offset LIMIT $limit") {
		t.Fatalf("unexpected cypher %q", call.Cypher)
	}
	if call.Params["offset"] != 5 || call.Params["limit"] != 10 {
		t.Fatalf("unexpected params %v", call.Params)
	}
}

func TestListLimits(t *testing.T) {
	cases := []struct {
		in         repo.ListOpts
		off, limit int
	}{
		{repo.ListOpts{}, 0, repo.DefaultListLimit},
		{repo.ListOpts{Offset: -3, Limit: 1 << 20}, 0, repo.MaxListLimit},
	}
	for _, tc := range cases {
		r := &repotest.Runner{}
		if _, err := newTestRepo(r).List(context.Background(), tc.in); err != nil {
			t.Fatal(err)
		}
		p := r.Calls()[0].Params
		if p["offset"] != tc.off || p["limit"] != tc.limit {
			t.Errorf("%+v: got offset=%v limit=%v", tc.in, p["offset"], p["limit"])
		}
	}
}

func TestListDecodeError(t *testing.T) {
	bad := repotest.Row("n", "not a node")
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{bad}})
	if _, err := newTestRepo(r).List(context.Background(), repo.ListOpts{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestUpsert(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{node("3", "C")}})
	e, err := newTestRepo(r).Upsert(context.Background(), entity{ID: "3", Name: "C"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "C" {
		t.Fatalf("got %+v", e)
	}
	call := r.Calls()[0]
	if call.Cypher != "MERGE (n:Entity {id: $id}) SET n += $props RETURN n" {
		t.Fatalf("unexpected cypher %q", call.Cypher)
	}
	if call.Mode != neo4j.AccessModeWrite || call.Params["id"] != "3" {
		t.Fatalf("unexpected call %+v", call)
	}
}

func TestUpsertWith(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{node("3", "C")}})
	link := repo.Statement{Cypher: "MATCH (n:Entity {id: $id}) MERGE (n)-[:OF]->(:Group)", Params: map[string]any{"id": "3"}}
	e, err := newTestRepo(r).UpsertWith(context.Background(), entity{ID: "3", Name: "C"}, link)
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "3" {
		t.Fatalf("got %+v", e)
	}
	calls := r.Calls()
	if len(calls) != 2 || calls[1].Cypher != link.Cypher {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if r.Commits() != 1 || r.Rollbacks() != 0 {
		t.Fatalf("commits=%d rollbacks=%d", r.Commits(), r.Rollbacks())
	}
	if r.Closed() != 1 {
		t.Fatalf("closed %d sessions", r.Closed())
	}
}

func TestUpsertWithRollsBack(t *testing.T) {
	r := (&repotest.Runner{}).Push(
		repotest.Response{Records: []*neo4j.Record{node("3", "C")}},
		repotest.Response{Err: errors.New("constraint")},
	)
	e, err := newTestRepo(r).UpsertWith(context.Background(), entity{ID: "3"}, repo.Statement{Cypher: "RETURN 1"})
	if err == nil || !strings.Contains(err.Error(), "Entity statement 1: constraint") {
		t.Fatalf("err = %v", err)
	}
	if e != (entity{}) {
		t.Fatalf("got %+v on failure", e)
	}
	if r.Commits() != 0 || r.Rollbacks() != 1 {
		t.Fatalf("commits=%d rollbacks=%d", r.Commits(), r.Rollbacks())
	}
}

func TestCount(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{repotest.Row("c", int64(42))}})
	n, err := newTestRepo(r).Count(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestExec(t *testing.T) {
	r := &repotest.Runner{}
	err := newTestRepo(r).Exec(context.Background(), "MATCH (n) DETACH DELETE n", nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Calls()[0].Mode != neo4j.AccessModeWrite {
		t.Fatal("Exec should use a write session")
	}

	r.Push(repotest.Response{Err: errors.New("fail")})
	if err := newTestRepo(r).Exec(context.Background(), "RETURN 1", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestOptions(t *testing.T) {
	r := &repotest.Runner{}
	rp := repo.NewNeo4jRepo[entity, string](nil, "Vehicle",
		func(e entity) map[string]any { return map[string]any{"vin": e.ID} },
		func(*neo4j.Record) (entity, error) { return entity{}, nil },
		repo.WithIDKey[entity, string]("vin"),
		repo.WithOrderBy[entity, string]("n.updated_at DESC"),
		repo.WithDatabase[entity, string]("vins"),
		repo.WithRunner[entity, string](r.Factory()),
	)
	rp.Get(context.Background(), "V")
	rp.List(context.Background(), repo.ListOpts{})
	calls := r.Calls()
	if calls[0].Cypher != "MATCH (n:Vehicle {vin: $vin}) RETURN n" {
		t.Fatalf("unexpected cypher %q", calls[0].Cypher)
	}
	if !strings.Contains(calls[1].Cypher, "ORDER BY n.updated_at DESC SKIP") {
		t.Fatalf("unexpected cypher %q", calls[1].Cypher)
	}
}

func TestQuery(t *testing.T) {
	r := (&repotest.Runner{}).Push(repotest.Response{Records: []*neo4j.Record{
		repotest.Row("k", "a"), repotest.Row("k", "b"),
	}})
	var got []string
	err := newTestRepo(r).Query(context.Background(), "MATCH (n) RETURN n.k AS k", nil, func(rec *neo4j.Record) error {
		k, _, err := neo4j.GetRecordValue[string](rec, "k")
		got = append(got, k)
		return err
	})
	if err != nil || len(got) != 2 || got[1] != "b" {
		t.Fatalf("Query = %v, %v", got, err)
	}
	if r.Calls()[0].Mode != neo4j.AccessModeRead {
		t.Fatal("Query should use a read session")
	}
}
