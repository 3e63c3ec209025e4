// Package repotest provides an in-memory repo.Runner that records the
// statements it is given.
package repotest

import (
	"context"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/vindecoder/pkg/repo"
)

// Call is one recorded Run.
type Call struct {
	Cypher string
	Params map[string]any
	Mode   neo4j.AccessMode
}

// Runner replays queued responses in order. When the queue is empty Run
// returns an empty result.
type Runner struct {
	mu        sync.Mutex
	responses []Response
	calls     []Call
	closed    int
	commits   int
	rollbacks int
}

// Response is what a single Run returns.
type Response struct {
	Records []*neo4j.Record
	Err     error
}

// Push queues responses.
func (r *Runner) Push(rs ...Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, rs...)
	return r
}

// Factory returns a session factory suitable for repo.WithRunner.
func (r *Runner) Factory() func(context.Context, neo4j.AccessMode) repo.Runner {
	return func(_ context.Context, mode neo4j.AccessMode) repo.Runner {
		return &session{r: r, mode: mode}
	}
}

// Calls returns the recorded statements.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Closed returns how many sessions were closed.
func (r *Runner) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Commits returns how many ExecuteWrite calls committed.
func (r *Runner) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

// Rollbacks returns how many ExecuteWrite calls rolled back.
func (r *Runner) Rollbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rollbacks
}

type session struct {
	r    *Runner
	mode neo4j.AccessMode
}

func (s *session) Run(_ context.Context, cypher string, params map[string]any) (repo.Result, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.calls = append(s.r.calls, Call{Cypher: cypher, Params: params, Mode: s.mode})
	var resp Response
	if len(s.r.responses) > 0 {
		resp, s.r.responses = s.r.responses[0], s.r.responses[1:]
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &result{records: resp.Records}, nil
}

func (s *session) ExecuteWrite(_ context.Context, work func(repo.Tx) error) error {
	err := work(s)
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if err != nil {
		s.r.rollbacks++
		return err
	}
	s.r.commits++
	return nil
}

func (s *session) Close(context.Context) error {
	s.r.mu.Lock()
	s.r.closed++
	s.r.mu.Unlock()
	return nil
}

type result struct {
	records []*neo4j.Record
	idx     int
}

func (m *result) Next(context.Context) bool {
	if m.idx < len(m.records) {
		m.idx++
		return true
	}
	return false
}

func (m *result) Record() *neo4j.Record { return m.records[m.idx-1] }
func (m *result) Err() error            { return nil }

// Node builds a record with a single node column "n".
func Node(props map[string]any, labels ...string) *neo4j.Record {
	return &neo4j.Record{
		Keys:   []string{"n"},
		Values: []any{neo4j.Node{Labels: labels, Props: props}},
	}
}

// Row builds a record from alternating key, value pairs.
func Row(kvs ...any) *neo4j.Record {
	rec := &neo4j.Record{}
	for i := 0; i+1 < len(kvs); i += 2 {
		rec.Keys = append(rec.Keys, kvs[i].(string))
		rec.Values = append(rec.Values, kvs[i+1])
	}
	return rec
}
