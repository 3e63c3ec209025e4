//go:build integration

package natsutil

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(natsURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return nc
}

func TestNATS_PubSubExternal(t *testing.T) {
	nc := connectNATS(t)

	type msg struct {
		Text string `json:"text"`
	}

	ch := make(chan msg, 1)
	sub, err := Subscribe(nc, "integ.pubsub", func(ctx context.Context, m msg) {
		ch <- m
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "integ.pubsub", msg{Text: "1HGCM82633A004352"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.Text != "1HGCM82633A004352" {
			t.Fatalf("expected VIN, got %q", got.Text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNATS_RequestExternal(t *testing.T) {
	nc := connectNATS(t)

	type req struct{ VIN string }
	type resp struct{ Length int }

	sub, err := Handle(nc, "integ.request", "integ", slog.Default(), func(_ context.Context, r req) (resp, error) {
		return resp{Length: len(r.VIN)}, nil
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	defer sub.Unsubscribe()

	got, err := Request[req, resp](context.Background(), nc, "integ.request", req{VIN: "1HGCM82633A004352"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got.Length != 17 {
		t.Fatalf("expected 17, got %d", got.Length)
	}
}
