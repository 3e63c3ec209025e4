// Package natsutil provides typed NATS publish/subscribe/request helpers
// with OpenTelemetry trace propagation.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// ErrorHeader marks a reply whose body is an error description rather than
// a response value.
const ErrorHeader = "Nats-Service-Error"

// RemoteError is returned by Request when the responder replied with an error.
type RemoteError struct {
	Subject string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("nats %s: %s", e.Subject, e.Message)
}

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

func newMsg(ctx context.Context, subject string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
	return msg, nil
}

func msgContext(msg *nats.Msg) context.Context {
	return otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))
}

// Publish serializes v as JSON and publishes to the given subject.
// Trace context from ctx is injected into NATS message headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	msg, err := newMsg(ctx, subject, v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler that deserializes JSON messages of type T.
// Trace context is extracted from NATS message headers and passed to the handler.
// Malformed messages are dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		handler(msgContext(msg), v)
	})
}

// Handle serves request/reply on subject. Handlers in the same queue group
// share the load. A handler error, or a request that is not valid JSON,
// is sent back with ErrorHeader set.
func Handle[Req, Resp any](nc *nats.Conn, subject, queue string, logger *slog.Logger, handler func(context.Context, Req) (Resp, error)) (*nats.Subscription, error) {
	return nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			respondError(msg, logger, fmt.Errorf("malformed request: %w", err))
			return
		}
		resp, err := handler(msgContext(msg), req)
		if err != nil {
			respondError(msg, logger, err)
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			respondError(msg, logger, err)
			return
		}
		if err := msg.Respond(data); err != nil && !errors.Is(err, nats.ErrMsgNoReply) {
			logger.Warn("nats respond failed", "subject", msg.Subject, "err", err)
		}
	})
}

func respondError(msg *nats.Msg, logger *slog.Logger, cause error) {
	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(ErrorHeader, cause.Error())
	reply.Data, _ = json.Marshal(map[string]string{"error": cause.Error()})
	if err := msg.RespondMsg(reply); err != nil && !errors.Is(err, nats.ErrMsgNoReply) {
		logger.Warn("nats respond failed", "subject", msg.Subject, "err", err)
	}
}

// Request sends a JSON-encoded request and decodes the response. ctx bounds
// the wait; without a deadline nats.DefaultTimeout applies.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	msg, err := newMsg(ctx, subject, req)
	if err != nil {
		return zero, err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nats.DefaultTimeout)
		defer cancel()
	}
	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, err
	}
	if e := resp.Header.Get(ErrorHeader); e != "" {
		return zero, &RemoteError{Subject: subject, Message: e}
	}
	var result Resp
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return zero, err
	}
	return result, nil
}
