// Package nats carries document-ingested events between the API and the
// ingest workers. Workers share a queue group, so each document is
// processed by exactly one of them.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

const (
	defaultQueueGroup = "ingest-workers"
	publishedAtHeader = "Notebook-Published-At"
)

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	QueueGroup           string
	ResilienceExecutor   *resilience.Executor
}

func (o Options) connectOptions() []nats.Option {
	retry := true
	if o.RetryOnFailedConnect != nil {
		retry = *o.RetryOnFailedConnect
	}
	maxReconnects := o.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	return []nats.Option{
		nats.Name("notebook-llm"),
		nats.Timeout(orDefault(o.ConnectTimeout, 2*time.Second)),
		nats.ReconnectWait(orDefault(o.ReconnectWait, 2*time.Second)),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retry),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	}
}

type Queue struct {
	conn     *nats.Conn
	subject  string
	group    string
	executor *resilience.Executor
	now      func() time.Time
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	conn, err := nats.Connect(url, options.connectOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	group := strings.TrimSpace(options.QueueGroup)
	if group == "" {
		group = defaultQueueGroup
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		group:    group,
		executor: options.ResilienceExecutor,
		now:      time.Now,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishDocumentIngested announces a stored document. The body is the bare
// document id; the publish time rides in a header for queue-lag logging.
func (q *Queue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	msg := newIngestMessage(q.subject, documentID, q.now())
	publish := func(context.Context) error {
		if err := q.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", publish, classifyNATSError)
	} else {
		err = publish(ctx)
	}
	return publishError(err)
}

// SubscribeDocumentIngested blocks until ctx ends, then drains in-flight
// messages before returning.
func (q *Queue) SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.group, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		documentID, publishedAt, ok := parseIngestMessage(msg)
		if !ok {
			slog.Warn("ingest_event_empty", "subject", msg.Subject)
			return
		}
		if !publishedAt.IsZero() {
			slog.Debug("ingest_event_received", "document_id", documentID, "lag_ms", q.now().Sub(publishedAt).Milliseconds())
		}
		if err := handler(ctx, documentID); err != nil {
			slog.Error("ingest_handler_failed", "document_id", documentID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func newIngestMessage(subject, documentID string, at time.Time) *nats.Msg {
	msg := nats.NewMsg(subject)
	msg.Data = []byte(documentID)
	msg.Header.Set(publishedAtHeader, at.UTC().Format(time.RFC3339Nano))
	return msg
}

// parseIngestMessage accepts headerless messages too, as published by
// `nats pub` during manual reprocessing.
func parseIngestMessage(msg *nats.Msg) (string, time.Time, bool) {
	documentID := strings.TrimSpace(string(msg.Data))
	if documentID == "" {
		return "", time.Time{}, false
	}
	var publishedAt time.Time
	if msg.Header != nil {
		if raw := msg.Header.Get(publishedAtHeader); raw != "" {
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				publishedAt = t
			}
		}
	}
	return documentID, publishedAt, true
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
