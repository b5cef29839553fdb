// Package notify announces finished builds on a NATS subject.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitegen/internal/build"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// BuildEvent is the JSON payload published for every build.
type BuildEvent struct {
	BuildID     string    `json:"build_id"`
	Site        string    `json:"site"`
	Trigger     string    `json:"trigger"`
	Outcome     string    `json:"outcome"`
	Stage       string    `json:"stage"`
	Pages       int       `json:"pages"`
	Published   bool      `json:"published"`
	Error       string    `json:"error,omitempty"`
	BrokenLinks []string  `json:"broken_links,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventFromResult converts a build result to its wire form.
func EventFromResult(r *build.Result) BuildEvent {
	return BuildEvent{
		BuildID:     r.BuildID,
		Site:        r.Site,
		Trigger:     string(r.Trigger),
		Outcome:     string(r.Outcome),
		Stage:       string(r.Stage),
		Pages:       r.Pages,
		Published:   r.Published,
		Error:       r.ErrorString(),
		BrokenLinks: r.BrokenLinks,
		DurationMS:  r.Duration().Milliseconds(),
		Timestamp:   r.End,
	}
}

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATSNotifier publishes build events with core NATS.
type NATSNotifier struct {
	conn    publisher
	closer  func()
	subject string
}

// Connect dials url and returns a notifier for subject.
func Connect(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("sitegen"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, ferrors.NewError(ferrors.CategoryRuntime, "failed to connect to NATS").
			WithCause(err).WithContext("url", url).Build()
	}
	slog.Info("NATS notifier connected", "url", url, "subject", subject)
	return &NATSNotifier{conn: conn, closer: conn.Close, subject: subject}, nil
}

// RecordBuild publishes r. It satisfies build.Sink.
func (n *NATSNotifier) RecordBuild(_ context.Context, r *build.Result) error {
	data, err := json.Marshal(EventFromResult(r))
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}
	slog.Debug("Published build event", "subject", n.subject, "build_id", r.BuildID)
	return nil
}

// Close drops the connection.
func (n *NATSNotifier) Close() {
	if n.closer != nil {
		n.closer()
	}
}
