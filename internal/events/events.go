// Package events publishes domain events (day saves, evictions, exports,
// gallery changes) to NATS so other services can follow along.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/julianstephens/unfilled/internal/logger"
)

// Event names, appended to the configured subject prefix.
const (
	DaySaved       = "day.saved"
	DayDeleted     = "day.deleted"
	DaysEvicted    = "day.evicted"
	CoverSaved     = "cover.saved"
	ExportRendered = "export.rendered"
	ExportFallback = "export.fallback"
	PostCreated    = "gallery.post.created"
	PostDeleted    = "gallery.post.deleted"
	AssignmentSet  = "assign.set"
	StorageCleared = "storage.cleared"
)

// Event is the envelope every message is wrapped in.
type Event struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, name string, data any) error
	Close() error
}

// Subject joins prefix and name with a dot.
func Subject(prefix, name string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// NATSPublisher publishes JSON events on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	now    func() time.Time

	mu     sync.Mutex
	closed bool
}

// Connect dials url and returns a publisher using prefix for subjects.
func Connect(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("unfilled"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, now: time.Now}, nil
}

// Publish marshals data into an Event and publishes it. NATS publishes are
// buffered, so ctx is only checked up front.
func (p *NATSPublisher) Publish(ctx context.Context, name string, data any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nats.ErrConnectionClosed
	}

	payload, err := json.Marshal(Event{Name: name, At: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", name, err)
	}
	if err := p.nc.Publish(Subject(p.prefix, name), payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.nc.Drain()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, name string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, At: time.Now().UTC(), Data: data})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

// Emit publishes and logs failures instead of returning them. Event delivery
// never fails the request that produced it.
func Emit(ctx context.Context, p Publisher, name string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, name, data); err != nil {
		logger.Warn("Failed to publish event", "event", name, "error", err)
	}
}
