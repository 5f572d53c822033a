package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType is a workflow event name understood by the webhook receiver.
type EventType string

const (
	EventCompanyCreated    EventType = "companycreated"
	EventCompanyDeleted    EventType = "companydeleted"
	EventAccessCode        EventType = "accesscode"
	EventAccessCodeDeleted EventType = "accesscodedeleted"
	EventUserCreated       EventType = "usercreated"
	EventUserDeleted       EventType = "userdeleted"
	EventPolicySaved       EventType = "policysaved"
)

var knownEvents = map[EventType]bool{
	EventCompanyCreated:    true,
	EventCompanyDeleted:    true,
	EventAccessCode:        true,
	EventAccessCodeDeleted: true,
	EventUserCreated:       true,
	EventUserDeleted:       true,
	EventPolicySaved:       true,
}

// Valid reports whether t is in the receiver's vocabulary.
func (t EventType) Valid() bool {
	return knownEvents[t]
}

// Envelope is the JSON body posted to the webhook.
type Envelope struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// queueSize bounds the events waiting for delivery.
const queueSize = 256

// ErrClosed is returned by Close when the notifier was already closed.
var ErrClosed = errors.New("notifier closed")

// Notifier delivers workflow events. Delivery is best effort: failures are
// logged and never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, event EventType, data any)
	// Close stops accepting events and waits for queued ones to be sent.
	Close(ctx context.Context) error
}

// webhookNotifier posts events to a fixed URL from a single background
// worker, so events arrive in the order they were raised.
type webhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan delivery
	done   chan struct{}
}

type delivery struct {
	event EventType
	body  []byte
}

// NewWebhookNotifier creates a Notifier posting to url. A blank url yields
// a notifier that drops every event.
func NewWebhookNotifier(url string, timeout time.Duration, logger zerolog.Logger) Notifier {
	logger = logger.With().Str("component", "webhook").Logger()

	if url == "" {
		logger.Info().Msg("webhook URL not configured, events will be dropped")
		return NewNoopNotifier()
	}

	n := &webhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
		logger: logger,
		queue:  make(chan delivery, queueSize),
		done:   make(chan struct{}),
	}
	go n.run()

	return n
}

// Notify encodes the event and queues it. It never waits on the receiver.
func (n *webhookNotifier) Notify(_ context.Context, event EventType, data any) {
	if !event.Valid() {
		n.logger.Error().Str("event", string(event)).Msg("refusing to send unknown webhook event")
		return
	}

	body, err := json.Marshal(Envelope{Type: event, Data: data, Timestamp: n.now().UTC()})
	if err != nil {
		n.logger.Error().Err(err).Str("event", string(event)).Msg("failed to encode webhook payload")
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		n.logger.Warn().Str("event", string(event)).Msg("notifier closed, dropping webhook event")
		return
	}

	select {
	case n.queue <- delivery{event: event, body: body}:
	default:
		n.logger.Warn().Str("event", string(event)).Msg("webhook queue full, dropping event")
	}
}

func (n *webhookNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *webhookNotifier) run() {
	defer close(n.done)
	for d := range n.queue {
		n.send(d)
	}
}

func (n *webhookNotifier) send(d delivery) {
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(d.body))
	if err != nil {
		n.logger.Error().Err(err).Str("event", string(d.event)).Msg("failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn().Err(err).Str("event", string(d.event)).Msg("webhook delivery failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Warn().
			Str("event", string(d.event)).
			Int("status", resp.StatusCode).
			Msg("webhook receiver rejected event")
		return
	}

	n.logger.Debug().
		Str("event", string(d.event)).
		Dur("duration", time.Since(start)).
		Msg("webhook delivered")
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops every event.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, EventType, any) {}

func (noopNotifier) Close(context.Context) error { return nil }
