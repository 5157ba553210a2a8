// Package transport subscribes to the backend's live event feed.
//
// The backend exposes one server-sent-events stream carrying events for
// every session the user owns. Each SSE data line is a JSON envelope
// with a session_id plus the event's type and payload. The subscriber
// decodes envelopes, routes them to a single handler, and reconnects
// automatically when the stream drops.
//
// PGListener carries the same envelopes over PostgreSQL LISTEN/NOTIFY
// for deployments that point the front end straight at the backend
// database.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rgeissen/uderia-sub002/stream"
)

// Handler is called for every decoded event, in arrival order. Handlers
// are called synchronously to preserve per-session ordering; long work
// belongs elsewhere.
type Handler func(sessionID string, ev stream.Event)

// Config holds configuration for the subscriber.
type Config struct {
	// URL is the SSE feed endpoint (required, absolute).
	URL string

	// HTTPClient is the client used to open the stream.
	// Default: http.DefaultClient without a timeout (the stream is long-lived).
	HTTPClient *http.Client

	// ReconnectDelay is how long to wait before reconnecting after a disconnect.
	// Default: 5 seconds
	ReconnectDelay time.Duration

	// OnError is called when the stream fails.
	OnError func(err error)

	// OnReconnect is called just before a reconnection attempt.
	OnReconnect func()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ReconnectDelay: 5 * time.Second,
	}
}

// Subscriber consumes the backend event feed and fans events into a
// handler. One subscriber serves all sessions; it has no notion of
// which session is foregrounded.
type Subscriber struct {
	config  *Config
	client  *http.Client
	handler Handler

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewSubscriber creates a subscriber for the configured feed.
func NewSubscriber(config *Config, handler Handler) (*Subscriber, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if handler == nil {
		return nil, ErrNoHandler
	}
	u, err := url.Parse(config.URL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, config.URL)
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = 5 * time.Second
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Subscriber{
		config:  config,
		client:  client,
		handler: handler,
	}, nil
}

// Start opens the stream and begins delivering events.
func (s *Subscriber) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	// Fresh channel per run so a stopped subscriber can start again.
	s.done = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)

	return nil
}

// Stop closes the stream and waits for the delivery loop to exit.
func (s *Subscriber) Stop(ctx context.Context) error {
	if !s.started.Load() {
		return ErrNotStarted
	}

	s.cancel()
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.started.Store(false)
	return nil
}

// IsRunning returns true if the subscriber is running.
func (s *Subscriber) IsRunning() bool {
	return s.started.Load()
}

// run is the main delivery loop.
func (s *Subscriber) run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := s.listen(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				if s.config.OnError != nil {
					s.config.OnError(err)
				}
				// Wait before reconnecting
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.config.ReconnectDelay):
					if s.config.OnReconnect != nil {
						s.config.OnReconnect()
					}
				}
			}
		}
	}
}

// listen opens one stream connection and delivers events until it drops.
func (s *Subscriber) listen(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event feed returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Tool outputs can produce large payload lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			// Blank line terminates one SSE event.
			if data.Len() > 0 {
				s.deliver(data.String())
				data.Reset()
			}

		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))

		default:
			// Comments, event: and id: fields are not used by the feed.
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("event feed closed")
}

// deliver decodes one envelope and hands it to the handler. Envelopes
// without a session id or type are skipped; the stream must survive
// whatever the backend sends.
func (s *Subscriber) deliver(data string) {
	sessionID := gjson.Get(data, "session_id").String()
	if sessionID == "" {
		return
	}
	ev, err := stream.Parse([]byte(data))
	if err != nil {
		return
	}
	s.handler(sessionID, ev)
}
