package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rgeissen/uderia-sub002/stream"
)

type collected struct {
	sessionID string
	ev        stream.Event
}

type collector struct {
	mu     sync.Mutex
	events []collected
	notify chan struct{}
}

func newCollector() *collector {
	return &collector{notify: make(chan struct{}, 64)}
}

func (c *collector) handle(sessionID string, ev stream.Event) {
	c.mu.Lock()
	c.events = append(c.events, collected{sessionID, ev})
	c.mu.Unlock()
	c.notify <- struct{}{}
}

func (c *collector) waitFor(t *testing.T, n int) []collected {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		c.mu.Lock()
		if len(c.events) >= n {
			out := append([]collected(nil), c.events...)
			c.mu.Unlock()
			return out
		}
		c.mu.Unlock()
		select {
		case <-c.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events", n)
		}
	}
}

func sseServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range chunks {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubscriberDeliversEvents(t *testing.T) {
	srv := sseServer(t,
		"data: {\"session_id\":\"a\",\"type\":\"execution_start\",\"payload\":{\"task_id\":\"t1\"}}\n\n",
		": heartbeat\n\n",
		"data: {\"session_id\":\"b\",\"type\":\"token_usage\",\"payload\":{\"input_tokens\":7}}\n\n",
	)

	c := newCollector()
	sub, err := NewSubscriber(&Config{URL: srv.URL}, c.handle)
	if err != nil {
		t.Fatalf("NewSubscriber: %v", err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = sub.Stop(context.Background()) }()

	events := c.waitFor(t, 2)
	if events[0].sessionID != "a" || events[0].ev.Type != stream.EventExecutionStart {
		t.Errorf("event 0 = %s/%s", events[0].sessionID, events[0].ev.Type)
	}
	if events[0].ev.TaskID() != "t1" {
		t.Errorf("event 0 task id = %q, want t1", events[0].ev.TaskID())
	}
	if events[1].sessionID != "b" || events[1].ev.Int("input_tokens") != 7 {
		t.Errorf("event 1 = %s/%+v", events[1].sessionID, events[1].ev)
	}
}

func TestSubscriberSkipsMalformedEnvelopes(t *testing.T) {
	srv := sseServer(t,
		"data: {\"type\":\"execution_start\"}\n\n", // no session id
		"data: {\"session_id\":\"a\"}\n\n",         // no type
		"data: not json at all\n\n",
		"data: {\"session_id\":\"a\",\"type\":\"cost_update\",\"payload\":{\"total_cost\":1}}\n\n",
	)

	c := newCollector()
	sub, err := NewSubscriber(&Config{URL: srv.URL}, c.handle)
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sub.Stop(context.Background()) }()

	events := c.waitFor(t, 1)
	if events[0].ev.Type != stream.EventCostUpdate {
		t.Errorf("delivered %s, want only the well-formed envelope", events[0].ev.Type)
	}
}

func TestSubscriberReconnects(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := conns.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"session_id\":\"a\",\"type\":\"token_usage\",\"payload\":{\"input_tokens\":%d}}\n\n", n)
		w.(http.Flusher).Flush()
		// Drop the connection so the subscriber reconnects.
	}))
	t.Cleanup(srv.Close)

	var reconnects atomic.Int32
	c := newCollector()
	sub, err := NewSubscriber(&Config{
		URL:            srv.URL,
		ReconnectDelay: 10 * time.Millisecond,
		OnReconnect:    func() { reconnects.Add(1) },
	}, c.handle)
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sub.Stop(context.Background()) }()

	events := c.waitFor(t, 2)
	if events[0].ev.Int("input_tokens") == events[1].ev.Int("input_tokens") {
		t.Error("expected events from two distinct connections")
	}
	if reconnects.Load() == 0 {
		t.Error("expected OnReconnect to fire")
	}
}

func TestSubscriberStartStop(t *testing.T) {
	srv := sseServer(t)
	sub, err := NewSubscriber(&Config{URL: srv.URL}, func(string, stream.Event) {})
	if err != nil {
		t.Fatal(err)
	}

	if err := sub.Stop(context.Background()); err != ErrNotStarted {
		t.Errorf("Stop before Start = %v, want ErrNotStarted", err)
	}
	if err := sub.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := sub.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	if !sub.IsRunning() {
		t.Error("expected IsRunning after Start")
	}
	if err := sub.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if sub.IsRunning() {
		t.Error("expected not running after Stop")
	}
}

func TestSubscriberRestart(t *testing.T) {
	srv := sseServer(t, "data: {\"session_id\":\"s-1\",\"type\":\"execution_start\"}\n\n")
	col := newCollector()
	sub, err := NewSubscriber(&Config{URL: srv.URL}, col.handle)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for cycle := 0; cycle < 2; cycle++ {
		if err := sub.Start(ctx); err != nil {
			t.Fatalf("Start cycle %d: %v", cycle, err)
		}
		col.waitFor(t, cycle+1)
		if err := sub.Stop(ctx); err != nil {
			t.Fatalf("Stop cycle %d: %v", cycle, err)
		}
		if sub.IsRunning() {
			t.Fatalf("still running after Stop cycle %d", cycle)
		}
	}
}

func TestNewSubscriberValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		handler Handler
		wantErr error
	}{
		{"no handler", &Config{URL: "http://localhost/events"}, nil, ErrNoHandler},
		{"relative url", &Config{URL: "/events"}, func(string, stream.Event) {}, ErrInvalidURL},
		{"empty url", &Config{}, func(string, stream.Event) {}, ErrInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSubscriber(tt.config, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
