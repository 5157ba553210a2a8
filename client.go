package uderia

import (
	"context"
	"sync/atomic"

	"github.com/rgeissen/uderia-sub002/mux"
	"github.com/rgeissen/uderia-sub002/store"
	"github.com/rgeissen/uderia-sub002/stream"
	"github.com/rgeissen/uderia-sub002/transport"
	"github.com/rgeissen/uderia-sub002/viewstate"
)

// Client is the session multiplexing client: it owns the session store,
// the switch controller, and (when configured) the live event feed, and
// exposes the operations the front end needs.
type Client struct {
	cfg   *internalConfig
	log   Logger
	store store.Store
	ctrl  *mux.Controller
	sub   *transport.Subscriber

	started atomic.Bool
}

// New creates a client. The controller starts with no foreground
// session; callers typically follow up with SwitchSession or NewSession.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ic := newInternalConfig(cfg)
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	ctrl, err := mux.NewController(mux.Config{
		Store:       ic.store,
		Logger:      ic.logger,
		Clock:       ic.clock,
		SnapshotTTL: ic.snapshotTTL,
	})
	if err != nil {
		return nil, NewSessionError("New", err)
	}

	c := &Client{
		cfg:   ic,
		log:   ic.logger,
		store: ic.store,
		ctrl:  ctrl,
	}

	if ic.eventsURL != "" {
		sub, err := transport.NewSubscriber(&transport.Config{
			URL:            ic.eventsURL,
			HTTPClient:     ic.httpClient,
			ReconnectDelay: ic.reconnectDelay,
			OnError:        c.streamError,
			OnReconnect:    c.streamReconnect,
		}, ctrl.OnSessionEvent)
		if err != nil {
			return nil, NewSessionError("New", err)
		}
		c.sub = sub
	}

	return c, nil
}

// Start opens the live event feed, if one is configured.
func (c *Client) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrClientAlreadyStarted
	}
	if c.sub == nil {
		return nil
	}
	if err := c.sub.Start(ctx); err != nil {
		c.started.Store(false)
		return NewSessionError("Start", err)
	}
	return nil
}

// Stop closes the event feed and waits for delivery to drain.
func (c *Client) Stop(ctx context.Context) error {
	if !c.started.Load() {
		return ErrClientNotStarted
	}
	defer c.started.Store(false)
	if c.sub == nil {
		return nil
	}
	if err := c.sub.Stop(ctx); err != nil {
		return NewSessionError("Stop", err)
	}
	return nil
}

// OnSessionEvent feeds one live event into the multiplexer. Embedders
// that bring their own transport call this instead of configuring
// EventsURL; ordering per session is the caller's responsibility.
func (c *Client) OnSessionEvent(sessionID string, ev stream.Event) {
	c.ctrl.OnSessionEvent(sessionID, ev)
}

// SwitchSession makes the target session the rendered one. On failure
// the view already shows the error inline; the returned error lets
// cascading callers (such as DeleteSession) fall back.
func (c *Client) SwitchSession(ctx context.Context, sessionID string) error {
	if err := c.ctrl.SwitchTo(ctx, sessionID); err != nil {
		return NewSessionErrorWithSession("SwitchSession", sessionID, err)
	}
	return nil
}

// View returns a consistent copy of the current foreground view state.
func (c *Client) View() viewstate.Snapshot {
	return c.ctrl.ViewSnapshot()
}

// ForegroundID returns the id of the rendered session, or "" before the
// first switch.
func (c *Client) ForegroundID() string {
	return c.ctrl.ForegroundID()
}

// SessionLive reports whether a session currently has an open stream.
func (c *Client) SessionLive(sessionID string) bool {
	return c.ctrl.SessionLive(sessionID)
}

// IsRunning returns true between Start and Stop.
func (c *Client) IsRunning() bool {
	return c.started.Load()
}

func (c *Client) streamError(err error) {
	c.log.Warn("event feed disconnected", "err", err)
	if c.cfg.onStreamError != nil {
		c.cfg.onStreamError(err)
	}
}

func (c *Client) streamReconnect() {
	c.log.Info("event feed reconnecting")
	if c.cfg.onStreamReconnect != nil {
		c.cfg.onStreamReconnect()
	}
}
