package uderia

import (
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rgeissen/uderia-sub002/mux"
	"github.com/rgeissen/uderia-sub002/store"
)

// Logger is the minimal structured logging interface the client uses.
// args are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Config holds the required configuration for a client.
//
// Example:
//
//	st, _ := store.NewRESTStore("https://backend.example.com/api", nil)
//	client, _ := uderia.New(uderia.Config{
//	    Store:     st,
//	    EventsURL: "https://backend.example.com/api/events",
//	})
type Config struct {
	// Store is the session store collaborator (required)
	Store store.Store

	// EventsURL is the backend's SSE event feed. Optional: when empty,
	// the embedder feeds events through Client.OnSessionEvent directly.
	EventsURL string
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Store == nil {
		return fmt.Errorf("%w: session store is required", ErrInvalidConfig)
	}
	return nil
}

// internalConfig holds the full client configuration including optional parameters
type internalConfig struct {
	// Required from Config
	store     store.Store
	eventsURL string

	// Optional parameters
	logger         Logger
	clock          clock.Clock
	snapshotTTL    time.Duration
	httpClient     *http.Client
	reconnectDelay time.Duration

	onStreamError     func(err error)
	onStreamReconnect func()
}

// newInternalConfig creates a new internal config from the public Config
func newInternalConfig(cfg Config) *internalConfig {
	return &internalConfig{
		store:     cfg.Store,
		eventsURL: cfg.EventsURL,

		// Defaults
		logger:         nopLogger{},
		clock:          clock.New(),
		snapshotTTL:    mux.DefaultSnapshotTTL,
		reconnectDelay: 5 * time.Second,
	}
}
