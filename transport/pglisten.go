package transport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidwall/gjson"

	"github.com/rgeissen/uderia-sub002/stream"
)

// DefaultChannel is the NOTIFY channel the backend publishes session
// events on.
const DefaultChannel = "uderia_session_events"

// PGConfig holds configuration for the Postgres listener.
type PGConfig struct {
	// Channel is the LISTEN channel name. Default: DefaultChannel.
	Channel string

	// ReconnectDelay is how long to wait before reconnecting after a disconnect.
	// Default: 5 seconds
	ReconnectDelay time.Duration

	// OnError is called when the listener connection fails.
	OnError func(err error)

	// OnReconnect is called just before a reconnection attempt.
	OnReconnect func()
}

// DefaultPGConfig returns the default configuration.
func DefaultPGConfig() *PGConfig {
	return &PGConfig{
		Channel:        DefaultChannel,
		ReconnectDelay: 5 * time.Second,
	}
}

// PGListener consumes session events over PostgreSQL LISTEN/NOTIFY
// instead of the HTTP feed. The backend NOTIFYs the same JSON envelope
// the SSE feed carries, so both transports share one handler shape.
// Used when the front end is pointed straight at the backend database.
type PGListener struct {
	pool    *pgxpool.Pool
	config  *PGConfig
	handler Handler

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewPGListener creates a listener on the given pool.
func NewPGListener(pool *pgxpool.Pool, config *PGConfig, handler Handler) (*PGListener, error) {
	if config == nil {
		config = DefaultPGConfig()
	}
	if pool == nil {
		return nil, ErrNoPool
	}
	if handler == nil {
		return nil, ErrNoHandler
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = 5 * time.Second
	}
	return &PGListener{
		pool:    pool,
		config:  config,
		handler: handler,
	}, nil
}

// Start begins listening for notifications.
func (l *PGListener) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	// Fresh channel per run so a stopped listener can start again.
	l.done = make(chan struct{})
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)

	return nil
}

// Stop stops the listener and waits for the delivery loop to exit.
func (l *PGListener) Stop(ctx context.Context) error {
	if !l.started.Load() {
		return ErrNotStarted
	}

	l.cancel()
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.started.Store(false)
	return nil
}

// IsRunning returns true if the listener is running.
func (l *PGListener) IsRunning() bool {
	return l.started.Load()
}

// run is the main delivery loop.
func (l *PGListener) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := l.listen(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				if l.config.OnError != nil {
					l.config.OnError(err)
				}
				// Wait before reconnecting
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.config.ReconnectDelay):
					if l.config.OnReconnect != nil {
						l.config.OnReconnect()
					}
				}
			}
		}
	}
}

// listen holds one dedicated connection and delivers notifications
// until the connection drops.
func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.config.Channel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.deliver(notification.Payload)
	}
}

// deliver decodes one envelope and hands it to the handler. Payloads
// without a session id or type are skipped.
func (l *PGListener) deliver(data string) {
	sessionID := gjson.Get(data, "session_id").String()
	if sessionID == "" {
		return
	}
	ev, err := stream.Parse([]byte(data))
	if err != nil {
		return
	}
	l.handler(sessionID, ev)
}
