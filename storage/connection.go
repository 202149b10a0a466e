package storage

import (
	"context"
	"sync"

	"backend/config"
	"backend/metrics"
	"backend/util/goroutine"

	"go.uber.org/zap"
)

// ConnectionState describes where an asynchronous connection attempt stands.
type ConnectionState int

const (
	StatePending ConnectionState = iota
	StateConnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// dialFunc opens a database connection. Swapped out in tests.
type dialFunc func(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*MongoDB, error)

// Connection is the process-wide database handle. It is created pending and
// settles exactly once into connected or failed; there is no retry.
type Connection struct {
	mu    sync.RWMutex
	state ConnectionState
	db    *MongoDB
	err   error
	done  chan struct{}
}

// ConnectAsync starts a connection attempt in the background and returns
// immediately. The outcome is logged and never escalated to the caller.
func ConnectAsync(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) *Connection {
	return connectAsync(ctx, cfg, logger, NewMongoDB)
}

func connectAsync(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, dial dialFunc) *Connection {
	c := &Connection{
		state: StatePending,
		done:  make(chan struct{}),
	}
	metrics.MongoConnectionState.Set(float64(StatePending))

	go func() {
		defer c.settleOnPanic()
		defer goroutine.Recover("mongodb-connect", logger)

		db, err := dial(ctx, cfg, logger)
		if err != nil {
			logger.Errorw("MongoDB connection failed", "error", err)
			c.settle(nil, err)
			return
		}
		logger.Infow("MongoDB connected", "database", db.Database.Name())
		c.settle(db, nil)
	}()

	return c
}

func (c *Connection) settle(db *MongoDB, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePending {
		return
	}
	c.db = db
	c.err = err
	if err != nil {
		c.state = StateFailed
	} else {
		c.state = StateConnected
	}
	metrics.MongoConnectionState.Set(float64(c.state))
	close(c.done)
}

// settleOnPanic runs after Recover, so a panicking dialer still leaves the handle failed.
func (c *Connection) settleOnPanic() {
	c.settle(nil, errDialPanicked)
}

// State reports the current state of the connection attempt.
func (c *Connection) State() ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the connection error once the attempt has failed.
func (c *Connection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// DB returns the live database, or nil unless the attempt succeeded.
func (c *Connection) DB() *MongoDB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Done is closed once the attempt has settled.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the attempt settles or ctx is done.
func (c *Connection) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HealthCheck pings the database, or returns ErrNotConnected if there is no live connection.
func (c *Connection) HealthCheck(ctx context.Context) error {
	db := c.DB()
	if db == nil {
		return ErrNotConnected
	}
	return db.HealthCheck(ctx)
}

// Close disconnects the client if the attempt succeeded.
// A still-pending attempt is not waited for; its context should be cancelled by the owner.
func (c *Connection) Close(ctx context.Context) error {
	db := c.DB()
	if db == nil {
		return nil
	}
	return db.Close(ctx)
}
