package storage

import (
	"context"
	"fmt"

	"backend/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// defaultDatabaseName is what the driver and mongoose fall back to when no database is named.
const defaultDatabaseName = "test"

// MongoDB holds the MongoDB client and database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongoDB connects to MongoDB and pings the primary.
// The connect timeout from config bounds the whole attempt.
func NewMongoDB(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.MongoDB.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		// Release the monitor goroutines the driver started for this client
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := DatabaseName(cfg)
	logger.Debugw("MongoDB ping succeeded", "database", dbName)

	return &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

// clientOptions builds the driver options. Config values are defaults only:
// ApplyURI runs last, so maxPoolSize or serverSelectionTimeoutMS written in the
// URI take precedence.
func clientOptions(cfg *config.Config) *options.ClientOptions {
	return options.Client().
		SetServerSelectionTimeout(cfg.MongoDB.ConnectTimeout).
		SetMaxPoolSize(cfg.MongoDB.MaxPoolSize).
		ApplyURI(cfg.MongoDB.URI)
}

// DatabaseName resolves the database to use: explicit config first, then the
// path component of the connection URI, then the driver default.
func DatabaseName(cfg *config.Config) string {
	if cfg.MongoDB.Database != "" {
		return cfg.MongoDB.Database
	}
	cs, err := connstring.Parse(cfg.MongoDB.URI)
	if err == nil && cs.Database != "" {
		return cs.Database
	}
	return defaultDatabaseName
}

// HealthCheck performs a health check on the MongoDB connection
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
