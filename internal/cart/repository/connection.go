package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig carries the connection settings for the cart store. Zero values
// fall back to defaults sized for a single service instance.
type MongoConfig struct {
	URI              string
	Database         string
	ConnectTimeout   time.Duration
	SelectionTimeout time.Duration
	MaxPoolSize      uint64
	MinPoolSize      uint64
}

func (c MongoConfig) withDefaults() MongoConfig {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.SelectionTimeout <= 0 {
		c.SelectionTimeout = 5 * time.Second
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = 100
	}
	if c.MinPoolSize == 0 {
		c.MinPoolSize = 10
	}
	return c
}

// ConnectMongoDB connects, verifies the server is reachable and returns a
// handle on the configured database.
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	cfg = cfg.withDefaults()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.SelectionTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return client.Database(cfg.Database), nil
}
