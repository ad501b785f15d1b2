package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// Store is an open connection to the catalog database.
type Store struct {
	client *mongo.Client
	DB     *mongo.Database
}

// Connect dials uri, checks the primary answers and selects database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetAppName("workout-planner").
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(connCtx, opts)
	if err != nil {
		return nil, err
	}

	// Connect is lazy; an unreachable server only shows up on the first round trip.
	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), pingTimeout)
		defer closeCancel()
		_ = client.Disconnect(closeCtx)
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}

	return &Store{client: client, DB: client.Database(name)}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
