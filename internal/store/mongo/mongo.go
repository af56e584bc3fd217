// Package mongo stores catalog documents in MongoDB collections.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is a core.Store backed by one MongoDB database. Each endpoint
// collection maps to the Mongo collection of the same name.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for uri and verifies it against the primary.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Upsert sets the fields of doc on the document matching key, inserting it
// when none matches.
func (s *Store) Upsert(ctx context.Context, collection string, key core.Record, doc core.Record) (core.UpsertResult, error) {
	if len(key) == 0 {
		return core.UpsertResult{}, errors.New("empty natural key")
	}
	filter := bson.M{}
	for k, v := range key {
		filter[k] = v
	}
	update := bson.M{"$set": bson.M(doc)}

	res, err := s.db.Collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return core.UpsertResult{}, err
	}
	return core.UpsertResult{Inserted: res.UpsertedCount > 0}, nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates a unique index on each endpoint's natural key and
// the history lookup index.
func (s *Store) EnsureIndexes(ctx context.Context, endpoints []core.Endpoint) error {
	for _, ep := range endpoints {
		keys := bson.D{}
		for _, k := range ep.NaturalKey {
			keys = append(keys, bson.E{Key: k, Value: 1})
		}
		model := mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
		if _, err := s.db.Collection(ep.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("index %s: %w", ep.Collection, err)
		}
	}
	model := mongo.IndexModel{Keys: bson.D{{Key: "endpoint", Value: 1}, {Key: "started_at", Value: -1}}}
	if _, err := s.db.Collection(store.RunsCollection).Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("index %s: %w", store.RunsCollection, err)
	}
	return nil
}

type runDoc struct {
	ID             string    `bson:"_id"`
	Endpoint       string    `bson:"endpoint"`
	FileName       string    `bson:"file_name"`
	TotalRows      int       `bson:"total_rows"`
	ProcessedCount int       `bson:"processed_count"`
	ErrorCount     int       `bson:"error_count"`
	DurationMs     int64     `bson:"duration_ms"`
	StartedAt      time.Time `bson:"started_at"`
}

// RecordRun inserts an import history entry.
func (s *Store) RecordRun(ctx context.Context, run core.ImportRun) error {
	_, err := s.db.Collection(store.RunsCollection).InsertOne(ctx, runDoc(run))
	return err
}

// ListRuns returns the newest runs for endpoint first.
func (s *Store) ListRuns(ctx context.Context, endpoint string, limit int) ([]core.ImportRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.db.Collection(store.RunsCollection).Find(ctx, bson.M{"endpoint": endpoint}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []runDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	runs := make([]core.ImportRun, len(docs))
	for i, d := range docs {
		runs[i] = core.ImportRun(d)
	}
	return runs, nil
}

var (
	_ core.Store       = (*Store)(nil)
	_ core.RunRecorder = (*Store)(nil)
)
