// Package repository persists event snapshots and the live match directory
// in MongoDB.
//
// Snapshots are keyed by viewer token, one document per token, overwritten
// in place by each accepted event. Every write refreshes the document's
// expiration so tokens disappear a fixed interval after their viewer goes
// quiet; expiry itself is delegated to a TTL index.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/okian/castassist/internal/domain/model"
)

const (
	defaultDatabase          = "castassist"
	defaultEventsCollection  = "gsi-events"
	defaultMatchesCollection = "live-matches"
	defaultTTL               = time.Hour

	expireAtField = "expireAt"
)

// Store is a MongoDB-backed snapshot and directory store.
type Store struct {
	client   *mongo.Client
	database string
	events   string
	matches  string
	ttl      time.Duration
	now      func() time.Time
}

// New connects to MongoDB and verifies the connection before returning.
func New(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	s := &Store{
		database: defaultDatabase,
		events:   defaultEventsCollection,
		matches:  defaultMatchesCollection,
		ttl:      defaultTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	s.client = client

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

// Ping verifies the connection is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close releases the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ensureIndexes creates the TTL index that expires snapshots at their
// per-document expireAt time. ExpireAfterSeconds is zero so the document's
// own timestamp is the deadline; each accepted write pushes it forward.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.eventsCollection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: expireAtField, Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ttl index: %w", err)
	}
	return nil
}

// Event returns the stored snapshot for a token. A missing document is not
// an error; any other failure is surfaced so the caller can refuse to write.
func (s *Store) Event(ctx context.Context, token string) (model.Event, bool, error) {
	var doc eventDocument
	err := s.eventsCollection().FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Event{}, false, nil
	}
	if err != nil {
		return model.Event{}, false, fmt.Errorf("find snapshot %q: %w", token, err)
	}

	ev, err := toEvent(doc)
	if err != nil {
		return model.Event{}, false, fmt.Errorf("decode snapshot %q: %w", token, err)
	}
	return ev, true, nil
}

// SaveEvents merge-upserts one document per event, each with a fresh
// expiration of now + TTL. The bulk write is unordered; events in one call
// always belong to distinct tokens.
func (s *Store) SaveEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	expireAt := s.now().Add(s.ttl)
	models := make([]mongo.WriteModel, 0, len(events))
	for _, ev := range events {
		doc, err := toDocument(ev, expireAt)
		if err != nil {
			return fmt.Errorf("encode snapshot %q: %w", ev.Token, err)
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": doc.Token}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}

	_, err := s.eventsCollection().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert %d snapshots: %w", len(models), err)
	}
	return nil
}

// LiveMatches reads the directory singleton. An absent document means the
// poller has not published yet and reads as an empty directory.
func (s *Store) LiveMatches(ctx context.Context) (model.LiveMatches, error) {
	var doc liveMatchesDocument
	err := s.matchesCollection().FindOne(ctx, bson.M{"_id": model.LiveMatchesDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.LiveMatches{}, nil
	}
	if err != nil {
		return model.LiveMatches{}, fmt.Errorf("find live match directory: %w", err)
	}
	return model.LiveMatches{Matches: doc.Matches}, nil
}

// SaveLiveMatches overwrites the directory singleton wholesale.
func (s *Store) SaveLiveMatches(ctx context.Context, matches model.LiveMatches) error {
	doc := liveMatchesDocument{
		ID:        model.LiveMatchesDocID,
		Matches:   matches.Matches,
		UpdatedAt: s.now(),
	}

	_, err := s.matchesCollection().ReplaceOne(ctx,
		bson.M{"_id": model.LiveMatchesDocID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace live match directory: %w", err)
	}
	return nil
}

func (s *Store) eventsCollection() *mongo.Collection {
	return s.client.Database(s.database).Collection(s.events)
}

func (s *Store) matchesCollection() *mongo.Collection {
	return s.client.Database(s.database).Collection(s.matches)
}
