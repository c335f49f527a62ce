// Package mongo provides a MongoDB-backed delivery store.
//
// One document per (token, format). Redeem is a single conditional
// FindOneAndUpdate; a TTL index on purge_at lets the server drop tombstones
// even when no sweeper runs.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
)

// Defaults for Config.
const (
	DefaultDatabase   = "invitekit"
	DefaultCollection = "deliveries"
)

// Config holds connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store persists delivery entries in MongoDB.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ delivery.Store = (*Store)(nil)

type document struct {
	ID           string    `bson:"_id"`
	Token        string    `bson:"token"`
	Format       string    `bson:"format"`
	ContentType  string    `bson:"content_type"`
	Filename     string    `bson:"filename"`
	TemplateID   string    `bson:"template_id"`
	GenerationID string    `bson:"generation_id"`
	Data         []byte    `bson:"data,omitempty"`
	ExpiresAt    time.Time `bson:"expires_at"`
	PurgeAt      time.Time `bson:"purge_at"`
	Consumed     bool      `bson:"consumed"`
}

func (d document) artifact() delivery.Artifact {
	return delivery.Artifact{
		Format:       d.Format,
		ContentType:  d.ContentType,
		Filename:     d.Filename,
		TemplateID:   d.TemplateID,
		GenerationID: d.GenerationID,
		Data:         d.Data,
	}
}

func docID(token, format string) string { return token + "/" + format }

// NewStore connects to MongoDB and ensures indexes exist.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &Store{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{
			Keys:    bson.D{{Key: "purge_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Put(ctx context.Context, token string, entries []delivery.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"token": token}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check token: %w", err)
	}
	if n > 0 {
		return delivery.ErrDuplicate
	}

	docs := make([]any, len(entries))
	for i, e := range entries {
		docs[i] = document{
			ID:           docID(token, e.Format),
			Token:        token,
			Format:       e.Format,
			ContentType:  e.ContentType,
			Filename:     e.Filename,
			TemplateID:   e.TemplateID,
			GenerationID: e.GenerationID,
			Data:         e.Data,
			ExpiresAt:    e.ExpiresAt.UTC(),
			PurgeAt:      e.PurgeAt.UTC(),
		}
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return delivery.ErrDuplicate
		}
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *Store) Redeem(ctx context.Context, token, format string, now time.Time) (delivery.Artifact, error) {
	id := docID(token, format)
	filter := bson.M{
		"_id":        id,
		"consumed":   false,
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"consumed": true},
		"$unset": bson.M{"data": ""},
	}
	var doc document
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&doc)
	if err == nil {
		return doc.artifact(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return delivery.Artifact{}, fmt.Errorf("redeem: %w", err)
	}

	// The conditional update missed; find out why.
	err = s.coll.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"data": 0}),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return delivery.Artifact{}, delivery.ErrNotFound
	case err != nil:
		return delivery.Artifact{}, fmt.Errorf("redeem lookup: %w", err)
	case doc.Consumed:
		return delivery.Artifact{}, delivery.ErrConsumed
	}
	if _, err := s.coll.UpdateByID(ctx, id, bson.M{"$unset": bson.M{"data": ""}}); err != nil {
		return delivery.Artifact{}, fmt.Errorf("release expired: %w", err)
	}
	return delivery.Artifact{}, delivery.ErrExpired
}

func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	purged, err := s.coll.DeleteMany(ctx, bson.M{"purge_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}
	released, err := s.coll.UpdateMany(ctx,
		bson.M{"expires_at": bson.M{"$lte": now}, "data": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"data": ""}},
	)
	if err != nil {
		return int(purged.DeletedCount), fmt.Errorf("release: %w", err)
	}
	return int(purged.DeletedCount + released.ModifiedCount), nil
}
