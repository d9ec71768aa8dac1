// Package mongostore implements the DocStore on MongoDB. Conditional writes map
// onto FindOneAndUpdate/UpdateOne with the precondition folded into the filter,
// which MongoDB applies atomically per document.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tansive/assetvault/internal/assetsrv/db"
	"github.com/tansive/assetvault/internal/assetsrv/db/dberror"
	"github.com/tansive/assetvault/internal/common/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionSequences = "sequences"

type Store struct {
	client    *mongo.Client
	database  *mongo.Database
	opTimeout time.Duration
}

var _ db.DocStore = (*Store)(nil)

type Options struct {
	URI              string
	Database         string
	OperationTimeout time.Duration
}

// Connect opens a client and verifies the connection with a ping.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongodb connection uri is empty")
	}
	clientOptions := options.Client().ApplyURI(opts.URI).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Ctx(ctx).Info().Str("database", opts.Database).Msg("connected to MongoDB")
	timeout := opts.OperationTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		client:    client,
		database:  client.Database(opts.Database),
		opTimeout: timeout,
	}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func convertError(ctx context.Context, op string, err error) apperrors.Error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dberror.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return dberror.ErrAlreadyExists
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		log.Ctx(ctx).Error().Err(err).Str("op", op).Msg("mongodb unavailable")
		return dberror.ErrUnavailable.Err(err)
	}
	log.Ctx(ctx).Error().Err(err).Str("op", op).Msg("mongodb operation failed")
	return dberror.ErrDatabase.Err(err)
}

func toBson(filter map[string]any) bson.M {
	m := bson.M{}
	for k, v := range filter {
		m[k] = v
	}
	return m
}

func (s *Store) InsertOne(ctx context.Context, collection, id string, doc any) apperrors.Error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}
	m["_id"] = id

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.database.Collection(collection).InsertOne(ctx, m); err != nil {
		return convertError(ctx, "insert", err)
	}
	return nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter db.Filter, out any) apperrors.Error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.database.Collection(collection).FindOne(ctx, toBson(filter)).Decode(out); err != nil {
		return convertError(ctx, "findOne", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, filter db.Filter, opts db.FindOptions, out any) apperrors.Error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	findOpts := options.Find()
	if opts.SortBy != "" {
		dir := 1
		if opts.Descending {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.SortBy, Value: dir}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	cursor, err := s.database.Collection(collection).Find(ctx, toBson(filter), findOpts)
	if err != nil {
		return convertError(ctx, "find", err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return convertError(ctx, "find", err)
	}
	return nil
}

func (s *Store) UpdateOne(ctx context.Context, collection string, filter db.Filter, patch db.Patch) (bool, apperrors.Error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.database.Collection(collection).UpdateOne(ctx, toBson(filter), bson.M{"$set": toBson(patch)})
	if err != nil {
		return false, convertError(ctx, "updateOne", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) FindOneAndUpdate(ctx context.Context, collection string, filter db.Filter, patch db.Patch, out any) apperrors.Error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.database.Collection(collection).FindOneAndUpdate(ctx, toBson(filter), bson.M{"$set": toBson(patch)}, opts)
	if err := res.Decode(out); err != nil {
		return convertError(ctx, "findOneAndUpdate", err)
	}
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, collection string, filter db.Filter) (bool, apperrors.Error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.database.Collection(collection).DeleteOne(ctx, toBson(filter))
	if err != nil {
		return false, convertError(ctx, "deleteOne", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) NextSequence(ctx context.Context, name string) (int64, apperrors.Error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var counter struct {
		Value int64 `bson:"value"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	res := s.database.Collection(collectionSequences).FindOneAndUpdate(ctx,
		bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": int64(1)}}, opts)
	if err := res.Decode(&counter); err != nil {
		return 0, convertError(ctx, "nextSequence", err)
	}
	return counter.Value, nil
}

func (s *Store) EnsureIndex(ctx context.Context, collection, field string) apperrors.Error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.database.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
	})
	if err != nil {
		return convertError(ctx, "createIndex", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect MongoDB client")
		return err
	}
	log.Ctx(ctx).Info().Msg("disconnected from MongoDB")
	return nil
}
