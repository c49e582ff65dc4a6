package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

type MongoLinkRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ Backend = (*MongoLinkRepository)(nil)

func NewMongoLinkRepository(client *mongo.Client, collection *mongo.Collection) *MongoLinkRepository {
	return &MongoLinkRepository{
		client:     client,
		collection: collection,
	}
}

func (r *MongoLinkRepository) Insert(ctx context.Context, link *model.Link) error {
	_, err := r.collection.InsertOne(ctx, link)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrCodeExists
	}
	if err != nil {
		return apperrors.NewStoreError("mongodb", "insert", err)
	}
	return nil
}

func (r *MongoLinkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("mongodb", "find", err)
	}
	return &link, nil
}

func (r *MongoLinkRepository) IncrementClicks(ctx context.Context, code string) (*model.Link, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var link model.Link
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"code": code},
		bson.M{"$inc": bson.M{"clicks": 1}},
		opts,
	).Decode(&link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("mongodb", "increment", err)
	}
	return &link, nil
}

func (r *MongoLinkRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, apperrors.NewStoreError("mongodb", "count", err)
	}
	return count, nil
}

func (r *MongoLinkRepository) InsertMany(ctx context.Context, links []*model.Link) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(links))
	for _, link := range links {
		docs = append(docs, link)
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(links), nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, apperrors.NewStoreError("mongodb", "insert", err)
	}

	for _, we := range bwe.WriteErrors {
		if !isDuplicateKeyCode(we.Code) {
			return 0, apperrors.NewStoreError("mongodb", "insert", err)
		}
	}

	return len(links) - len(bwe.WriteErrors), nil
}

func (r *MongoLinkRepository) Name() string { return "mongodb" }

func (r *MongoLinkRepository) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperrors.NewStoreError("mongodb", "ping", err)
	}
	return nil
}

func (r *MongoLinkRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func isDuplicateKeyCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}
