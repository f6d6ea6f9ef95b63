package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
)

// Collection names.
const (
	UsersCollection    = "users"
	RequestsCollection = "donor"
	BlogsCollection    = "blog"
	FundsCollection    = "fund"
)

// Gateway owns the document store client. It is created once at startup and
// closed on shutdown.
type Gateway struct {
	client  *mongo.Client
	db      *mongo.Database
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Connect dials the store and verifies it with a ping.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Gateway, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return NewGateway(client, database, logger), nil
}

func NewGateway(client *mongo.Client, database string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client:  client,
		db:      client.Database(database),
		breaker: config.NewCircuitBreaker(config.BreakerMongo, logger, isExpectedStoreError),
		tracer:  otel.Tracer("github.com/AchilleasB/blood-quest/donation-service/repository"),
		logger:  logger,
	}
}

func (g *Gateway) Collection(name string) *Collection {
	return &Collection{g: g, coll: g.db.Collection(name), name: name}
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.client.Ping(ctx, nil)
}

func (g *Gateway) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// email index turns a concurrent duplicate registration into a key error.
func (g *Gateway) EnsureIndexes(ctx context.Context) error {
	_, err := g.db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = g.db.Collection(RequestsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requesterEmail", Value: 1}, {Key: "donationDate", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create donation request indexes: %w", err)
	}
	return nil
}

// Collection is the gateway contract over a single collection. Every call is
// traced and goes through the store circuit breaker.
type Collection struct {
	g    *Gateway
	coll *mongo.Collection
	name string
}

func (c *Collection) FindOne(ctx context.Context, filter any, out any) error {
	return c.run(ctx, "findOne", func(ctx context.Context) error {
		return c.coll.FindOne(ctx, filter).Decode(out)
	})
}

func (c *Collection) Find(ctx context.Context, filter any, out any, opts ...*options.FindOptions) error {
	return c.run(ctx, "find", func(ctx context.Context) error {
		cur, err := c.coll.Find(ctx, filter, opts...)
		if err != nil {
			return err
		}
		return cur.All(ctx, out)
	})
}

// InsertOne returns the hex form of the generated or supplied _id.
func (c *Collection) InsertOne(ctx context.Context, doc any) (string, error) {
	var id string
	err := c.run(ctx, "insertOne", func(ctx context.Context) error {
		res, err := c.coll.InsertOne(ctx, doc)
		if err != nil {
			return err
		}
		switch v := res.InsertedID.(type) {
		case primitive.ObjectID:
			id = v.Hex()
		case string:
			id = v
		default:
			id = fmt.Sprint(v)
		}
		return nil
	})
	return id, err
}

// UpdateOne returns the number of matched documents. With upsert a missing
// document is created and reported as matched.
func (c *Collection) UpdateOne(ctx context.Context, filter, update any, upsert bool) (int64, error) {
	var matched int64
	err := c.run(ctx, "updateOne", func(ctx context.Context) error {
		res, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
		if err != nil {
			return err
		}
		matched = res.MatchedCount + res.UpsertedCount
		return nil
	})
	return matched, err
}

func (c *Collection) DeleteOne(ctx context.Context, filter any) (int64, error) {
	var deleted int64
	err := c.run(ctx, "deleteOne", func(ctx context.Context) error {
		res, err := c.coll.DeleteOne(ctx, filter)
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	return deleted, err
}

func (c *Collection) CountDocuments(ctx context.Context, filter any) (int64, error) {
	var n int64
	err := c.run(ctx, "countDocuments", func(ctx context.Context) error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter)
		return err
	})
	return n, err
}

func (c *Collection) EstimatedCount(ctx context.Context) (int64, error) {
	var n int64
	err := c.run(ctx, "estimatedDocumentCount", func(ctx context.Context) error {
		var err error
		n, err = c.coll.EstimatedDocumentCount(ctx)
		return err
	})
	return n, err
}

func (c *Collection) Aggregate(ctx context.Context, pipeline any, out any) error {
	return c.run(ctx, "aggregate", func(ctx context.Context) error {
		cur, err := c.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		return cur.All(ctx, out)
	})
}

func (c *Collection) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := c.g.tracer.Start(ctx, "mongo."+op, trace.WithAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.collection", c.name),
		attribute.String("db.operation", op),
	))
	defer span.End()

	_, err := c.g.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil && !isExpectedStoreError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		c.g.logger.ErrorContext(ctx, "document store operation failed",
			"collection", c.name,
			"op", op,
			"error", err,
		)
	}
	return mapStoreError(err)
}

// isExpectedStoreError reports errors that describe the data rather than the
// store's health; they must not trip the breaker.
func isExpectedStoreError(err error) bool {
	return err == nil || errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err)
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domain.ErrAlreadyExists
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.Upstream("document store unavailable", err)
	default:
		return domain.Upstream("document store failure", err)
	}
}

// objectID parses a resource id from a path. A malformed id can never match
// a document, so it is reported as invalid input before the store is called.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.Validation("invalid id " + id)
	}
	return oid, nil
}

func byID(oid primitive.ObjectID) bson.M {
	return bson.M{"_id": oid}
}
