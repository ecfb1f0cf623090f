package helloworld

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

// CollectionName is the MongoDB collection holding HelloWorld records.
const CollectionName = "helloWorldRecords"

// FindOptions pages and orders storage queries. Nil fields mean no limit and no skip; an
// empty SortOrder means newest first.
type FindOptions struct {
	Limit     *int
	Skip      *int
	SortOrder types.SortOrder
}

// Storage defines the interface for HelloWorld record storage operations
type Storage interface {
	// EnsureIndexes ensures the necessary indexes are created for the collections
	EnsureIndexes(ctx context.Context) error

	// StoreRecord stores the record for an admitted HelloWorld output
	StoreRecord(ctx context.Context, outpoint *transaction.Outpoint, message string) error

	// DeleteRecord deletes the record for a spent or evicted output
	DeleteRecord(ctx context.Context, outpoint *transaction.Outpoint) error

	// FindByMessage returns outputs whose message contains message, ignoring case
	FindByMessage(ctx context.Context, message string, opts FindOptions) ([]*transaction.Outpoint, error)

	// FindAll returns all outputs tracked by the overlay
	FindAll(ctx context.Context, opts FindOptions) ([]*transaction.Outpoint, error)
}

// MongoStorage implements Storage on a MongoDB collection.
type MongoStorage struct {
	records *mongo.Collection
	now     func() time.Time
}

// Compile-time verification that MongoStorage implements Storage
var _ Storage = (*MongoStorage)(nil)

// NewMongoStorage creates a MongoStorage using the helloWorldRecords collection of db.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		records: db.Collection(CollectionName),
		now:     time.Now,
	}
}

// EnsureIndexes creates a unique outpoint index, a message index and a createdAt index.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "outpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "message", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	if _, err := s.records.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes for HelloWorld records: %w", err)
	}
	return nil
}

// StoreRecord stores a new HelloWorld record stamped with the current time.
func (s *MongoStorage) StoreRecord(ctx context.Context, outpoint *transaction.Outpoint, message string) error {
	record := types.NewHelloWorldRecord(outpoint, message, s.now())

	if _, err := s.records.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to store HelloWorld record: %w", err)
	}
	return nil
}

// DeleteRecord deletes the record for outpoint. Deleting an unknown outpoint is not an error.
func (s *MongoStorage) DeleteRecord(ctx context.Context, outpoint *transaction.Outpoint) error {
	filter := bson.M{
		"outpoint": outpoint.String(),
	}

	if _, err := s.records.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete HelloWorld record: %w", err)
	}
	return nil
}

// FindByMessage returns outputs whose message contains message as a literal substring,
// ignoring case.
func (s *MongoStorage) FindByMessage(ctx context.Context, message string, opts FindOptions) ([]*transaction.Outpoint, error) {
	return s.find(ctx, messageFilter(message), opts)
}

// FindAll returns every tracked output.
func (s *MongoStorage) FindAll(ctx context.Context, opts FindOptions) ([]*transaction.Outpoint, error) {
	return s.find(ctx, bson.M{}, opts)
}

func (s *MongoStorage) find(ctx context.Context, filter bson.M, opts FindOptions) ([]*transaction.Outpoint, error) {
	cursor, err := s.records.Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to find HelloWorld records: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	results := make([]*transaction.Outpoint, 0)
	for cursor.Next(ctx) {
		var record struct {
			Outpoint string `bson:"outpoint"`
		}
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode HelloWorld record: %w", err)
		}

		outpoint, err := transaction.OutpointFromString(record.Outpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored outpoint %q: %w", record.Outpoint, err)
		}
		results = append(results, outpoint)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while finding HelloWorld records: %w", err)
	}
	return results, nil
}

// messageFilter matches message as a case-insensitive literal substring.
func messageFilter(message string) bson.M {
	return bson.M{
		"message": primitive.Regex{Pattern: regexp.QuoteMeta(message), Options: "i"},
	}
}

// findOptions projects the outpoint and applies sorting and pagination.
func findOptions(opts FindOptions) *options.FindOptions {
	findOpts := options.Find().SetProjection(bson.M{
		"outpoint":  1,
		"createdAt": 1,
		"_id":       0,
	})

	sortOrder := -1
	if opts.SortOrder == types.SortOrderAsc {
		sortOrder = 1
	}
	findOpts.SetSort(bson.D{{Key: "createdAt", Value: sortOrder}})

	if opts.Skip != nil && *opts.Skip > 0 {
		findOpts.SetSkip(int64(*opts.Skip))
	}
	if opts.Limit != nil && *opts.Limit > 0 {
		findOpts.SetLimit(int64(*opts.Limit))
	}
	return findOpts
}
