package helloworld

import (
	"context"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

func newMockMongo(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func recordsNamespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + CollectionName
}

func TestMongoStorageEnsureIndexes(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, NewMongoStorage(mt.DB).EnsureIndexes(context.Background()))
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 85, Name: "IndexOptionsConflict", Message: "index exists with different options",
		}))
		err := NewMongoStorage(mt.DB).EnsureIndexes(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create indexes")
	})
}

func TestMongoStorageStoreRecord(t *testing.T) {
	mt := newMockMongo(t)
	outpoint := testOutpoint(t, 0)

	mt.Run("success", func(mt *mtest.T) {
		storage := NewMongoStorage(mt.DB)
		storage.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, storage.StoreRecord(context.Background(), outpoint, "Hello, Blockchain!"))
	})

	mt.Run("duplicate outpoint", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))
		err := NewMongoStorage(mt.DB).StoreRecord(context.Background(), outpoint, "again")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store HelloWorld record")
	})
}

func TestMongoStorageDeleteRecord(t *testing.T) {
	mt := newMockMongo(t)
	outpoint := testOutpoint(t, 1)

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})
		require.NoError(t, NewMongoStorage(mt.DB).DeleteRecord(context.Background(), outpoint))
	})

	mt.Run("unknown outpoint", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})
		require.NoError(t, NewMongoStorage(mt.DB).DeleteRecord(context.Background(), outpoint))
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "boom",
		}))
		err := NewMongoStorage(mt.DB).DeleteRecord(context.Background(), outpoint)
		require.Error(t, err)
	})
}

func TestMongoStorageFind(t *testing.T) {
	mt := newMockMongo(t)
	first := testOutpoint(t, 0)
	second := testOutpoint(t, 3)

	mt.Run("find all decodes outpoints in cursor order", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, recordsNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "outpoint", Value: first.String()}},
			bson.D{{Key: "outpoint", Value: second.String()}},
		))

		outpoints, err := NewMongoStorage(mt.DB).FindAll(context.Background(), FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []*transaction.Outpoint{first, second}, outpoints)
	})

	mt.Run("find by message", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, recordsNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "outpoint", Value: second.String()}},
		))

		outpoints, err := NewMongoStorage(mt.DB).FindByMessage(context.Background(), "hello", FindOptions{Limit: intPtr(1)})
		require.NoError(t, err)
		assert.Equal(t, []*transaction.Outpoint{second}, outpoints)
	})

	mt.Run("no records", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, recordsNamespace(mt), mtest.FirstBatch))

		outpoints, err := NewMongoStorage(mt.DB).FindAll(context.Background(), FindOptions{})
		require.NoError(t, err)
		assert.NotNil(t, outpoints)
		assert.Empty(t, outpoints)
	})

	mt.Run("corrupt outpoint", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, recordsNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "outpoint", Value: "not-an-outpoint"}},
		))

		_, err := NewMongoStorage(mt.DB).FindAll(context.Background(), FindOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse stored outpoint")
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "boom",
		}))

		_, err := NewMongoStorage(mt.DB).FindByMessage(context.Background(), "x", FindOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find HelloWorld records")
	})
}

func TestMessageFilter(t *testing.T) {
	tests := []struct {
		message string
		pattern string
	}{
		{"hello", "hello"},
		{"Hello, Blockchain!", "Hello, Blockchain!"},
		{"a.b*c", `a\.b\*c`},
		{"(x)[y]", `\(x\)\[y\]`},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			filter := messageFilter(tt.message)
			assert.Equal(t, primitive.Regex{Pattern: tt.pattern, Options: "i"}, filter["message"])
		})
	}
}

func TestFindOptions(t *testing.T) {
	t.Run("defaults to newest first without paging", func(t *testing.T) {
		opts := findOptions(FindOptions{})
		assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
		assert.Nil(t, opts.Limit)
		assert.Nil(t, opts.Skip)
	})

	t.Run("ascending with paging", func(t *testing.T) {
		opts := findOptions(FindOptions{Limit: intPtr(10), Skip: intPtr(5), SortOrder: types.SortOrderAsc})
		assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, opts.Sort)
		require.NotNil(t, opts.Limit)
		require.NotNil(t, opts.Skip)
		assert.Equal(t, int64(10), *opts.Limit)
		assert.Equal(t, int64(5), *opts.Skip)
	})

	t.Run("zero paging values are ignored", func(t *testing.T) {
		opts := findOptions(FindOptions{Limit: intPtr(0), Skip: intPtr(0)})
		assert.Nil(t, opts.Limit)
		assert.Nil(t, opts.Skip)
	})
}
