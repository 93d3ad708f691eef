package store

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/stores/mon"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps records in a MongoDB collection.
type MongoStore struct {
	conn *mon.Model
}

func NewMongoStore(url, db, collection string) (*MongoStore, error) {
	conn, err := mon.NewModel(url, db, collection)
	if err != nil {
		return nil, err
	}
	return &MongoStore{conn: conn}, nil
}

func (m *MongoStore) Save(ctx context.Context, rec Record) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	_, err := m.conn.InsertOne(ctx, rec)
	return err
}

func (m *MongoStore) FindByGame(ctx context.Context, gameID string) (Record, error) {
	var rec Record
	err := m.conn.FindOne(ctx, &rec, bson.M{"gameId": gameID})
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, mon.ErrNotFound):
		return Record{}, ErrNotFound
	default:
		return Record{}, err
	}
}

// Recent returns up to limit records, most recently finished first.
func (m *MongoStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	var recs []Record
	if err := m.conn.Find(ctx, &recs, bson.M{}, opts); err != nil {
		return nil, err
	}
	return recs, nil
}
