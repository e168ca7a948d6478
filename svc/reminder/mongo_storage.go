package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection reminders are stored in.
const DefaultCollection = "reminders"

// MongoStorage is a Repository backed by a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage stores reminders in db. An empty collection name selects DefaultCollection.
func NewMongoStorage(db *mongo.Database, collection string) *MongoStorage {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStorage{coll: db.Collection(collection)}
}

// EnsureIndexes creates the indexes FindDue, ListByUser and DeleteByGoal rely on.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "is_sent", Value: 1}, {Key: "remind_at", Value: 1}},
			Options: options.Index().SetName("due_lookup"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "remind_at", Value: 1}},
			Options: options.Index().SetName("user_reminders"),
		},
		{
			Keys:    bson.D{{Key: "goal_id", Value: 1}},
			Options: options.Index().SetName("goal_reminders").SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create reminder indexes: %w", err)
	}
	return nil
}

func (s *MongoStorage) Create(ctx context.Context, r Reminder) error {
	_, err := s.coll.InsertOne(ctx, r)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (s *MongoStorage) Get(ctx context.Context, id string) (Reminder, error) {
	var r Reminder
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Reminder{}, ErrNotFound
	}
	if err != nil {
		return Reminder{}, fmt.Errorf("find reminder: %w", err)
	}
	return r, nil
}

func (s *MongoStorage) Update(ctx context.Context, r Reminder) error {
	res, err := s.coll.ReplaceOne(ctx, bson.D{
		{Key: "_id", Value: r.ID},
		{Key: "is_sent", Value: false},
	}, r)
	if err != nil {
		return fmt.Errorf("replace reminder: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := s.Get(ctx, r.ID); err != nil {
		return err
	}
	return ErrConflict
}

func (s *MongoStorage) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStorage) DeleteByGoal(ctx context.Context, goalID string) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "goal_id", Value: goalID}})
	if err != nil {
		return 0, fmt.Errorf("delete goal reminders: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStorage) ListByUser(ctx context.Context, userID string) ([]Reminder, error) {
	return s.find(ctx, bson.D{{Key: "user_id", Value: userID}}, 0)
}

func (s *MongoStorage) FindDue(ctx context.Context, now time.Time, limit int) ([]Reminder, error) {
	return s.find(ctx, bson.D{
		{Key: "is_active", Value: true},
		{Key: "is_sent", Value: false},
		{Key: "remind_at", Value: bson.D{{Key: "$lte", Value: now}}},
	}, limit)
}

func (s *MongoStorage) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "is_sent", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "is_sent", Value: true},
			{Key: "sent_at", Value: at},
			{Key: "updated_at", Value: at},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStorage) find(ctx context.Context, filter bson.D, limit int) ([]Reminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "remind_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reminders: %w", err)
	}
	var out []Reminder
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reminders: %w", err)
	}
	return out, nil
}
