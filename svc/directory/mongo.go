package directory

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Mongo reads users and goals from their MongoDB collections.
type Mongo struct {
	users *mongo.Collection
	goals *mongo.Collection
}

// Option configures Mongo.
type Option func(*mongoOptions)

type mongoOptions struct {
	users string
	goals string
}

// WithCollections overrides the default "users" and "goals" collection names.
func WithCollections(users, goals string) Option {
	return func(o *mongoOptions) {
		if users != "" {
			o.users = users
		}
		if goals != "" {
			o.goals = goals
		}
	}
}

func NewMongo(db *mongo.Database, opts ...Option) *Mongo {
	o := mongoOptions{users: "users", goals: "goals"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Mongo{
		users: db.Collection(o.users),
		goals: db.Collection(o.goals),
	}
}

func (m *Mongo) FindByID(ctx context.Context, userID string) (User, error) {
	var u User
	err := m.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user %s: %w", userID, err)
	}
	return u, nil
}

// FindOwnedGoal returns the goal only when it belongs to userID.
func (m *Mongo) FindOwnedGoal(ctx context.Context, goalID, userID string) (Goal, error) {
	var g Goal
	err := m.goals.FindOne(ctx, bson.D{
		{Key: "_id", Value: goalID},
		{Key: "user_id", Value: userID},
	}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return Goal{}, fmt.Errorf("find goal %s: %w", goalID, err)
	}
	return g, nil
}
