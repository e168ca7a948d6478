package transport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// InboxCollection is the subset of *mongo.Collection used by InboxSender.
type InboxCollection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// InboxItem is an in-app notification document.
type InboxItem struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Subject   string    `bson:"subject" json:"subject"`
	Body      string    `bson:"body" json:"body"`
	Tag       string    `bson:"tag,omitempty" json:"tag,omitempty"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// InboxSender stores notifications for the in-app inbox.
// The message recipient is the user id.
type InboxSender struct {
	coll InboxCollection
	now  func() time.Time
}

// NewInboxSender returns a sender writing into coll.
func NewInboxSender(coll InboxCollection) *InboxSender {
	return &InboxSender{coll: coll, now: time.Now}
}

func (s *InboxSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	item := InboxItem{
		ID:        uuid.NewString(),
		UserID:    msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Tag:       msg.Tag,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, item); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
