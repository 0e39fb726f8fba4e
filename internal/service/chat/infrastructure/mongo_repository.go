// internal/service/chat/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/chat/domain"
)

// chatLogDocument 以消息的 uuid 作为 _id
type chatLogDocument struct {
	ID         string    `bson:"_id"`
	SenderID   string    `bson:"senderId"`
	SenderRole string    `bson:"senderRole"`
	ReceiverID string    `bson:"receiverId"`
	Content    string    `bson:"content"`
	CreatedAt  time.Time `bson:"createdAt"`
}

type MongoChatRepository struct {
	coll *mongo.Collection
}

var _ domain.MessageRepository = (*MongoChatRepository)(nil)

func NewMongoChatRepository(ctx context.Context, db *mongo.Database) (*MongoChatRepository, error) {
	coll := db.Collection("chat_logs")
	if err := mongodb.EnsureIndexes(ctx, coll,
		mongodb.Index("senderId", "createdAt"),
		mongodb.Index("receiverId", "createdAt"),
	); err != nil {
		return nil, err
	}
	return &MongoChatRepository{coll: coll}, nil
}

func (r *MongoChatRepository) Save(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, chatLogDocument{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderRole: m.SenderRole,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	})
	return mongodb.Translate(err, "chat message", m.ID)
}

// History 倒序取最近 limit 条再翻转为正序
func (r *MongoChatRepository) History(ctx context.Context, userID string, limit int) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{bson.M{"senderId": userID}, bson.M{"receiverId": userID}}}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, mongodb.Translate(err, "chat history", userID)
	}
	defer cur.Close(ctx)

	var docs []chatLogDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.Translate(err, "chat history", userID)
	}
	out := make([]*domain.Message, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = &domain.Message{
			ID:         d.ID,
			SenderID:   d.SenderID,
			SenderRole: d.SenderRole,
			ReceiverID: d.ReceiverID,
			Content:    d.Content,
			CreatedAt:  d.CreatedAt,
		}
	}
	return out, nil
}
