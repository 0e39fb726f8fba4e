// internal/service/notification/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/notification/domain"
)

type notificationDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	OrderID   string             `bson:"orderId,omitempty"`
	Title     string             `bson:"title"`
	Message   string             `bson:"message"`
	Type      string             `bson:"type"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	ReadAt    *time.Time         `bson:"readAt,omitempty"`
}

func (d *notificationDocument) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		OrderID:   d.OrderID,
		Title:     d.Title,
		Message:   d.Message,
		Type:      d.Type,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		ReadAt:    d.ReadAt,
	}
}

// MongoNotificationRepository 是 notifications 集合的仓储实现
type MongoNotificationRepository struct {
	coll *mongo.Collection
}

var _ domain.NotificationRepository = (*MongoNotificationRepository)(nil)

func NewMongoNotificationRepository(ctx context.Context, db *mongo.Database) (*MongoNotificationRepository, error) {
	coll := db.Collection("notifications")
	if err := mongodb.EnsureIndexes(ctx, coll, mongodb.Index("userId", "status"), mongodb.Index("userId", "createdAt")); err != nil {
		return nil, err
	}
	return &MongoNotificationRepository{coll: coll}, nil
}

func (r *MongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, notificationDocument{
		UserID:    n.UserID,
		OrderID:   n.OrderID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Status:    n.Status,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	})
	if err != nil {
		return mongodb.Translate(err, "notification", n.UserID)
	}
	n.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoNotificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	oid, err := mongodb.ObjectID(id, "notification")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	var doc notificationDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongodb.Translate(err, "notification", id)
	}
	return doc.toDomain(), nil
}

func (r *MongoNotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, mongodb.Translate(err, "notifications of user", userID)
	}
	defer cur.Close(ctx)

	var docs []notificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.Translate(err, "notifications of user", userID)
	}
	out := make([]*domain.Notification, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID, "status": domain.StatusUnread})
	if err != nil {
		return 0, mongodb.Translate(err, "notifications of user", userID)
	}
	return n, nil
}

func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (*domain.Notification, error) {
	oid, err := mongodb.ObjectID(id, "notification")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	// 只更新未读的，已读通知保留第一次的 readAt
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": domain.StatusUnread},
		bson.M{"$set": bson.M{"status": domain.StatusRead, "readAt": at}})
	if err != nil {
		return nil, mongodb.Translate(err, "notification", id)
	}
	return r.FindByID(ctx, id)
}

func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "status": domain.StatusUnread},
		bson.M{"$set": bson.M{"status": domain.StatusRead, "readAt": at}})
	if err != nil {
		return 0, mongodb.Translate(err, "notifications of user", userID)
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id, "notification")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mongodb.Translate(err, "notification", id)
	}
	if res.DeletedCount == 0 {
		return mongodb.Translate(mongo.ErrNoDocuments, "notification", id)
	}
	return nil
}

func (r *MongoNotificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, mongodb.Translate(err, "notifications of user", userID)
	}
	return res.DeletedCount, nil
}
