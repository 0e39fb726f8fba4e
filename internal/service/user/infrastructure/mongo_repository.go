// internal/service/user/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/user/domain"
)

const collectionName = "users"

// MongoUserRepository 是 UserRepository 的 MongoDB 实现
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository 创建仓储并确保 userId 唯一索引存在
func NewMongoUserRepository(ctx context.Context, db *mongo.Database) (*MongoUserRepository, error) {
	coll := db.Collection(collectionName)
	if err := mongodb.EnsureIndexes(ctx, coll,
		mongodb.UniqueIndex("userId"),
		mongodb.Index("lastResetMonth"),
	); err != nil {
		return nil, err
	}
	return &MongoUserRepository{coll: coll}, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	doc := FromDomainUser(u)
	doc.Version = 0
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return mongodb.Translate(err, "user", u.UserID)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	u.Version = 0
	return nil
}

func (r *MongoUserRepository) FindByUserID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	var doc UserDocument
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		return nil, mongodb.Translate(err, "user", userID)
	}
	return ToDomainUser(&doc), nil
}

func (r *MongoUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoUserRepository) ListNeedingReset(ctx context.Context, month string) ([]*domain.User, error) {
	return r.find(ctx, bson.M{"lastResetMonth": bson.M{"$ne": month}})
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, mongodb.Translate(err, "users", "query")
	}
	var docs []UserDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mongodb.Translate(err, "users", "decode")
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, ToDomainUser(&docs[i]))
	}
	return out, nil
}

// Update 以 {userId, version} 为条件整体替换文档
func (r *MongoUserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	doc := FromDomainUser(u)
	doc.Version = u.Version + 1
	res, err := r.coll.ReplaceOne(ctx, bson.M{"userId": u.UserID, "version": u.Version}, doc)
	if err != nil {
		return mongodb.Translate(err, "user", u.UserID)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, u.UserID)
	}
	u.Version = doc.Version
	return nil
}

func (r *MongoUserRepository) missOrConflict(ctx context.Context, userID string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return mongodb.Translate(err, "user", userID)
	}
	if n == 0 {
		return apperr.NotFound("user %s not found", userID)
	}
	return apperr.Conflict("user %s was modified concurrently", userID)
}

func (r *MongoUserRepository) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return mongodb.Translate(err, "user", userID)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("user %s not found", userID)
	}
	return nil
}
