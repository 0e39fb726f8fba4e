// internal/service/cart/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/cart/domain"
)

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"userId"`
	Items     []domain.CartItem  `bson:"items"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// MongoCartRepository 把每个用户的购物车存成 cart_items 集合中的一个文档
type MongoCartRepository struct {
	coll *mongo.Collection
}

func NewMongoCartRepository(ctx context.Context, db *mongo.Database) (*MongoCartRepository, error) {
	coll := db.Collection("cart_items")
	if err := mongodb.EnsureIndexes(ctx, coll, mongodb.UniqueIndex("userId")); err != nil {
		return nil, err
	}
	return &MongoCartRepository{coll: coll}, nil
}

func (r *MongoCartRepository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	var doc cartDocument
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		return nil, mongodb.Translate(err, "cart of user", userID)
	}
	items := doc.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return &domain.Cart{
		ID:        doc.ID.Hex(),
		UserID:    doc.UserID,
		Items:     items,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (r *MongoCartRepository) Save(ctx context.Context, c *domain.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	doc := cartDocument{
		UserID:    c.UserID,
		Items:     c.Items,
		Version:   c.Version + 1,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if c.IsNew() {
		doc.Version = 0
		res, err := r.coll.InsertOne(ctx, doc)
		if err != nil {
			// 另一个请求先创建了购物车，交给调用方重试
			return mongodb.Translate(err, "cart of user", c.UserID)
		}
		c.ID = res.InsertedID.(primitive.ObjectID).Hex()
		c.Version = 0
		return nil
	}

	oid, err := mongodb.ObjectID(c.ID, "cart")
	if err != nil {
		return err
	}
	doc.ID = oid
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "version": c.Version}, doc)
	if err != nil {
		return mongodb.Translate(err, "cart of user", c.UserID)
	}
	if res.MatchedCount == 0 {
		return apperr.Conflict("cart of user %s was modified concurrently", c.UserID)
	}
	c.Version = doc.Version
	return nil
}
