// internal/service/order/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/order/domain"
)

// MongoOrderRepository 是 OrderRepository 的 MongoDB 实现
type MongoOrderRepository struct {
	coll *mongo.Collection
}

var _ domain.OrderRepository = (*MongoOrderRepository)(nil)

// NewMongoOrderRepository orderNumber 上的唯一索引保证多实例下订单号不重复
func NewMongoOrderRepository(ctx context.Context, db *mongo.Database) (*MongoOrderRepository, error) {
	coll := db.Collection("orders")
	err := mongodb.EnsureIndexes(ctx, coll,
		mongodb.UniqueIndex("orderNumber"),
		mongodb.Index("userId", "createdAt"),
		mongodb.Index("orderStatus"),
	)
	if err != nil {
		return nil, err
	}
	return &MongoOrderRepository{coll: coll}, nil
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	doc := FromDomainOrder(o)
	doc.Version = 0
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return mongodb.Translate(err, "order", o.OrderNumber)
	}
	o.ID = res.InsertedID.(primitive.ObjectID).Hex()
	o.Version = 0
	return nil
}

func (r *MongoOrderRepository) findOne(ctx context.Context, filter bson.M, ref string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	var doc OrderDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mongodb.Translate(err, "order", ref)
	}
	return doc.ToDomainOrder(), nil
}

func (r *MongoOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"orderNumber": orderNumber}, orderNumber)
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := mongodb.ObjectID(id, "order")
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, id)
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, mongodb.Translate(err, "orders", "")
	}
	defer cur.Close(ctx)

	var docs []OrderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.Translate(err, "orders", "")
	}
	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ToDomainOrder())
	}
	return out, nil
}

func (r *MongoOrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *MongoOrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	filter := bson.M{}
	if f.OrderStatus != "" {
		filter["orderStatus"] = f.OrderStatus
	}
	return r.find(ctx, filter)
}

// Update 以 {_id, version} 为条件整体替换，匹配不到时区分 NotFound 与 Conflict
func (r *MongoOrderRepository) Update(ctx context.Context, o *domain.Order) error {
	oid, err := mongodb.ObjectID(o.ID, "order")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	doc := FromDomainOrder(o)
	doc.ID = oid
	doc.Version = o.Version + 1
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "version": o.Version}, doc)
	if err != nil {
		return mongodb.Translate(err, "order", o.OrderNumber)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return mongodb.Translate(err, "order", o.OrderNumber)
		}
		if n == 0 {
			return apperr.NotFound("order %s not found", o.OrderNumber)
		}
		return apperr.Conflict("order %s was modified concurrently", o.OrderNumber)
	}
	o.Version = doc.Version
	return nil
}

func (r *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id, "order")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mongodb.Translate(err, "order", id)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("order %s not found", id)
	}
	return nil
}
