// internal/service/product/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/product/domain"
)

type productDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	domain.Product `bson:",inline"`
}

func (d *productDocument) toDomain() *domain.Product {
	p := d.Product
	p.ID = d.ID.Hex()
	return &p
}

// MongoProductRepository 是 ProductRepository 的 MongoDB 实现
type MongoProductRepository struct {
	coll *mongo.Collection
}

func NewMongoProductRepository(ctx context.Context, db *mongo.Database) (*MongoProductRepository, error) {
	coll := db.Collection("products")
	if err := mongodb.EnsureIndexes(ctx, coll, mongodb.Index("category"), mongodb.Index("name")); err != nil {
		return nil, err
	}
	return &MongoProductRepository{coll: coll}, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, productDocument{Product: *p})
	if err != nil {
		return mongodb.Translate(err, "product", p.Name)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := mongodb.ObjectID(id, "product")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongodb.Translate(err, "product", id)
	}
	return doc.toDomain(), nil
}

func (r *MongoProductRepository) Find(ctx context.Context, f domain.Filter) ([]*domain.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Query != "" {
		filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, mongodb.Translate(err, "products", "count")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Size)).
		SetLimit(int64(f.Size))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, mongodb.Translate(err, "products", "query")
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, mongodb.Translate(err, "products", "decode")
	}
	out := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, p *domain.Product) error {
	oid, err := mongodb.ObjectID(p.ID, "product")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, productDocument{ID: oid, Product: *p})
	if err != nil {
		return mongodb.Translate(err, "product", p.ID)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("product %s not found", p.ID)
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id, "product")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mongodb.Translate(err, "product", id)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("product %s not found", id)
	}
	return nil
}
