// internal/service/review/infrastructure/mongo_repository.go
package infrastructure

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nexusmall/internal/pkg/mongodb"
	"nexusmall/internal/service/review/domain"
)

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProductID string             `bson:"productId"`
	UserID    string             `bson:"userId"`
	UserName  string             `bson:"userName,omitempty"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	Images    []string           `bson:"images"`
	IsActive  bool               `bson:"isActive"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func fromDomain(r *domain.Review) reviewDocument {
	return reviewDocument{
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Images:    r.Images,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (d *reviewDocument) toDomain() *domain.Review {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Review{
		ID:        d.ID.Hex(),
		ProductID: d.ProductID,
		UserID:    d.UserID,
		UserName:  d.UserName,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Images:    images,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type MongoReviewRepository struct {
	coll *mongo.Collection
}

var _ domain.ReviewRepository = (*MongoReviewRepository)(nil)

func NewMongoReviewRepository(ctx context.Context, db *mongo.Database) (*MongoReviewRepository, error) {
	coll := db.Collection("reviews")
	if err := mongodb.EnsureIndexes(ctx, coll,
		mongodb.Index("productId", "isActive", "createdAt"),
		mongodb.Index("userId", "isActive"),
	); err != nil {
		return nil, err
	}
	return &MongoReviewRepository{coll: coll}, nil
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, fromDomain(review))
	if err != nil {
		return mongodb.Translate(err, "review", review.ProductID)
	}
	review.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (r *MongoReviewRepository) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	oid, err := mongodb.ObjectID(id, "review")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	var doc reviewDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongodb.Translate(err, "review", id)
	}
	return doc.toDomain(), nil
}

func (r *MongoReviewRepository) find(ctx context.Context, filter bson.M, ref string) ([]*domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	filter["isActive"] = true
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, mongodb.Translate(err, "reviews", ref)
	}
	defer cur.Close(ctx)

	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongodb.Translate(err, "reviews", ref)
	}
	out := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *MongoReviewRepository) ListByProduct(ctx context.Context, productID string) ([]*domain.Review, error) {
	return r.find(ctx, bson.M{"productId": productID}, productID)
}

func (r *MongoReviewRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	return r.find(ctx, bson.M{"userId": userID}, userID)
}

func (r *MongoReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	oid, err := mongodb.ObjectID(review.ID, "review")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "isActive": true}, bson.M{"$set": bson.M{
		"rating":    review.Rating,
		"comment":   review.Comment,
		"images":    review.Images,
		"updatedAt": review.UpdatedAt,
	}})
	if err != nil {
		return mongodb.Translate(err, "review", review.ID)
	}
	if res.MatchedCount == 0 {
		return mongodb.Translate(mongo.ErrNoDocuments, "review", review.ID)
	}
	return nil
}

func (r *MongoReviewRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	oid, err := mongodb.ObjectID(id, "review")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"isActive": false, "updatedAt": at}})
	if err != nil {
		return mongodb.Translate(err, "review", id)
	}
	if res.MatchedCount == 0 {
		return mongodb.Translate(mongo.ErrNoDocuments, "review", id)
	}
	return nil
}

// RatingCounts 在库内按 rating 分组计数
func (r *MongoReviewRepository) RatingCounts(ctx context.Context, productID string) (map[int]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongodb.OpTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID, "isActive": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$rating", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mongodb.Translate(err, "review summary", productID)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mongodb.Translate(err, "review summary", productID)
	}
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}
