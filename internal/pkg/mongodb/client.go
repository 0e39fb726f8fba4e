// internal/pkg/mongodb/client.go
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
)

// OpTimeout 是单次数据库操作的超时上限
const OpTimeout = 5 * time.Second

// Connect 连接 MongoDB 并 ping 一次
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "ping mongo")
	}
	logger.Ctx(ctx).Info().Str("database", database).Msg("✅ Connected to MongoDB")
	return client, client.Database(database), nil
}

// EnsureIndexes 创建索引，已存在的索引会被忽略
func EnsureIndexes(ctx context.Context, coll *mongo.Collection, models ...mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Wrapf(err, "create indexes on %s", coll.Name())
	}
	return nil
}

// UniqueIndex 构造单字段唯一索引
func UniqueIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

// Index 构造普通索引
func Index(fields ...string) mongo.IndexModel {
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return mongo.IndexModel{Keys: keys}
}

// ObjectID 解析十六进制 id，非法时返回 NotFound，调用方无需区分“格式错”和“查不到”
func ObjectID(hex, entity string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("%s %s not found", entity, hex)
	}
	return id, nil
}

// Translate 把驱动错误映射为统一的错误分类
func Translate(err error, entity, ref string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("%s %s not found", entity, ref)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict("%s %s already exists", entity, ref)
	default:
		return apperr.Internal(err, "mongo %s %s", entity, ref)
	}
}
