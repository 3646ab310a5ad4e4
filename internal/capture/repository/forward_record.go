package repository

import (
	"context"
	"fmt"
	"time"

	"vault_bot/internal/capture/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoForwardRecordRepository 归档转发记录（MongoDB 实现）
type MongoForwardRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoForwardRecordRepository 创建转发记录 Repository
func NewMongoForwardRecordRepository(db *mongo.Database) ForwardRecordRepository {
	return &MongoForwardRecordRepository{
		collection: db.Collection("forward_records"),
	}
}

// RecordForward 写入转发记录
// 使用 Upsert 模式：同一账号对同一消息的同类转发只保留一条
func (r *MongoForwardRecordRepository) RecordForward(ctx context.Context, record *models.ForwardRecord) error {
	record.CreatedAt = time.Now()

	filter := bson.M{
		"account_id": record.AccountID,
		"message_id": record.MessageID,
		"recovered":  record.Recovered,
	}

	update := bson.M{
		"$set": bson.M{
			"kind":       record.Kind,
			"vault_jid":  record.VaultJID,
			"sender_jid": record.SenderJID,
		},
		"$setOnInsert": bson.M{
			"created_at": record.CreatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to record forward: %w", err)
	}

	return nil
}

// ListByAccount 按账号列出转发记录
func (r *MongoForwardRecordRepository) ListByAccount(ctx context.Context, accountID string, limit int64) ([]*models.ForwardRecord, error) {
	filter := bson.M{"account_id": accountID}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list forward records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.ForwardRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode forward records: %w", err)
	}

	return records, nil
}

// EnsureIndexes 确保索引存在
// created_at 上建 TTL 索引，90 天后自动清理
func (r *MongoForwardRecordRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "account_id", Value: 1},
				{Key: "message_id", Value: 1},
				{Key: "recovered", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 3600),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create forward record indexes: %w", err)
	}

	return nil
}
