package repository

import (
	"context"

	"vault_bot/internal/capture/models"
)

// ForwardRecordRepository 归档转发记录数据访问接口
type ForwardRecordRepository interface {
	// RecordForward 写入一条转发记录（同键重复写入为幂等覆盖）
	RecordForward(ctx context.Context, record *models.ForwardRecord) error

	// ListByAccount 按账号列出转发记录，按时间倒序
	ListByAccount(ctx context.Context, accountID string, limit int64) ([]*models.ForwardRecord, error)

	// EnsureIndexes 确保索引存在
	EnsureIndexes(ctx context.Context) error
}
