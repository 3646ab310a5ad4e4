package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ForwardRecord 归档转发记录（可选的持久化索引）
// 进程重启后仍可审计哪些内容被转发过；不参与正确性判断。
type ForwardRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	AccountID string             `bson:"account_id"` // 来源账号
	MessageID string             `bson:"message_id"` // 协议消息 ID
	Kind      string             `bson:"kind"`       // text 或媒体类型
	Recovered bool               `bson:"recovered"`  // 是否为删除后找回
	VaultJID  string             `bson:"vault_jid"`  // 归档目标
	SenderJID string             `bson:"sender_jid"`
	CreatedAt time.Time          `bson:"created_at"` // 记录创建时间（TTL索引）
}
