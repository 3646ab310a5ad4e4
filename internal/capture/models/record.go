package models

import "time"

// 媒体类型常量
const (
	MediaKindImage    = "image"
	MediaKindVideo    = "video"
	MediaKindAudio    = "audio"
	MediaKindDocument = "document"
	MediaKindSticker  = "sticker"
)

// CachedTextRecord 文本消息缓存记录
// 收到非本账号发出的文本消息时创建，创建后不再修改。
// 销毁途径：容量淘汰、过期清理、或删除找回成功后消费删除。
type CachedTextRecord struct {
	MessageID        string // 协议消息 ID（唯一键）
	Text             string
	SenderName       string // 发送者显示名称
	SenderJID        string // 规范化联系人标识
	TimestampSeconds int64  // 协议层消息时间（秒）
	GroupName        string // 群组显示名，非群组消息为空
	IsStatus         bool   // 是否为状态类内容
	CachedAtMillis   int64  // 入缓存时间（毫秒）
}

// CachedAt 入缓存时间
func (r *CachedTextRecord) CachedAt() time.Time {
	return time.UnixMilli(r.CachedAtMillis)
}

// CachedMediaRecord 媒体消息缓存记录
// 媒体下载成功后创建。记录独占其引用的临时文件：
// 其他组件不得删除或改名该路径，文件随记录销毁一并删除。
type CachedMediaRecord struct {
	MessageID        string
	LocalFilePath    string
	MediaKind        string // image/video/audio/document/sticker
	MimeType         string
	SenderName       string
	SenderJID        string
	TimestampSeconds int64
	GroupName        string
	Caption          string
	IsStatus         bool
	SavedAtMillis    int64
}

// SavedAt 文件落盘时间
func (r *CachedMediaRecord) SavedAt() time.Time {
	return time.UnixMilli(r.SavedAtMillis)
}
