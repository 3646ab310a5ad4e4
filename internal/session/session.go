package session

import "context"

// PayloadKind 外发载荷类型
type PayloadKind string

const (
	PayloadText     PayloadKind = "text"
	PayloadImage    PayloadKind = "image"
	PayloadVideo    PayloadKind = "video"
	PayloadAudio    PayloadKind = "audio"
	PayloadDocument PayloadKind = "document"
	PayloadSticker  PayloadKind = "sticker"
)

// OutgoingPayload 通过会话发送的载荷
type OutgoingPayload struct {
	Kind     PayloadKind
	Text     string // Kind == text 时使用
	Data     []byte // 媒体字节
	Caption  string
	MimeType string
	FileName string // 文档类可选
}

// GroupInfo 群组元信息
type GroupInfo struct {
	DisplayName string
}

// MediaRef 已通过可下载校验的媒体引用
type MediaRef struct {
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
}

// ChatSession 聊天协议会话协作方
// 连接、鉴权、事件分发由外部传输层负责，核心只消费本接口。
// 所有方法的超时由传输层自身契约约束，调用方只透传错误。
type ChatSession interface {
	// DownloadMedia 下载并解密媒体字节，失败返回错误（对调用方非致命）
	DownloadMedia(ctx context.Context, ref *MediaRef) ([]byte, error)

	// Send 向目标 JID 发送载荷
	Send(ctx context.Context, destinationJID string, payload *OutgoingPayload) error

	// GetGroupInfo 查询群组元信息
	GetGroupInfo(ctx context.Context, groupJID string) (*GroupInfo, error)

	// IsConnected 会话当前是否在线
	IsConnected() bool
}
