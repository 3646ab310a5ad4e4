package session

import "time"

// StatusBroadcastJID 状态（story/广播）会话的固定 JID
const StatusBroadcastJID = "status@broadcast"

// MessageKey 协议层分配的消息标识
type MessageKey struct {
	ID        string // 协议消息 ID（全局唯一）
	ChatJID   string // 所属会话 JID
	SenderJID string // 发送者 JID
	FromMe    bool   // 是否为本账号自己发出
}

// MessageInfo 消息元信息
type MessageInfo struct {
	Key       MessageKey
	PushName  string    // 发送者显示名称
	Timestamp time.Time // 协议层消息时间
	IsGroup   bool      // 是否来自群组会话
}

// IsStatus 是否为状态类内容（story/广播频道）
func (i *MessageInfo) IsStatus() bool {
	return i.Key.ChatJID == StatusBroadcastJID
}

// MessageEvent 传输层投递的消息事件
type MessageEvent struct {
	Info    MessageInfo
	Message *Message
}

// DeleteEvent 撤回/删除通知事件
// 只携带被删除消息的 key，内容需从缓存找回
type DeleteEvent struct {
	Key MessageKey
}

// Message 原始协议消息载荷（封闭和类型）
// 同一条消息只会设置其中一个分支；包裹类分支内部再嵌套一层 Message。
// 已知的 view-once 编码有三种结构不同的包裹变体，外加媒体对象上的
// 直接布尔标记（见各媒体类型的 ViewOnce 字段）。
type Message struct {
	Conversation string               // 纯文本
	ExtendedText *ExtendedTextMessage // 带格式/链接的文本

	Image    *ImageMessage
	Video    *VideoMessage
	Audio    *AudioMessage
	Document *DocumentMessage
	Sticker  *StickerMessage

	// 包裹变体
	ViewOnce            *WrappedMessage // view-once v1
	ViewOnceV2          *WrappedMessage // view-once v2
	ViewOnceV2Extension *WrappedMessage // view-once v2 扩展（音频等）
	Ephemeral           *WrappedMessage // 阅后即焚会话包裹
}

// ExtendedTextMessage 扩展文本载荷
type ExtendedTextMessage struct {
	Text string
}

// WrappedMessage 嵌套一层内部消息的包裹载荷
type WrappedMessage struct {
	Inner *Message
}

// ImageMessage 图片媒体对象
type ImageMessage struct {
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
	Caption       string
	ViewOnce      bool
}

// VideoMessage 视频媒体对象
type VideoMessage struct {
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
	Caption       string
	ViewOnce      bool
}

// AudioMessage 音频媒体对象
type AudioMessage struct {
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
	ViewOnce      bool
}

// DocumentMessage 文档媒体对象
type DocumentMessage struct {
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
	FileName      string
	Caption       string
}

// StickerMessage 贴纸媒体对象
type StickerMessage struct {
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
}
