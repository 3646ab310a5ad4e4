package extractor

import (
	"strings"

	"vault_bot/internal/capture/models"
	"vault_bot/internal/session"
)

// Kind 分类结果类别
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindMedia
	KindViewOnce
)

// Media 归一化后的媒体对象
// 各协议变体的媒体载荷统一抽取成这一种形状，下游不再区分来源结构。
type Media struct {
	MediaKind     string // models.MediaKind*
	URL           string
	DirectPath    string
	MediaKey      []byte
	FileEncSHA256 []byte
	Mimetype      string
	Caption       string
}

// Ref 转成会话层的下载引用
func (m *Media) Ref() *session.MediaRef {
	return &session.MediaRef{
		URL:           m.URL,
		DirectPath:    m.DirectPath,
		MediaKey:      m.MediaKey,
		FileEncSHA256: m.FileEncSHA256,
		Mimetype:      m.Mimetype,
	}
}

// Classification 单条消息的分类结果
type Classification struct {
	Kind          Kind
	Text          string // Kind == KindText 时的文本内容
	Media         *Media // KindMedia / KindViewOnce 时的媒体对象
	FromEphemeral bool   // 是否从阅后即焚包裹中解出
}

// 防止包裹损坏造成的无限递归
const maxUnwrapDepth = 4

// Classify 对原始协议消息做分类
// 优先级（先命中者生效）：
//  1. 阅后即焚包裹：解开一层后递归，结果打上 FromEphemeral 标记
//  2. view-once 包裹变体（v1/v2/v2ext）或媒体对象上的直接标记
//  3. 纯文本 / 扩展文本 / 仅有说明文字的媒体按文本处理不在此列
//  4. 五种媒体对象
//  5. 其余一律 KindNone
func Classify(msg *session.Message) Classification {
	return classify(msg, false, 0)
}

func classify(msg *session.Message, fromEphemeral bool, depth int) Classification {
	if msg == nil || depth > maxUnwrapDepth {
		return Classification{Kind: KindNone, FromEphemeral: fromEphemeral}
	}

	// 1. 阅后即焚包裹：解开后递归
	// 包裹内的 view-once 仍要按 view-once 捕获，不能降级为普通媒体
	if msg.Ephemeral != nil {
		return classify(msg.Ephemeral.Inner, true, depth+1)
	}

	// 2. view-once 包裹变体
	for _, wrapped := range []*session.WrappedMessage{msg.ViewOnce, msg.ViewOnceV2, msg.ViewOnceV2Extension} {
		if wrapped == nil || wrapped.Inner == nil {
			continue
		}
		if media := mediaOf(wrapped.Inner); media != nil {
			return Classification{Kind: KindViewOnce, Media: media, FromEphemeral: fromEphemeral}
		}
	}

	// 2b. 媒体对象自带的 view-once 布尔标记
	if media := mediaOf(msg); media != nil {
		if flaggedViewOnce(msg) {
			return Classification{Kind: KindViewOnce, Media: media, FromEphemeral: fromEphemeral}
		}
	}

	// 3. 文本
	if msg.Conversation != "" {
		return Classification{Kind: KindText, Text: msg.Conversation, FromEphemeral: fromEphemeral}
	}
	if msg.ExtendedText != nil && msg.ExtendedText.Text != "" {
		return Classification{Kind: KindText, Text: msg.ExtendedText.Text, FromEphemeral: fromEphemeral}
	}

	// 4. 普通媒体
	if media := mediaOf(msg); media != nil {
		return Classification{Kind: KindMedia, Media: media, FromEphemeral: fromEphemeral}
	}

	// 5. 未知载荷
	return Classification{Kind: KindNone, FromEphemeral: fromEphemeral}
}

// mediaOf 抽取五种已知媒体对象之一，没有则返回 nil
func mediaOf(msg *session.Message) *Media {
	switch {
	case msg.Image != nil:
		m := msg.Image
		return &Media{
			MediaKind:     models.MediaKindImage,
			URL:           m.URL,
			DirectPath:    m.DirectPath,
			MediaKey:      m.MediaKey,
			FileEncSHA256: m.FileEncSHA256,
			Mimetype:      m.Mimetype,
			Caption:       m.Caption,
		}
	case msg.Video != nil:
		m := msg.Video
		return &Media{
			MediaKind:     models.MediaKindVideo,
			URL:           m.URL,
			DirectPath:    m.DirectPath,
			MediaKey:      m.MediaKey,
			FileEncSHA256: m.FileEncSHA256,
			Mimetype:      m.Mimetype,
			Caption:       m.Caption,
		}
	case msg.Audio != nil:
		m := msg.Audio
		return &Media{
			MediaKind:     models.MediaKindAudio,
			URL:           m.URL,
			DirectPath:    m.DirectPath,
			MediaKey:      m.MediaKey,
			FileEncSHA256: m.FileEncSHA256,
			Mimetype:      m.Mimetype,
		}
	case msg.Document != nil:
		m := msg.Document
		return &Media{
			MediaKind:     models.MediaKindDocument,
			URL:           m.URL,
			DirectPath:    m.DirectPath,
			MediaKey:      m.MediaKey,
			FileEncSHA256: m.FileEncSHA256,
			Mimetype:      m.Mimetype,
			Caption:       m.Caption,
		}
	case msg.Sticker != nil:
		m := msg.Sticker
		return &Media{
			MediaKind:     models.MediaKindSticker,
			URL:           m.URL,
			DirectPath:    m.DirectPath,
			MediaKey:      m.MediaKey,
			FileEncSHA256: m.FileEncSHA256,
			Mimetype:      m.Mimetype,
		}
	}
	return nil
}

func flaggedViewOnce(msg *session.Message) bool {
	switch {
	case msg.Image != nil:
		return msg.Image.ViewOnce
	case msg.Video != nil:
		return msg.Video.ViewOnce
	case msg.Audio != nil:
		return msg.Audio.ViewOnce
	}
	return false
}

// Downloadable 媒体对象是否可以安全地交给下载调用
// 要求至少一个非空加密密钥字段（MediaKey 或 FileEncSHA256），
// 且至少一个去掉空白后非空的资源定位字段（URL 或 DirectPath）。
// 协议瞬态/畸形载荷常见密钥被剥离的情况，不满足即视为不可下载。
func Downloadable(media *Media) bool {
	if media == nil {
		return false
	}
	if len(media.MediaKey) == 0 && len(media.FileEncSHA256) == 0 {
		return false
	}
	if strings.TrimSpace(media.URL) == "" && strings.TrimSpace(media.DirectPath) == "" {
		return false
	}
	return true
}

// Extension 按媒体类型推断临时文件扩展名
func Extension(mediaKind, mimetype string) string {
	if idx := strings.Index(mimetype, "/"); idx >= 0 && idx+1 < len(mimetype) {
		sub := mimetype[idx+1:]
		if cut := strings.IndexAny(sub, ";+"); cut > 0 {
			sub = sub[:cut]
		}
		if sub != "" && sub != "octet-stream" {
			return sub
		}
	}

	switch mediaKind {
	case models.MediaKindImage:
		return "jpg"
	case models.MediaKindVideo:
		return "mp4"
	case models.MediaKindAudio:
		return "ogg"
	case models.MediaKindSticker:
		return "webp"
	default:
		return "bin"
	}
}
