package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"vault_bot/internal/capture/models"
	"vault_bot/internal/session"
)

// 预期内的运行状态，调用方按普通失败处理，不视为异常
var (
	ErrNoVaultDestination = errors.New("vault destination not configured")
	ErrNotConnected       = errors.New("session not connected")
)

// Forwarder 归档转发器
// 构造归档消息（打码发送者、时间、群组上下文、说明文字）
// 并通过会话协作方发送到归档目标。
type Forwarder struct {
	sess     session.ChatSession
	vaultJID string
	mask     bool
	log      *log.Entry
	nowFunc  func() time.Time
}

// NewForwarder 创建归档转发器
func NewForwarder(sess session.ChatSession, vaultJID string, maskIdentifiers bool, logEntry *log.Entry) *Forwarder {
	return &Forwarder{
		sess:     sess,
		vaultJID: vaultJID,
		mask:     maskIdentifiers,
		log:      logEntry,
		nowFunc:  time.Now,
	}
}

// WithNowFunc 自定义时间函数（测试用）
func (f *Forwarder) WithNowFunc(now func() time.Time) *Forwarder {
	if now != nil {
		f.nowFunc = now
	}
	return f
}

// ForwardText 转发文本记录到归档目标
// 任何传输错误都以返回值报告，绝不 panic。
func (f *Forwarder) ForwardText(ctx context.Context, rec *models.CachedTextRecord, recovered bool) error {
	if err := f.precheck(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(f.header(rec.IsStatus, recovered, "message"))
	b.WriteString(fmt.Sprintf("From: %s (%s)\n", rec.SenderName, f.maskJID(rec.SenderJID)))
	b.WriteString(fmt.Sprintf("Time: %s\n", f.formatTime(rec.TimestampSeconds)))
	if rec.GroupName != "" {
		b.WriteString(fmt.Sprintf("Group: %s\n", rec.GroupName))
	}
	b.WriteString("\n")
	b.WriteString(rec.Text)

	err := f.sess.Send(ctx, f.vaultJID, &session.OutgoingPayload{
		Kind: session.PayloadText,
		Text: b.String(),
	})
	if err != nil {
		f.log.Warnf("Text forward failed: message_id=%s, err=%v", rec.MessageID, err)
		return fmt.Errorf("forward text: %w", err)
	}
	return nil
}

// ForwardMedia 转发媒体记录到归档目标
// 整体读入文件字节后按媒体类型选择发送方式。
// 贴纸无法原生携带说明文字，按图片加说明发送。
func (f *Forwarder) ForwardMedia(ctx context.Context, rec *models.CachedMediaRecord, recovered bool) error {
	if err := f.precheck(); err != nil {
		return err
	}
	if rec.LocalFilePath == "" {
		// 不变式被破坏：记录没有文件路径就到了转发器
		f.log.Errorf("Media record without file path: message_id=%s", rec.MessageID)
		return fmt.Errorf("media record %s has no file path", rec.MessageID)
	}

	data, err := os.ReadFile(rec.LocalFilePath)
	if err != nil {
		f.log.Warnf("Read media file failed: path=%s, err=%v", rec.LocalFilePath, err)
		return fmt.Errorf("read media file: %w", err)
	}

	var b strings.Builder
	b.WriteString(f.header(rec.IsStatus, recovered, rec.MediaKind))
	b.WriteString(fmt.Sprintf("From: %s (%s)\n", rec.SenderName, f.maskJID(rec.SenderJID)))
	b.WriteString(fmt.Sprintf("Time: %s", f.formatTime(rec.TimestampSeconds)))
	if rec.GroupName != "" {
		b.WriteString(fmt.Sprintf("\nGroup: %s", rec.GroupName))
	}
	if rec.Caption != "" {
		b.WriteString(fmt.Sprintf("\nCaption: %s", rec.Caption))
	}

	payload := &session.OutgoingPayload{
		Kind:     payloadKind(rec.MediaKind),
		Data:     data,
		Caption:  b.String(),
		MimeType: rec.MimeType,
	}

	if err := f.sess.Send(ctx, f.vaultJID, payload); err != nil {
		f.log.Warnf("Media forward failed: message_id=%s, kind=%s, err=%v", rec.MessageID, rec.MediaKind, err)
		return fmt.Errorf("forward media: %w", err)
	}
	return nil
}

// precheck 发送前的固定检查
// 未配置归档目标、会话掉线都属于预期状态，立即失败且不做任何 I/O。
func (f *Forwarder) precheck() error {
	if f.vaultJID == "" {
		return ErrNoVaultDestination
	}
	if !f.sess.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

func (f *Forwarder) header(isStatus, recovered bool, what string) string {
	source := "Captured"
	if recovered {
		source = "Recovered deleted"
	}
	kind := what
	if isStatus {
		kind = "status " + what
	}
	return fmt.Sprintf("🕵️ %s %s\n", source, kind)
}

func (f *Forwarder) formatTime(seconds int64) string {
	return time.Unix(seconds, 0).Local().Format("2006-01-02 15:04:05")
}

// maskJID 对电话号码形式的标识打码，只保留末 4 位数字
// 打码开关关闭时原样返回。
func (f *Forwarder) maskJID(jid string) string {
	if !f.mask {
		return jid
	}

	user := jid
	if idx := strings.Index(user, "@"); idx >= 0 {
		user = user[:idx]
	}

	digits := make([]rune, 0, len(user))
	for _, r := range user {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return "****" + string(digits)
	}
	return "****" + string(digits[len(digits)-4:])
}

func payloadKind(mediaKind string) session.PayloadKind {
	switch mediaKind {
	case models.MediaKindImage:
		return session.PayloadImage
	case models.MediaKindVideo:
		return session.PayloadVideo
	case models.MediaKindAudio:
		return session.PayloadAudio
	case models.MediaKindDocument:
		return session.PayloadDocument
	case models.MediaKindSticker:
		// 贴纸作为图片发送，说明文字得以保留
		return session.PayloadImage
	default:
		return session.PayloadDocument
	}
}
