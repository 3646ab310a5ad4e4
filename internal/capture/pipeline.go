package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vault_bot/internal/capture/cache"
	"vault_bot/internal/capture/extractor"
	"vault_bot/internal/capture/models"
	"vault_bot/internal/capture/policy"
	"vault_bot/internal/capture/repository"
	"vault_bot/internal/capture/vault"
	"vault_bot/internal/metrics"
	"vault_bot/internal/session"
)

const groupNameTTL = 10 * time.Minute

// Pipeline 单账号的隐匿捕获管线
// 消息事件：分类 → 缓存 →（view-once 时）立即归档转发；
// 删除通知：从缓存找回并归档转发。
// 各账号的管线、缓存、临时目录彼此独立。
type Pipeline struct {
	account    *models.Account
	sess       session.ChatSession
	forwarder  *vault.Forwarder
	records    repository.ForwardRecordRepository // 可为 nil（未配置持久化索引）
	textCache  *cache.Cache[*models.CachedTextRecord]
	mediaCache *cache.Cache[*models.CachedMediaRecord]
	groupNames *groupNameCache
	retention  policy.Retention
	tempDir    string
	log        *log.Entry
	nowFunc    func() time.Time
}

// NewPipeline 创建捕获管线并准备账号独立的临时目录
func NewPipeline(
	account *models.Account,
	sess session.ChatSession,
	forwarder *vault.Forwarder,
	records repository.ForwardRecordRepository,
	retention policy.Retention,
	tempRoot string,
	logEntry *log.Entry,
) (*Pipeline, error) {
	tempDir := filepath.Join(tempRoot, account.AccountID)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", tempDir, err)
	}

	return &Pipeline{
		account:   account,
		sess:      sess,
		forwarder: forwarder,
		records:   records,
		textCache: cache.New(account.MaxTextEntries, func(r *models.CachedTextRecord) time.Time {
			return r.CachedAt()
		}),
		mediaCache: cache.New(0, func(r *models.CachedMediaRecord) time.Time {
			return r.SavedAt()
		}),
		groupNames: newGroupNameCache(groupNameTTL),
		retention:  retention,
		tempDir:    tempDir,
		log:        logEntry,
		nowFunc:    time.Now,
	}, nil
}

// WithNowFunc 自定义时间函数（测试用）
func (p *Pipeline) WithNowFunc(now func() time.Time) *Pipeline {
	if now != nil {
		p.nowFunc = now
	}
	return p
}

// TempDir 本账号的临时文件目录
func (p *Pipeline) TempDir() string { return p.tempDir }

// HandleMessage 处理一条入站消息事件
// 所有失败都就地消化：单条消息的故障不影响后续事件。
func (p *Pipeline) HandleMessage(ctx context.Context, evt *session.MessageEvent) {
	if evt == nil || evt.Message == nil {
		return
	}
	if evt.Info.Key.FromMe {
		return
	}

	c := extractor.Classify(evt.Message)
	if c.Kind == extractor.KindNone {
		p.log.Debugf("Unclassifiable payload: message_id=%s", evt.Info.Key.ID)
		return
	}

	// 排除群组：命中即彻底跳过，不缓存也不落盘
	groupName, excluded := p.resolveGroup(ctx, &evt.Info)
	if excluded {
		metrics.ExcludedSkips.Inc()
		p.log.Debugf("Excluded group, skipping: message_id=%s, group=%s", evt.Info.Key.ID, groupName)
		return
	}

	switch c.Kind {
	case extractor.KindText:
		p.cacheText(evt, groupName, c.Text)
	case extractor.KindMedia, extractor.KindViewOnce:
		p.captureMedia(ctx, evt, groupName, &c)
	}
}

// cacheText 写入文本缓存
func (p *Pipeline) cacheText(evt *session.MessageEvent, groupName, text string) {
	rec := &models.CachedTextRecord{
		MessageID:        evt.Info.Key.ID,
		Text:             text,
		SenderName:       evt.Info.PushName,
		SenderJID:        evt.Info.Key.SenderJID,
		TimestampSeconds: evt.Info.Timestamp.Unix(),
		GroupName:        groupName,
		IsStatus:         evt.Info.IsStatus(),
		CachedAtMillis:   p.nowFunc().UnixMilli(),
	}

	if evicted, ok := p.textCache.Put(rec.MessageID, rec); ok {
		p.log.Debugf("Text cache full, evicted oldest: message_id=%s", evicted.MessageID)
	}
	metrics.TextsCached.Inc()
}

// captureMedia 下载媒体、落盘、入缓存；view-once 同步转发
func (p *Pipeline) captureMedia(ctx context.Context, evt *session.MessageEvent, groupName string, c *extractor.Classification) {
	id := evt.Info.Key.ID

	// 传输层可能重复投递同一条消息
	// view-once 必须恰好转发一次，见到已缓存的 key 直接跳过
	if _, ok := p.mediaCache.Get(id); ok {
		p.log.Debugf("Duplicate delivery, already cached: message_id=%s", id)
		return
	}

	if !extractor.Downloadable(c.Media) {
		// 密钥或定位字段被剥离的瞬态载荷很常见，不是 bug 信号
		p.log.Debugf("Media not downloadable: message_id=%s, kind=%s", id, c.Media.MediaKind)
		if c.Media.Caption != "" {
			p.cacheText(evt, groupName, c.Media.Caption)
		}
		return
	}

	data, err := p.sess.DownloadMedia(ctx, c.Media.Ref())
	if err != nil {
		p.log.Warnf("Media download failed: message_id=%s, err=%v", id, err)
		return
	}

	isStatus := evt.Info.IsStatus()
	path := p.tempFilePath(c.Kind == extractor.KindViewOnce, isStatus, c.Media)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.log.Errorf("Write media file failed: path=%s, err=%v", path, err)
		return
	}

	rec := &models.CachedMediaRecord{
		MessageID:        id,
		LocalFilePath:    path,
		MediaKind:        c.Media.MediaKind,
		MimeType:         c.Media.Mimetype,
		SenderName:       evt.Info.PushName,
		SenderJID:        evt.Info.Key.SenderJID,
		TimestampSeconds: evt.Info.Timestamp.Unix(),
		GroupName:        groupName,
		Caption:          c.Media.Caption,
		IsStatus:         isStatus,
		SavedAtMillis:    p.nowFunc().UnixMilli(),
	}
	p.mediaCache.Put(id, rec)
	metrics.MediaCached.Inc()
	p.log.Infof("Media cached: message_id=%s, kind=%s, view_once=%v, status=%v",
		id, rec.MediaKind, c.Kind == extractor.KindViewOnce, isStatus)

	// view-once 的全部意义就是要消失，捕获当下就同步归档一次
	if c.Kind == extractor.KindViewOnce {
		if err := p.forwarder.ForwardMedia(ctx, rec, false); err != nil {
			metrics.ForwardFailures.Inc()
			p.log.Warnf("View-once forward failed: message_id=%s, err=%v", id, err)
			return
		}
		metrics.ViewOnceForwards.Inc()
		p.recordForward(ctx, rec.MessageID, rec.MediaKind, rec.SenderJID, false)
	}
}

// HandleDelete 处理删除通知：从缓存找回并归档转发
// 先查媒体缓存再查文本缓存；两边都没有说明从未观测到，低噪声跳过。
// 转发失败时保留记录和文件，等待后续重试机会或过期清理。
func (p *Pipeline) HandleDelete(ctx context.Context, evt *session.DeleteEvent) {
	if evt == nil {
		return
	}
	id := evt.Key.ID

	if rec, ok := p.mediaCache.Get(id); ok {
		if err := p.forwarder.ForwardMedia(ctx, rec, true); err != nil {
			metrics.ForwardFailures.Inc()
			p.log.Warnf("Media recovery forward failed, retained: message_id=%s, err=%v", id, err)
			return
		}
		p.removeMediaFile(rec)
		p.mediaCache.Delete(id)
		p.textCache.Delete(id)
		metrics.Recoveries.Inc()
		p.recordForward(ctx, rec.MessageID, rec.MediaKind, rec.SenderJID, true)
		p.log.Infof("Recovered deleted media: message_id=%s, kind=%s", id, rec.MediaKind)
		return
	}

	if rec, ok := p.textCache.Get(id); ok {
		if err := p.forwarder.ForwardText(ctx, rec, true); err != nil {
			metrics.ForwardFailures.Inc()
			p.log.Warnf("Text recovery forward failed, retained: message_id=%s, err=%v", id, err)
			return
		}
		p.textCache.Delete(id)
		metrics.Recoveries.Inc()
		p.recordForward(ctx, rec.MessageID, "text", rec.SenderJID, true)
		p.log.Infof("Recovered deleted text: message_id=%s", id)
		return
	}

	p.log.Debugf("Delete for unobserved message: message_id=%s", id)
}

// SweepExpired 清理两个缓存中的超龄记录
// 媒体记录随手删除其独占的临时文件，文件缺失只记日志不失败。
// 返回 (媒体移除数, 文本移除数)。
func (p *Pipeline) SweepExpired(now time.Time) (int, int) {
	removedMedia := p.mediaCache.Sweep(now, func(r *models.CachedMediaRecord) time.Duration {
		return p.retention.MediaMaxAge(r.IsStatus)
	})
	for _, rec := range removedMedia {
		p.removeMediaFile(rec)
	}

	removedTexts := p.textCache.Sweep(now, func(*models.CachedTextRecord) time.Duration {
		return p.retention.TextMaxAge()
	})

	if n := len(removedMedia) + len(removedTexts); n > 0 {
		metrics.SweepRemoved.Add(float64(n))
		p.log.Infof("Sweep removed expired records: media=%d, texts=%d", len(removedMedia), len(removedTexts))
	}
	return len(removedMedia), len(removedTexts)
}

// ScanOrphans 扫描临时目录中不被任何存活记录引用的过龄文件
// 防御进程重启：内存缓存没了，文件还留在盘上。
// 用最长保留窗口做保守判断，绝不碰仍可能被引用的新文件。
func (p *Pipeline) ScanOrphans(now time.Time) int {
	referenced := make(map[string]struct{})
	p.mediaCache.Range(func(_ string, rec *models.CachedMediaRecord) {
		referenced[filepath.Clean(rec.LocalFilePath)] = struct{}{}
	})

	entries, err := os.ReadDir(p.tempDir)
	if err != nil {
		p.log.Warnf("Temp dir scan failed: dir=%s, err=%v", p.tempDir, err)
		return 0
	}

	maxAge := p.retention.LongestAge()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(p.tempDir, entry.Name())
		if _, ok := referenced[filepath.Clean(path)]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(path); err != nil {
			p.log.Warnf("Orphan file delete failed: path=%s, err=%v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.OrphansDeleted.Add(float64(removed))
		p.log.Infof("Orphan scan deleted %d files", removed)
	}
	return removed
}

// resolveGroup 解析群组显示名并判断是否命中排除列表
// 群组名查询失败不阻断处理，按未排除、无群组名继续。
func (p *Pipeline) resolveGroup(ctx context.Context, info *session.MessageInfo) (string, bool) {
	if !info.IsGroup {
		return "", false
	}

	name, ok := p.groupNames.Get(info.Key.ChatJID)
	if !ok {
		meta, err := p.sess.GetGroupInfo(ctx, info.Key.ChatJID)
		if err != nil {
			p.log.Debugf("Group info lookup failed: jid=%s, err=%v", info.Key.ChatJID, err)
			return "", false
		}
		name = meta.DisplayName
		p.groupNames.Set(info.Key.ChatJID, name)
	}

	return name, matchesExcluded(name, p.account.ExcludedGroupNames)
}

// matchesExcluded 群组名与排除模式的双向不区分大小写子串匹配
func matchesExcluded(groupName string, patterns []string) bool {
	if groupName == "" {
		return false
	}
	lower := strings.ToLower(groupName)
	for _, pattern := range patterns {
		pat := strings.ToLower(strings.TrimSpace(pattern))
		if pat == "" {
			continue
		}
		if strings.Contains(lower, pat) || strings.Contains(pat, lower) {
			return true
		}
	}
	return false
}

// tempFilePath 生成碰撞概率可忽略的临时文件路径
// 前缀标明类别（view-once/status/media），uuid 保证唯一。
func (p *Pipeline) tempFilePath(viewOnce, isStatus bool, media *extractor.Media) string {
	prefix := "media"
	switch {
	case viewOnce:
		prefix = "view-once"
	case isStatus:
		prefix = "status"
	}
	ext := extractor.Extension(media.MediaKind, media.Mimetype)
	return filepath.Join(p.tempDir, fmt.Sprintf("%s-%s.%s", prefix, uuid.New().String(), ext))
}

// removeMediaFile 删除记录独占的临时文件，文件已不存在时只记 debug
func (p *Pipeline) removeMediaFile(rec *models.CachedMediaRecord) {
	if rec.LocalFilePath == "" {
		return
	}
	if err := os.Remove(rec.LocalFilePath); err != nil {
		if os.IsNotExist(err) {
			p.log.Debugf("Media file already gone: path=%s", rec.LocalFilePath)
			return
		}
		p.log.Warnf("Media file delete failed: path=%s, err=%v", rec.LocalFilePath, err)
	}
}

// recordForward 写入可选的持久化转发索引，失败只记日志
func (p *Pipeline) recordForward(ctx context.Context, messageID, kind, senderJID string, recovered bool) {
	if p.records == nil {
		return
	}
	err := p.records.RecordForward(ctx, &models.ForwardRecord{
		AccountID: p.account.AccountID,
		MessageID: messageID,
		Kind:      kind,
		Recovered: recovered,
		VaultJID:  p.account.VaultJID,
		SenderJID: senderJID,
	})
	if err != nil {
		p.log.Warnf("Forward record write failed: message_id=%s, err=%v", messageID, err)
	}
}
