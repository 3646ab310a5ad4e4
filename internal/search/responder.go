package search

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"vault_bot/internal/session"
)

// 触发检索的命令前缀
const commandPrefix = "!search "

// 回复里最多列出的结果数
const maxResults = 5

// Responder 按需检索的应答器
// 识别 "!search <关键词>" 命令，调用检索 API 并把结果回复到原会话。
type Responder struct {
	client *Client
	sess   session.ChatSession
	log    *log.Entry
}

// NewResponder 创建检索应答器
func NewResponder(client *Client, sess session.ChatSession, logEntry *log.Entry) *Responder {
	return &Responder{
		client: client,
		sess:   sess,
		log:    logEntry,
	}
}

// Query 从消息载荷中取出检索关键词
// 不是检索命令时返回 ("", false)。
func Query(msg *session.Message) (string, bool) {
	if msg == nil {
		return "", false
	}

	text := msg.Conversation
	if text == "" && msg.ExtendedText != nil {
		text = msg.ExtendedText.Text
	}

	if !strings.HasPrefix(text, commandPrefix) {
		return "", false
	}

	query := strings.TrimSpace(strings.TrimPrefix(text, commandPrefix))
	return query, query != ""
}

// Respond 执行检索并回复结果
// 检索或发送失败只记日志，不影响事件循环。
func (r *Responder) Respond(ctx context.Context, chatJID, query string) {
	results, err := r.client.Search(ctx, query)
	if err != nil {
		r.log.Warnf("Search failed: query=%q, err=%v", query, err)
		r.reply(ctx, chatJID, "Search is unavailable right now, try again later.")
		return
	}

	r.reply(ctx, chatJID, formatResults(query, results))
}

func (r *Responder) reply(ctx context.Context, chatJID, text string) {
	err := r.sess.Send(ctx, chatJID, &session.OutgoingPayload{
		Kind: session.PayloadText,
		Text: text,
	})
	if err != nil {
		r.log.Warnf("Search reply failed: chat=%s, err=%v", chatJID, err)
	}
}

func formatResults(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results for %q.", query)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 Results for %q:\n", query))
	for i, res := range results {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, res.Title))
		if res.Year != "" {
			b.WriteString(fmt.Sprintf(" (%s)", res.Year))
		}
		if res.Extra != "" {
			b.WriteString(fmt.Sprintf(" - %s", res.Extra))
		}
		if res.Link != "" {
			b.WriteString(fmt.Sprintf("\n   %s", res.Link))
		}
	}
	return b.String()
}
