// Package transport 声明聊天协议传输驱动的接入点。
// 具体的会话库（连接、鉴权、加解密、事件回调）不随本仓库发布，
// 集成方实现 Driver 并在进程启动前 Register 注入。
package transport

import (
	"context"
	"errors"
	"sync"

	"vault_bot/internal/session"
)

// ErrNoDriver 没有注册任何传输驱动
var ErrNoDriver = errors.New("no transport driver registered")

// EventSink 驱动把入站事件投递到这里
// relay.Manager 实现本接口。
type EventSink interface {
	DispatchMessage(ctx context.Context, accountID string, evt *session.MessageEvent)
	DispatchDelete(ctx context.Context, accountID string, evt *session.DeleteEvent)
}

// Driver 传输驱动
// Connect 建立账号会话、开始向 sink 投递事件，并返回供核心调用的会话句柄。
type Driver interface {
	Connect(ctx context.Context, accountID string, sink EventSink) (session.ChatSession, error)
}

var (
	mu     sync.RWMutex
	driver Driver
)

// Register 注册传输驱动（重复注册以最后一次为准）
func Register(d Driver) {
	mu.Lock()
	driver = d
	mu.Unlock()
}

// Connect 用已注册的驱动建立账号会话
func Connect(ctx context.Context, accountID string, sink EventSink) (session.ChatSession, error) {
	mu.RLock()
	d := driver
	mu.RUnlock()

	if d == nil {
		return nil, ErrNoDriver
	}
	return d.Connect(ctx, accountID, sink)
}
