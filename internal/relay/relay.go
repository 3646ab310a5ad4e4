package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vault_bot/internal/capture"
	"vault_bot/internal/capture/models"
	"vault_bot/internal/capture/policy"
	"vault_bot/internal/capture/repository"
	"vault_bot/internal/capture/vault"
	"vault_bot/internal/logger"
	"vault_bot/internal/search"
	"vault_bot/internal/session"
)

// Config 中继管理器配置
type Config struct {
	TempRoot      string
	Retention     policy.Retention
	SearchBaseURL string // 空表示关闭检索应答
	SearchTimeout time.Duration
	Workers       int
	QueueSize     int
}

// accountRuntime 单账号的运行时组件
type accountRuntime struct {
	account   *models.Account
	pipeline  *capture.Pipeline
	responder *search.Responder // 可为 nil
}

// Manager 多账号中继管理器
// 外部传输层通过 Attach 注册会话，之后把事件投递到对应账号；
// 每个事件经工作池分发：检索命令走应答器，其余进入捕获管线。
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	records  repository.ForwardRecordRepository // 可为 nil
	accounts map[string]*accountRuntime
	pool     *WorkerPool
}

// NewManager 创建中继管理器
func NewManager(cfg Config, records repository.ForwardRecordRepository) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Manager{
		cfg:      cfg,
		records:  records,
		accounts: make(map[string]*accountRuntime),
		pool:     NewWorkerPool(cfg.Workers, cfg.QueueSize),
	}
}

// Attach 为账号挂载已连接的会话并装配其管线
// 同一账号重复挂载会替换旧的运行时组件。
func (m *Manager) Attach(account *models.Account, sess session.ChatSession) error {
	if account == nil || account.AccountID == "" {
		return fmt.Errorf("account id cannot be empty")
	}
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}

	logEntry := logger.ForAccount(account.AccountID)
	forwarder := vault.NewForwarder(sess, account.VaultJID, account.MaskIdentifiers, logEntry)

	pipeline, err := capture.NewPipeline(
		account, sess, forwarder, m.records,
		m.cfg.Retention, m.cfg.TempRoot, logEntry,
	)
	if err != nil {
		return fmt.Errorf("build pipeline for %s: %w", account.AccountID, err)
	}

	rt := &accountRuntime{
		account:  account,
		pipeline: pipeline,
	}

	if m.cfg.SearchBaseURL != "" {
		client, err := search.NewClient(m.cfg.SearchBaseURL, m.cfg.SearchTimeout)
		if err != nil {
			return fmt.Errorf("build search client for %s: %w", account.AccountID, err)
		}
		rt.responder = search.NewResponder(client, sess, logEntry)
	}

	m.mu.Lock()
	m.accounts[account.AccountID] = rt
	m.mu.Unlock()

	logEntry.Infof("Account attached: vault=%q, excluded_groups=%d",
		account.VaultJID, len(account.ExcludedGroupNames))
	return nil
}

// Detach 卸载账号
func (m *Manager) Detach(accountID string) {
	m.mu.Lock()
	delete(m.accounts, accountID)
	m.mu.Unlock()
	logger.ForAccount(accountID).Info("Account detached")
}

// Pipelines 当前所有账号的捕获管线（清理调度器用）
func (m *Manager) Pipelines() []*capture.Pipeline {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pipelines := make([]*capture.Pipeline, 0, len(m.accounts))
	for _, rt := range m.accounts {
		pipelines = append(pipelines, rt.pipeline)
	}
	return pipelines
}

// DispatchMessage 投递一条消息事件
// 检索命令（来自本账号自己的消息）优先路由到应答器，其余进捕获管线。
func (m *Manager) DispatchMessage(ctx context.Context, accountID string, evt *session.MessageEvent) {
	rt := m.runtime(accountID)
	if rt == nil {
		logger.L().Debugf("Event for unattached account dropped: account=%s", accountID)
		return
	}

	if rt.responder != nil && evt != nil && evt.Info.Key.FromMe {
		if query, ok := search.Query(evt.Message); ok {
			chatJID := evt.Info.Key.ChatJID
			m.pool.Submit(EventTask{
				Ctx:       ctx,
				AccountID: accountID,
				Handler: func(ctx context.Context) {
					rt.responder.Respond(ctx, chatJID, query)
				},
			})
			return
		}
	}

	m.pool.Submit(EventTask{
		Ctx:       ctx,
		AccountID: accountID,
		Handler: func(ctx context.Context) {
			rt.pipeline.HandleMessage(ctx, evt)
		},
	})
}

// DispatchDelete 投递一条删除通知事件
func (m *Manager) DispatchDelete(ctx context.Context, accountID string, evt *session.DeleteEvent) {
	rt := m.runtime(accountID)
	if rt == nil {
		logger.L().Debugf("Delete for unattached account dropped: account=%s", accountID)
		return
	}

	m.pool.Submit(EventTask{
		Ctx:       ctx,
		AccountID: accountID,
		Handler: func(ctx context.Context) {
			rt.pipeline.HandleDelete(ctx, evt)
		},
	})
}

// Shutdown 关闭管理器：停止接收新事件并等在途任务跑完
func (m *Manager) Shutdown() {
	m.pool.Shutdown()
}

func (m *Manager) runtime(accountID string) *accountRuntime {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[accountID]
}
