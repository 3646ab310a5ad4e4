package app

import (
	"context"
	"fmt"

	"vault_bot/internal/capture/cleaner"
	"vault_bot/internal/capture/models"
	"vault_bot/internal/capture/repository"
	"vault_bot/internal/config"
	"vault_bot/internal/logger"
	"vault_bot/internal/mongo"
	"vault_bot/internal/relay"
	"vault_bot/internal/session"
)

// App 应用服务容器
// 负责所有服务的生命周期（初始化、运行、关闭）
type App struct {
	cfg      *config.Config
	MongoDB  *mongo.Client // 可为 nil（未配置持久化索引）
	Relay    *relay.Manager
	Cleaner  *cleaner.Cleaner
	accounts map[string]*models.Account
}

// New 初始化应用及其所有服务
func New(cfg *config.Config) (*App, error) {
	app := &App{
		cfg:      cfg,
		accounts: make(map[string]*models.Account),
	}

	// MongoDB 可选：未配置 URI 时关闭转发索引
	var records repository.ForwardRecordRepository
	if cfg.MongoURI != "" {
		client, err := mongo.NewClient(mongo.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDBName,
		})
		if err != nil {
			return nil, fmt.Errorf("init MongoDB failed: %w", err)
		}
		app.MongoDB = client

		records = repository.NewMongoForwardRecordRepository(client.Database())
		if err := records.EnsureIndexes(context.Background()); err != nil {
			logger.L().Warnf("Failed to ensure forward record indexes: %v", err)
		}
		logger.L().Info("MongoDB initialized, forward index enabled")
	} else {
		logger.L().Info("MONGO_URI not set, forward index disabled")
	}

	app.Relay = relay.NewManager(relay.Config{
		TempRoot:      cfg.TempRoot,
		Retention:     cfg.Retention,
		SearchBaseURL: cfg.SearchBaseURL,
		SearchTimeout: cfg.SearchTimeout,
	}, records)

	for _, ac := range cfg.Accounts {
		app.accounts[ac.AccountID] = &models.Account{
			AccountID:          ac.AccountID,
			VaultJID:           ac.VaultJID,
			ExcludedGroupNames: ac.ExcludedGroups,
			MaskIdentifiers:    cfg.MaskIdentifiers,
			MaxTextEntries:     cfg.MaxTextEntries,
		}
	}

	return app, nil
}

// AttachSession 把传输层建好的会话挂到配置中的账号上
// 未在 ACCOUNT_IDS 里声明的账号一律拒绝。
func (a *App) AttachSession(accountID string, sess session.ChatSession) error {
	account, ok := a.accounts[accountID]
	if !ok {
		return fmt.Errorf("unknown account: %s", accountID)
	}
	return a.Relay.Attach(account, sess)
}

// StartCleaner 启动清理调度器
// 必须在所有账号 Attach 之后调用，才能覆盖全部管线。
func (a *App) StartCleaner() {
	a.Cleaner = cleaner.New(a.cfg.CleanupInterval, a.Relay.Pipelines(), logger.L().WithField("component", "cleaner"))
	a.Cleaner.Start()
}

// Close 优雅关闭所有服务
func (a *App) Close(ctx context.Context) error {
	if a.Cleaner != nil {
		a.Cleaner.Stop()
	}
	if a.Relay != nil {
		a.Relay.Shutdown()
	}
	if a.MongoDB != nil {
		if err := a.MongoDB.Close(ctx); err != nil {
			return fmt.Errorf("close MongoDB failed: %w", err)
		}
	}
	return nil
}
