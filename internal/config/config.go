package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"vault_bot/internal/capture/policy"
)

// Config 应用程序配置
type Config struct {
	TempRoot        string        // 临时媒体文件根目录
	Accounts        []AccountConfig
	Retention       policy.Retention
	MaxTextEntries  int           // 每账号文本缓存容量
	CleanupInterval time.Duration // 清理调度间隔
	MaskIdentifiers bool          // 是否对发送者标识打码
	MongoURI        string        // 为空时关闭持久化转发索引
	MongoDBName     string
	SearchBaseURL   string // 为空时关闭检索应答
	SearchTimeout   time.Duration
	MetricsAddr     string // 为空时关闭 /metrics
}

// AccountConfig 单账号配置
type AccountConfig struct {
	AccountID      string
	VaultJID       string   // 归档目标，可为空
	ExcludedGroups []string // 排除的群组名模式
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		TempRoot:        envOrDefault("TEMP_ROOT", "./tmp-media"),
		MongoURI:        strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDBName:     envOrDefault("MONGO_DB_NAME", "vault_bot"),
		SearchBaseURL:   strings.TrimSpace(os.Getenv("SEARCH_API_BASE_URL")),
		MetricsAddr:     envOrDefault("METRICS_ADDR", ":9090"),
		MaskIdentifiers: true,
	}

	// 解析ACCOUNT_IDS（必填）
	accountIDs, err := parseAccountIDs(os.Getenv("ACCOUNT_IDS"))
	if err != nil {
		return nil, err
	}

	// 解析按账号的归档目标与排除群组
	vaults, err := parsePerAccount(os.Getenv("VAULT_DESTINATIONS"), "VAULT_DESTINATIONS")
	if err != nil {
		return nil, err
	}
	excluded, err := parsePerAccount(os.Getenv("EXCLUDED_GROUPS"), "EXCLUDED_GROUPS")
	if err != nil {
		return nil, err
	}

	for _, id := range accountIDs {
		account := AccountConfig{
			AccountID: id,
			VaultJID:  vaults[id],
		}
		if groups := excluded[id]; groups != "" {
			for _, g := range strings.Split(groups, "|") {
				if g = strings.TrimSpace(g); g != "" {
					account.ExcludedGroups = append(account.ExcludedGroups, g)
				}
			}
		}
		cfg.Accounts = append(cfg.Accounts, account)
	}

	if masked := strings.TrimSpace(os.Getenv("MASK_IDENTIFIERS")); masked != "" {
		value, err := strconv.ParseBool(masked)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MASK_IDENTIFIERS: %w", err)
		}
		cfg.MaskIdentifiers = value
	}

	// 解析MAX_TEXT_CACHE_ENTRIES（默认1000）
	cfg.MaxTextEntries, err = envInt("MAX_TEXT_CACHE_ENTRIES", 1000, 1)
	if err != nil {
		return nil, err
	}

	// 解析保留窗口（单位小时）
	cfg.Retention = policy.Default()
	if hours, err := envInt("STATUS_CACHE_HOURS", 0, 1); err != nil {
		return nil, err
	} else if hours > 0 {
		cfg.Retention.StatusMediaAge = time.Duration(hours) * time.Hour
	}
	if hours, err := envInt("MEDIA_CACHE_HOURS", 0, 1); err != nil {
		return nil, err
	} else if hours > 0 {
		cfg.Retention.MediaAge = time.Duration(hours) * time.Hour
	}
	if hours, err := envInt("TEXT_CACHE_HOURS", 0, 1); err != nil {
		return nil, err
	} else if hours > 0 {
		cfg.Retention.TextAge = time.Duration(hours) * time.Hour
	}

	minutes, err := envInt("CLEANUP_INTERVAL_MINUTES", 30, 1)
	if err != nil {
		return nil, err
	}
	cfg.CleanupInterval = time.Duration(minutes) * time.Minute

	seconds, err := envInt("SEARCH_TIMEOUT_SECONDS", 10, 1)
	if err != nil {
		return nil, err
	}
	cfg.SearchTimeout = time.Duration(seconds) * time.Second

	return cfg, nil
}

// parseAccountIDs 解析逗号分隔的账号ID列表
func parseAccountIDs(s string) ([]string, error) {
	var ids []string
	seen := make(map[string]struct{})

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			return nil, fmt.Errorf("duplicate account id in ACCOUNT_IDS: %s", part)
		}
		seen[part] = struct{}{}
		ids = append(ids, part)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("ACCOUNT_IDS must list at least one account")
	}
	return ids, nil
}

// parsePerAccount 解析格式为 "acct1:value1,acct2:value2" 的字符串
func parsePerAccount(input, name string) (map[string]string, error) {
	result := make(map[string]string)

	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid %s entry: %s", name, pair)
		}

		id := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if id == "" || value == "" {
			return nil, fmt.Errorf("invalid %s entry: %s", name, pair)
		}

		result[id] = value
	}

	return result, nil
}

func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback, min int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if value < min {
		return 0, fmt.Errorf("%s must be >= %d, got %d", name, min, value)
	}
	return value, nil
}
