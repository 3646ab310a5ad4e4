package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCOUNT_IDS", "personal,work")
	t.Setenv("VAULT_DESTINATIONS", "")
	t.Setenv("EXCLUDED_GROUPS", "")
	t.Setenv("MASK_IDENTIFIERS", "")
	t.Setenv("MAX_TEXT_CACHE_ENTRIES", "")
	t.Setenv("STATUS_CACHE_HOURS", "")
	t.Setenv("MEDIA_CACHE_HOURS", "")
	t.Setenv("TEXT_CACHE_HOURS", "")
	t.Setenv("CLEANUP_INTERVAL_MINUTES", "")
	t.Setenv("SEARCH_TIMEOUT_SECONDS", "")
	t.Setenv("TEMP_ROOT", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("SEARCH_API_BASE_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(cfg.Accounts))
	}
	if cfg.MaxTextEntries != 1000 {
		t.Fatalf("default max text entries = %d, want 1000", cfg.MaxTextEntries)
	}
	if cfg.Retention.StatusMediaAge != 24*time.Hour {
		t.Fatalf("default status age = %v", cfg.Retention.StatusMediaAge)
	}
	if cfg.Retention.MediaAge != 68*time.Hour {
		t.Fatalf("default media age = %v", cfg.Retention.MediaAge)
	}
	if cfg.Retention.TextAge != 3*time.Hour {
		t.Fatalf("default text age = %v", cfg.Retention.TextAge)
	}
	if cfg.CleanupInterval != 30*time.Minute {
		t.Fatalf("default cleanup interval = %v", cfg.CleanupInterval)
	}
	if !cfg.MaskIdentifiers {
		t.Fatalf("masking must default to enabled")
	}
	if cfg.MongoURI != "" {
		t.Fatalf("mongo should be disabled by default")
	}
}

func TestLoadPerAccountLists(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("VAULT_DESTINATIONS", "personal:111@s.whatsapp.net, work:222@s.whatsapp.net")
	t.Setenv("EXCLUDED_GROUPS", "personal:Family|Close Friends,work:Announcements")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var personal, work AccountConfig
	for _, a := range cfg.Accounts {
		switch a.AccountID {
		case "personal":
			personal = a
		case "work":
			work = a
		}
	}

	if personal.VaultJID != "111@s.whatsapp.net" {
		t.Fatalf("personal vault = %q", personal.VaultJID)
	}
	if len(personal.ExcludedGroups) != 2 || personal.ExcludedGroups[1] != "Close Friends" {
		t.Fatalf("personal excluded groups = %v", personal.ExcludedGroups)
	}
	if len(work.ExcludedGroups) != 1 || work.ExcludedGroups[0] != "Announcements" {
		t.Fatalf("work excluded groups = %v", work.ExcludedGroups)
	}
}

func TestLoadRetentionOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STATUS_CACHE_HOURS", "12")
	t.Setenv("MEDIA_CACHE_HOURS", "48")
	t.Setenv("TEXT_CACHE_HOURS", "6")
	t.Setenv("MASK_IDENTIFIERS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Retention.StatusMediaAge != 12*time.Hour {
		t.Fatalf("status age = %v", cfg.Retention.StatusMediaAge)
	}
	if cfg.Retention.MediaAge != 48*time.Hour {
		t.Fatalf("media age = %v", cfg.Retention.MediaAge)
	}
	if cfg.Retention.TextAge != 6*time.Hour {
		t.Fatalf("text age = %v", cfg.Retention.TextAge)
	}
	if cfg.MaskIdentifiers {
		t.Fatalf("masking should be disabled")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no accounts", map[string]string{"ACCOUNT_IDS": " , "}},
		{"duplicate account", map[string]string{"ACCOUNT_IDS": "a,a"}},
		{"bad vault entry", map[string]string{"VAULT_DESTINATIONS": "missing-colon"}},
		{"bad excluded entry", map[string]string{"EXCLUDED_GROUPS": ":empty-id"}},
		{"bad retention", map[string]string{"MEDIA_CACHE_HOURS": "zero-ish"}},
		{"negative cap", map[string]string{"MAX_TEXT_CACHE_ENTRIES": "-1"}},
		{"bad mask flag", map[string]string{"MASK_IDENTIFIERS": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
