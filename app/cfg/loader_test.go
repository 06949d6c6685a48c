package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	// Test that version is at least "dev" or "unknown"
	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		DBPath:           "./test.db",
		ScrapersDir:      "./scrapers",
		Port:             "8080",
		APIAccessKey:     "test-key",
		TelegramBotToken: "bot-token",
		TelegramChatID:   "12345",
		UserAgent:        "Test Agent",
		Timezone:         "UTC",
		Debug:            true,
		Version:          "test-version",
	}

	// Test direct field access
	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.ScrapersDir != "./scrapers" {
		t.Errorf("Expected scrapers dir './scrapers', got '%s'", cfg.ScrapersDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.TelegramBotToken != "bot-token" {
		t.Errorf("Expected Telegram bot token 'bot-token', got '%s'", cfg.TelegramBotToken)
	}
	if cfg.TelegramChatID != "12345" {
		t.Errorf("Expected Telegram chat ID '12345', got '%s'", cfg.TelegramChatID)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}
