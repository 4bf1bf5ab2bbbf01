package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHAT_ENDPOINT", "CHAT_ROOM_ID", "CHAT_USERNAME", "CHAT_HISTORY_LIMIT",
		"DB_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ChatEndpoint != DefaultChatEndpoint {
		t.Errorf("ChatEndpoint = %q", cfg.ChatEndpoint)
	}
	if cfg.ChatUsername != "anonymous" {
		t.Errorf("ChatUsername = %q, want anonymous", cfg.ChatUsername)
	}
	if cfg.ChatHistoryLimit != 100 {
		t.Errorf("ChatHistoryLimit = %d, want 100", cfg.ChatHistoryLimit)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DBDsn == "" {
		t.Error("DBDsn default missing")
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_ENDPOINT", "ws://localhost:9999/chat")
	t.Setenv("CHAT_ROOM_ID", "room-1")
	t.Setenv("CHAT_USERNAME", "mod")
	t.Setenv("CHAT_HISTORY_LIMIT", "250")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ChatEndpoint != "ws://localhost:9999/chat" || cfg.ChatRoomID != "room-1" || cfg.ChatUsername != "mod" {
		t.Errorf("chat config = %+v", cfg)
	}
	if cfg.ChatHistoryLimit != 250 {
		t.Errorf("ChatHistoryLimit = %d, want 250", cfg.ChatHistoryLimit)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 3 {
		t.Errorf("redis config = %+v", cfg)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_HISTORY_LIMIT", "0")
	if _, err := Load(); err == nil {
		t.Error("CHAT_HISTORY_LIMIT=0 accepted")
	}

	clearEnv(t)
	t.Setenv("CHAT_HISTORY_LIMIT", "lots")
	if _, err := Load(); err == nil {
		t.Error("non-numeric CHAT_HISTORY_LIMIT accepted")
	}

	clearEnv(t)
	t.Setenv("REDIS_DB", "-1")
	if _, err := Load(); err == nil {
		t.Error("negative REDIS_DB accepted")
	}
}

func TestValidateChatReady(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := cfg.ValidateChatReady(); err == nil {
		t.Error("ValidateChatReady passed without CHAT_ROOM_ID")
	}
	cfg.ChatRoomID = "room-1"
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("ValidateChatReady error with room set: %v", err)
	}
}
