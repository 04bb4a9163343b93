package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/notectl/internal/server"
)

// noted.toml key mapping to service runtime settings.
type fileConfig struct {
	Port            int    `toml:"port"`
	AdminListenAddr string `toml:"admin_listen_addr"`
	NoteTTLSeconds  int    `toml:"note_ttl_seconds"`
}

// noted loader for TOML config with default overlay.
func loadServiceConfig(path string) (server.Config, error) {
	cfg := server.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return server.Config{}, fmt.Errorf("load noted config: %w", err)
	}

	if meta.IsDefined("port") {
		if raw.Port <= 0 || raw.Port > 65535 {
			return server.Config{}, fmt.Errorf("load noted config: port out of range: %d", raw.Port)
		}
		cfg.ListenAddr = fmt.Sprintf(":%d", raw.Port)
	}
	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("note_ttl_seconds") {
		if raw.NoteTTLSeconds <= 0 {
			return server.Config{}, fmt.Errorf("load noted config: note_ttl_seconds must be positive")
		}
		cfg.NoteTTL = time.Duration(raw.NoteTTLSeconds) * time.Second
	}
	return cfg, nil
}
