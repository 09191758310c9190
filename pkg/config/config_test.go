package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigLoading(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
kafka:
  brokers:
    - localhost:9092
    - localhost:9093
  readyTimeout: 30s

server:
  port: 9001

history:
  size: 50

export:
  dir: /tmp/test/exports
  maxWindow: 5000
  idleTimeout: 2s
  retention: 24h
  s3:
    enabled: true
    bucket: test-bucket
    region: us-west-2
    endpoint: https://s3.us-west-2.amazonaws.com
    accessKey: test-key
    secretKey: test-secret
    prefix: exports/

emitter:
  interval: 5s
`

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg := Load(configPath)

	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("Expected 2 brokers, got %d", len(cfg.Kafka.Brokers))
	}
	if cfg.Kafka.ReadyTimeout != 30*time.Second {
		t.Errorf("Expected readyTimeout 30s, got %v", cfg.Kafka.ReadyTimeout)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Expected port 9001, got %d", cfg.Server.Port)
	}
	if cfg.History.Size != 50 {
		t.Errorf("Expected history size 50, got %d", cfg.History.Size)
	}
	if cfg.Export.MaxWindow != 5000 {
		t.Errorf("Expected maxWindow 5000, got %d", cfg.Export.MaxWindow)
	}
	if cfg.Export.Retention != 24*time.Hour {
		t.Errorf("Expected retention 24h, got %v", cfg.Export.Retention)
	}
	if !cfg.Export.S3.Enabled || cfg.Export.S3.Bucket != "test-bucket" {
		t.Errorf("S3 config not parsed: %+v", cfg.Export.S3)
	}
	if cfg.Emitter.Interval != 5*time.Second {
		t.Errorf("Expected emitter interval 5s, got %v", cfg.Emitter.Interval)
	}
}

func TestConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "minimal.yaml")

	minimal := `
kafka:
  brokers:
    - broker:9092
`
	if err := os.WriteFile(configPath, []byte(minimal), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg := Load(configPath)

	if cfg.Server.Port != 8001 {
		t.Errorf("Expected default port 8001, got %d", cfg.Server.Port)
	}
	if cfg.History.Size != 100 {
		t.Errorf("Expected default history size 100, got %d", cfg.History.Size)
	}
	if cfg.Export.Dir != "data" {
		t.Errorf("Expected default export dir 'data', got %s", cfg.Export.Dir)
	}
	if cfg.Export.MaxWindow != 100_000 {
		t.Errorf("Expected default maxWindow 100000, got %d", cfg.Export.MaxWindow)
	}
	if cfg.Export.IdleTimeout != 1*time.Second {
		t.Errorf("Expected default idleTimeout 1s, got %v", cfg.Export.IdleTimeout)
	}
	if cfg.Export.Retention != 0 {
		t.Errorf("Expected retention disabled by default, got %v", cfg.Export.Retention)
	}
	if cfg.Kafka.ReadyTimeout != 60*time.Second {
		t.Errorf("Expected default readyTimeout 60s, got %v", cfg.Kafka.ReadyTimeout)
	}
}
