package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Named types to allow reuse and clearer code
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ReadyTimeout time.Duration `yaml:"readyTimeout"`
}

type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
}

type ExportConfig struct {
	Dir         string        `yaml:"dir"`
	MaxWindow   int64         `yaml:"maxWindow"`
	IdleTimeout time.Duration `yaml:"idleTimeout"`
	Retention   time.Duration `yaml:"retention"` // 0 keeps artifacts forever

	S3 S3Config `yaml:"s3"`
}

type AppConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	History struct {
		Size int `yaml:"size"`
	} `yaml:"history"`

	Export ExportConfig `yaml:"export"`

	Emitter struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"emitter"`
}

// Load reads and parses a YAML config file into an AppConfig struct.
// It will terminate the program if the file is not found or invalid.
func Load(path string) AppConfig {
	cfg := defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Fatalf("Config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Error parsing config file: %v", err)
	}

	return cfg
}

func defaults() AppConfig {
	cfg := AppConfig{
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			ReadyTimeout: 60 * time.Second,
		},
		Export: ExportConfig{
			Dir:         "data",
			MaxWindow:   100_000,
			IdleTimeout: 1 * time.Second,
		},
	}
	cfg.Server.Port = 8001
	cfg.History.Size = 100
	cfg.Emitter.Interval = 1 * time.Second
	return cfg
}
