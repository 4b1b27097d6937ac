package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is loaded once at startup from CONFIG_PATH (default config.yaml)
// with per-field environment overrides. Missing or unreadable files fall
// back to defaults so the service comes up on a bare machine.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Dev  bool   `yaml:"dev"`
	} `yaml:"server"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
	Blob struct {
		Backend string `yaml:"backend"` // "local" or "s3"
		Path    string `yaml:"path"`
		S3      struct {
			Endpoint  string `yaml:"endpoint"`
			Region    string `yaml:"region"`
			Bucket    string `yaml:"bucket"`
			AccessKey string `yaml:"access_key"`
			SecretKey string `yaml:"secret_key"`
			PathStyle bool   `yaml:"path_style"`
		} `yaml:"s3"`
	} `yaml:"blob"`
	Upload struct {
		AllowedTypes  []string `yaml:"allowed_types"`
		MaxDiskWrites int64    `yaml:"max_disk_writes"`
		ChunkSize     int      `yaml:"chunk_size"`
	} `yaml:"upload"`
	Reaper struct {
		Enabled  bool   `yaml:"enabled"`
		Interval string `yaml:"interval"`
		MaxAge   string `yaml:"max_age"`
	} `yaml:"reaper"`
}

func Load() *Config {
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	config := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Printf("Failed to read config file, using defaults: %v", err)
	} else if err := yaml.Unmarshal(data, config); err != nil {
		log.Printf("Failed to parse config file, using defaults: %v", err)
		config = defaultConfig()
	}

	// Environment overrides for deployment without a config file.
	if port := os.Getenv("VIDSTORE_PORT"); port != "" {
		config.Server.Port = port
	}
	if path := os.Getenv("VIDSTORE_CATALOG"); path != "" {
		config.Catalog.Path = path
	}
	if path := os.Getenv("VIDSTORE_BLOBS"); path != "" {
		config.Blob.Path = path
	}

	return config
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.Port = "8080"
	config.Catalog.Path = "./catalog.db"
	config.Blob.Backend = "local"
	config.Blob.Path = "./blobs"
	config.Upload.AllowedTypes = []string{"video/mp4", "video/mpeg"}
	config.Upload.MaxDiskWrites = 16
	config.Upload.ChunkSize = 64 * 1024
	config.Reaper.Enabled = true
	config.Reaper.Interval = "1m"
	config.Reaper.MaxAge = "1h"
	return config
}

// ReaperInterval parses the reaper tick interval, falling back to a minute.
func (c *Config) ReaperInterval() time.Duration {
	return parseDuration(c.Reaper.Interval, time.Minute)
}

// ReaperMaxAge parses the placeholder age threshold, falling back to an hour.
func (c *Config) ReaperMaxAge() time.Duration {
	return parseDuration(c.Reaper.MaxAge, time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
