package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Mongo    MongoConfig    `json:"mongo"`
	Pinata   PinataConfig   `json:"pinata"`
	Storage  StorageConfig  `json:"storage"`
	Security SecurityConfig `json:"security"`
	Registry RegistryConfig `json:"registry"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
}

// MongoConfig represents document store configuration
type MongoConfig struct {
	URI      string        `json:"uri"`
	Database string        `json:"database"`
	Timeout  time.Duration `json:"timeout"`
}

// PinataConfig holds the pinning service credentials. Keys left empty or set
// to the .env.example placeholders put the pinning client in local mode.
type PinataConfig struct {
	APIKey     string `json:"api_key"`
	SecretKey  string `json:"secret_key"`
	APIURL     string `json:"api_url"`
	GatewayURL string `json:"gateway_url"`
}

// StorageConfig covers local uploads and the optional S3 photo archive.
type StorageConfig struct {
	UploadsDir   string `json:"uploads_dir"`
	SnapshotFile string `json:"snapshot_file"`
	S3Region     string `json:"s3_region"`
	S3Bucket     string `json:"s3_bucket"`
}

// SecurityConfig represents auth configuration
type SecurityConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// RegistryConfig controls snapshot publication.
type RegistryConfig struct {
	ResyncSchedule string        `json:"resync_schedule"`
	GatewayTimeout time.Duration `json:"gateway_timeout"`
	PollInterval   time.Duration `json:"poll_interval"`
}

// LoadConfig loads configuration from an optional JSON file and then applies
// environment variable overrides.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			Environment: "development",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "bluecarbon",
			Timeout:  10 * time.Second,
		},
		Pinata: PinataConfig{
			GatewayURL: "https://gateway.pinata.cloud/ipfs/",
		},
		Storage: StorageConfig{
			UploadsDir:   "uploads",
			SnapshotFile: "data/latest-snapshot.json",
		},
		Security: SecurityConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Registry: RegistryConfig{
			ResyncSchedule: "0 2 * * *",
			GatewayTimeout: 10 * time.Second,
			PollInterval:   30 * time.Second,
		},
	}

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Server.Environment = env
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if db := os.Getenv("MONGODB_DATABASE"); db != "" {
		config.Mongo.Database = db
	}
	if key := os.Getenv("PINATA_API_KEY"); key != "" {
		config.Pinata.APIKey = key
	}
	if secret := os.Getenv("PINATA_SECRET_KEY"); secret != "" {
		config.Pinata.SecretKey = secret
	}
	if gateway := os.Getenv("IPFS_GATEWAY"); gateway != "" {
		config.Pinata.GatewayURL = gateway
	}
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		config.Storage.UploadsDir = dir
	}
	if file := os.Getenv("SNAPSHOT_FILE"); file != "" {
		config.Storage.SnapshotFile = file
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Storage.S3Region = region
	}
	if bucket := os.Getenv("PHOTO_ARCHIVE_BUCKET"); bucket != "" {
		config.Storage.S3Bucket = bucket
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if schedule := os.Getenv("REGISTRY_RESYNC_SCHEDULE"); schedule != "" {
		config.Registry.ResyncSchedule = schedule
	}
	if interval := os.Getenv("REGISTRY_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Registry.PollInterval = d
		}
	}
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
