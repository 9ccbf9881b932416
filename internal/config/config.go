package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service. Values are read by Viper
// from a config file or environment variables (SERVER_ADDRESS, DATABASE_URI,
// CACHE_REDIS_ADDR, ...).
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	S3         S3Config         `mapstructure:"s3"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// CacheConfig selects the coherence-layer backend. With RedisAddr empty the
// service runs an in-process cache.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines verification of the tokens the external auth layer
// issues; this service never mints tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// AssignmentConfig controls the expiry sweep. SweepInterval 0 (the default)
// disables it: expired ACTIVE assignments then persist until explicitly
// completed or cancelled.
type AssignmentConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to env vars, e.g. cache.redis_addr -> CACHE_REDIS_ADDR
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.mode", "development")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "workout_service")
	viper.SetDefault("cache.ttl", "5m")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("assignment.sweep_interval", "0")

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No config file is fine; env vars and defaults carry the load.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
