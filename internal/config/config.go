package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Chatbot ChatbotConfig `mapstructure:"chatbot"`
	Bundles BundleConfig  `mapstructure:"bundles"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LLMConfig struct {
	Classifier ProviderConfig `mapstructure:"classifier"`
}

type ProviderConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
}

type ChatbotConfig struct {
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	ResultLimit     int           `mapstructure:"result_limit"`
	CompareLimit    int           `mapstructure:"compare_limit"`
}

type BundleConfig struct {
	Discount float64       `mapstructure:"discount"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LoadConfig loads configuration from config.yaml and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("$HOME/.cartwise/")
	v.AddConfigPath("/etc/cartwise/")

	// Enable environment variable override with CARTWISE_ prefix
	v.SetEnvPrefix("CARTWISE")
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "cartwise")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("llm.classifier.provider", "mock")
	v.SetDefault("chatbot.classify_timeout", 5*time.Second)
	v.SetDefault("chatbot.result_limit", 6)
	v.SetDefault("chatbot.compare_limit", 4)
	v.SetDefault("bundles.discount", 0.1)
	v.SetDefault("bundles.cache_ttl", 30*time.Minute)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
