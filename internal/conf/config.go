package conf

import (
	"fmt"

	"github.com/spf13/viper"

	"mediatrack/internal/ai"
	"mediatrack/internal/pkg/database"
	"mediatrack/internal/pkg/logger"
	"mediatrack/internal/pkg/redis"
	"mediatrack/internal/search"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	Redis    redis.Config    `mapstructure:"redis"`
	AI       AIConfig        `mapstructure:"ai"`
	Search   SearchConfig    `mapstructure:"search"`
	Enrich   EnrichConfig    `mapstructure:"enrich"`
	Auth     AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type AIConfig struct {
	ai.Config `mapstructure:",squash"`

	// Host mode delegates model and search calls to an external shell
	// process instead of direct HTTP.
	HostMode bool `mapstructure:"host_mode"`
}

type SearchConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	CX       string `mapstructure:"cx"`
	User     string `mapstructure:"user"`

	Enabled    bool   `mapstructure:"enabled"`
	CacheStore string `mapstructure:"cache_store"` // memory or redis
}

type EnrichConfig struct {
	OMDbAPIKey     string `mapstructure:"omdb_api_key"`
	BangumiToken   string `mapstructure:"bangumi_token"`
	SystemPrompt   string `mapstructure:"system_prompt"`
	TrendingPrompt string `mapstructure:"trending_prompt"`
	UpdatePrompt   string `mapstructure:"update_prompt"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("search.provider", string(search.ProviderDuckDuckGo))
	viper.SetDefault("search.enabled", true)
	viper.SetDefault("search.cache_store", "memory")
	viper.SetDefault("auth.jwt_issuer", "mediatrack")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// SearchSettings converts the static file config into the per-call value
// object the search router consumes.
func (c *Config) SearchSettings() search.Config {
	return search.Config{
		Provider: search.ProviderID(c.Search.Provider),
		APIKey:   c.Search.APIKey,
		CX:       c.Search.CX,
		User:     c.Search.User,
	}.Clean()
}
