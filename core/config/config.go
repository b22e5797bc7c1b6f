package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"calsync/core/logger"
)

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// VaultConfig carries the process-wide credential vault key as supplied by the
// environment (hex or base64 encoded 32 bytes). Decoding and length checks are
// the vault's job so misconfiguration surfaces as a CryptoError, not a default.
type VaultConfig struct {
	Key string
}

// ClientConfig is the browser application the OAuth callback redirects back to.
type ClientConfig struct {
	BaseURL string
}

// OAuthProviderConfig holds one provider's client credentials and endpoints.
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
}

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Vault         VaultConfig
	Client        ClientConfig
	GoogleAPI     OAuthProviderConfig
	NaverWorksAPI OAuthProviderConfig
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (when present) plus process environment into the singleton.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("Config:Load:NoDotEnv", "reason", err.Error())
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 7070)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("PORT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Vault: VaultConfig{
			Key: v.GetString("VAULT_KEY"),
		},
		Client: ClientConfig{
			BaseURL: v.GetString("CLIENT_BASE_URL"),
		},
		GoogleAPI: OAuthProviderConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
		},
		NaverWorksAPI: OAuthProviderConfig{
			ClientID:     v.GetString("NAVERWORKS_CLIENT_ID"),
			ClientSecret: v.GetString("NAVERWORKS_CLIENT_SECRET"),
			RedirectURI:  v.GetString("NAVERWORKS_REDIRECT_URI"),
			AuthURL:      v.GetString("NAVERWORKS_AUTH_URL"),
			TokenURL:     v.GetString("NAVERWORKS_TOKEN_URL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()

	return cfg, nil
}

// validate rejects startup when a required value is absent. Provider
// credentials are checked lazily at first use so a deployment without a given
// provider still boots.
func (c *Config) validate() error {
	required := map[string]string{
		"DB_HOST":         c.Database.Host,
		"DB_USER":         c.Database.User,
		"DB_NAME":         c.Database.DBName,
		"JWT_SECRET":      c.JWT.Secret,
		"VAULT_KEY":       c.Vault.Key,
		"CLIENT_BASE_URL": c.Client.BaseURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("missing required environment variable %s", name)
		}
	}
	return nil
}

func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// GetSafe returns the singleton plus an ok flag, for call sites that must not
// assume Load has run.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return nil, false
	}
	return instance, true
}

// Set replaces the singleton. Test helper.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}
