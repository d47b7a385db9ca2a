package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
// It is loaded once at startup and injected into every component that needs it;
// nothing reads the environment after Load returns.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Google       GoogleConfig
	SMTP         SMTPConfig
	Token        TokenConfig
	Verification VerificationConfig
	Reset        ResetConfig
	ClientURL    string `mapstructure:"clienturl"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the Redis configuration.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"clientid"`
	ClientSecret string `mapstructure:"clientsecret"`
	RedirectURL  string `mapstructure:"redirecturl"`
}

type SMTPConfig struct {
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
	Username string `mapstructure:"username"`
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
}

// TokenConfig holds the signing secrets and lifetimes for issued tokens.
// Access and refresh tokens use independent secrets so that compromise of
// one does not imply the other.
type TokenConfig struct {
	AccessSecret      string `mapstructure:"accesssecret"`
	RefreshSecret     string `mapstructure:"refreshsecret"`
	AccessTTLMinutes  int    `mapstructure:"accessttlminutes"`
	RefreshTTLDays    int    `mapstructure:"refreshttldays"`
	TempTTLMinutes    int    `mapstructure:"tempttlminutes"`
}

// VerificationConfig controls the one-time-code ledger.
type VerificationConfig struct {
	TTLMinutes            int `mapstructure:"ttlminutes"`
	ResendCooldownSeconds int `mapstructure:"resendcooldownseconds"`
}

// ResetConfig controls password-reset token lifetimes.
type ResetConfig struct {
	TTLMinutes int `mapstructure:"ttlminutes"`
}

// Load creates a new Config object from environment variables.
func Load() *Config {
	// --- Set up Viper ---
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env into process environment for BindEnv to work with file-based envs
	if err := godotenv.Load(); err != nil {
		log.Printf("godotenv could not load .env: %v", err)
	}

	// Bind structured keys to environment variables
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("redis.url", "REDIS_URL")
	_ = viper.BindEnv("clienturl", "CLIENT_URL")
	_ = viper.BindEnv("google.clientid", "GOOGLE_CLIENT_ID")
	_ = viper.BindEnv("google.clientsecret", "GOOGLE_CLIENT_SECRET")
	_ = viper.BindEnv("google.redirecturl", "GOOGLE_REDIRECT_URL")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("token.accesssecret", "ACCESS_TOKEN_SECRET")
	_ = viper.BindEnv("token.refreshsecret", "REFRESH_TOKEN_SECRET")
	_ = viper.BindEnv("token.accessttlminutes", "ACCESS_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("token.refreshttldays", "REFRESH_TOKEN_TTL_DAYS")
	_ = viper.BindEnv("token.tempttlminutes", "TEMP_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("verification.ttlminutes", "VERIFICATION_TTL_MINUTES")
	_ = viper.BindEnv("verification.resendcooldownseconds", "VERIFICATION_RESEND_COOLDOWN_SECONDS")
	_ = viper.BindEnv("reset.ttlminutes", "RESET_TTL_MINUTES")

	// --- Read Configuration ---
	if err := viper.ReadInConfig(); err != nil {
		// Only log a warning if the .env file is not found.
		// We can still proceed if all config is set via environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("error reading config file: %s", err)
		} else {
			log.Printf(".env file not found, relying on environment variables")
		}
	}

	// --- Unmarshal configuration into our struct ---
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("unable to decode config into struct: %v", err)
	}

	// --- Set default values ---
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.ClientURL == "" {
		cfg.ClientURL = "http://localhost:3000"
	}
	if cfg.Token.AccessTTLMinutes <= 0 {
		cfg.Token.AccessTTLMinutes = 15
	}
	if cfg.Token.RefreshTTLDays <= 0 {
		cfg.Token.RefreshTTLDays = 7
	}
	if cfg.Token.TempTTLMinutes <= 0 {
		cfg.Token.TempTTLMinutes = 15
	}
	if cfg.Verification.TTLMinutes <= 0 {
		cfg.Verification.TTLMinutes = 5
	}
	if cfg.Verification.ResendCooldownSeconds <= 0 {
		cfg.Verification.ResendCooldownSeconds = 60
	}
	if cfg.Reset.TTLMinutes <= 0 {
		cfg.Reset.TTLMinutes = 60
	}

	return &cfg
}
