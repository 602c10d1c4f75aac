package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	Port        string        `mapstructure:"PORT"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`

	CookieName   string `mapstructure:"COOKIE_NAME"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	// SweepInterval is how often expired reservations are removed.
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	UploadDir string `mapstructure:"UPLOAD_DIR"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogFile   string `mapstructure:"LOG_FILE"`

	RateLimitEnabled        bool          `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitCapacity       int           `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefillInterval time.Duration `mapstructure:"RATE_LIMIT_REFILL_INTERVAL"`
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=boardcafe port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("SWEEP_INTERVAL", "60s")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "cafe.events")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_CAPACITY", 60)
	v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "1s")
}

// Load reads the configuration from the .env file in dir (when present)
// and from environment variables, which take precedence.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	setDefaults(v)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	return &cfg, nil
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	cfg, err := Load(".")
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET must be set")
	}
	AppConfig = cfg
}
