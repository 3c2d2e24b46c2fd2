package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Logger     Logger     `mapstructure:"logger"`
	Server     Server     `mapstructure:"server"`
	Storage    Storage    `mapstructure:"storage"`
	Database   Database   `mapstructure:"database"`
	Redis      Redis      `mapstructure:"redis"`
	Market     Market     `mapstructure:"market"`
	Calculator Calculator `mapstructure:"calculator"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File redirects log output away from stderr when set.
	File string `mapstructure:"file"`
}

// Server holds the configuration for the HTTP API.
type Server struct {
	Port int `mapstructure:"port"`
}

// Storage selects where the calculator registry is persisted.
type Storage struct {
	Driver string `mapstructure:"driver"` // memory, sqlite or redis
	Key    string `mapstructure:"key"`
}

// Database holds the configuration for the sqlite store.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Redis holds the configuration for the redis store.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Market holds the configuration for the market price client.
type Market struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	QuoteAsset     string        `mapstructure:"quote_asset"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Calculator holds display settings for calculators.
type Calculator struct {
	// ChartURL is a link template; {ticker} is replaced by the ticker.
	ChartURL string `mapstructure:"chart_url"`
}

// LoadConfig reads config.yml from path, a .env file from the working
// directory and the environment. A missing config file is not an error.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")

	// Allow environment variables to override config file
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.key", "calculators")
	v.SetDefault("database.dsn", "calculators.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("market.enabled", false)
	v.SetDefault("market.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("market.quote_asset", "USDT")
	v.SetDefault("market.rate_limit", 10)     // requests per second
	v.SetDefault("market.rate_limit_burst", 2) // burst size
	v.SetDefault("market.timeout", "10s")
	v.SetDefault("calculator.chart_url", "https://www.tradingview.com/chart/?symbol=GATEIO%3A{ticker}USDT")
}
