package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	API struct {
		Port        string
		BasePath    string
		CORSOrigins []string
	}
	JWT struct {
		Secret   string
		Issuer   string
		Audience string
		TTL      time.Duration
	}
	Logging struct {
		Dir   string
		Level string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	Telegram struct {
		BotToken  string
		ChatIDs   []int64
		RateLimit int
	}
	MQTT struct {
		Broker   string
		ClientID string
		Topic    string
	}
	Notification struct {
		QueueSize      int
		MaxWorkers     int
		MaxConnections int
	}
	Simulator struct {
		Enabled     bool
		Warmup      time.Duration
		MinInterval time.Duration
		MaxInterval time.Duration
		Backoff     time.Duration
	}
	Seed struct {
		Username    string
		Password    string
		TempMax     float64
		HumidityMax float64
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	var errs []string

	durationVar := func(key string, def time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return d
	}
	intVar := func(key string, def int) int {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return n
	}
	floatVar := func(key string, def float64) float64 {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return def
		}
		return f
	}

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")
	cfg.API.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	// Token settings
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.Issuer = os.Getenv("JWT_ISSUER")
	cfg.JWT.Audience = os.Getenv("JWT_AUDIENCE")
	cfg.JWT.TTL = durationVar("JWT_TTL", 24*time.Hour)

	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Config cache
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = intVar("REDIS_DB", 0)
	cfg.Redis.TTL = durationVar("CONFIG_CACHE_TTL", 30*time.Minute)

	// Optional sinks
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	for _, raw := range splitList(os.Getenv("TELEGRAM_CHAT_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TELEGRAM_CHAT_IDS: %v", err))
			continue
		}
		cfg.Telegram.ChatIDs = append(cfg.Telegram.ChatIDs, id)
	}
	cfg.Telegram.RateLimit = intVar("TELEGRAM_RATE_LIMIT", 0)

	cfg.MQTT.Broker = os.Getenv("MQTT_BROKER")
	cfg.MQTT.ClientID = os.Getenv("MQTT_CLIENT_ID")
	cfg.MQTT.Topic = os.Getenv("MQTT_TOPIC")

	// Notification worker settings
	cfg.Notification.QueueSize = intVar("QUEUE_SIZE", 0)
	cfg.Notification.MaxWorkers = intVar("MAX_WORKERS", 0)
	cfg.Notification.MaxConnections = intVar("WS_MAX_CONNECTIONS", 0)

	// Sensor feed simulator
	cfg.Simulator.Enabled = os.Getenv("SIM_ENABLED") != "false"
	cfg.Simulator.Warmup = durationVar("SIM_WARMUP", 5*time.Second)
	cfg.Simulator.MinInterval = durationVar("SIM_MIN_INTERVAL", 3*time.Second)
	cfg.Simulator.MaxInterval = durationVar("SIM_MAX_INTERVAL", 5*time.Second)
	cfg.Simulator.Backoff = durationVar("SIM_BACKOFF", 5*time.Second)

	// First boot seed
	cfg.Seed.Username = os.Getenv("SEED_USERNAME")
	cfg.Seed.Password = os.Getenv("SEED_PASSWORD")
	cfg.Seed.TempMax = floatVar("SEED_TEMP_MAX", 30)
	cfg.Seed.HumidityMax = floatVar("SEED_HUMIDITY_MAX", 80)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %v", errs)
	}

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	if cfg.Simulator.MaxInterval < cfg.Simulator.MinInterval {
		return Config{}, fmt.Errorf("SIM_MAX_INTERVAL (%s) is below SIM_MIN_INTERVAL (%s)", cfg.Simulator.MaxInterval, cfg.Simulator.MinInterval)
	}

	// Apply defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api"
	}
	if len(cfg.API.CORSOrigins) == 0 {
		cfg.API.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "GreenSpec"
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "GreenSpec"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "sensor-alerts"
	}
	if cfg.Telegram.RateLimit <= 0 {
		cfg.Telegram.RateLimit = 1
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "sensors/readings"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "sensor-alert-service"
	}
	if cfg.Notification.QueueSize == 0 {
		cfg.Notification.QueueSize = 500
	}
	if cfg.Notification.MaxWorkers == 0 {
		cfg.Notification.MaxWorkers = 4
	}
	if cfg.Notification.MaxConnections == 0 {
		cfg.Notification.MaxConnections = 100
	}
	if cfg.Seed.Username == "" {
		cfg.Seed.Username = "admin"
	}
	if cfg.Seed.Password == "" {
		cfg.Seed.Password = "admin123"
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
