package config

import (
	"os"
	"strconv"
	"strings"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Cache     CacheConfig     `json:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Pricing   PricingConfig   `json:"pricing"`
	Upstream  UpstreamConfig  `json:"upstream"`
	Session   SessionConfig   `json:"session"`
	Shipments ShipmentsConfig `json:"shipments"`
}

// CacheConfig представляет конфигурацию кеширования
type CacheConfig struct {
	Enabled    bool `json:"enabled"`
	DefaultTTL int  `json:"default_ttl"`  // TTL для обычных данных (секунды)
	HotDataTTL int  `json:"hot_data_ttl"` // TTL для горячих данных (секунды)
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`

	MaxOpenConns    int `json:"max_open_conns"`
	MaxIdleConns    int `json:"max_idle_conns"`
	ConnMaxLifetime int `json:"conn_max_lifetime"` // секунды
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Enabled bool     `json:"enabled"`
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Shipments string `json:"shipments"`
	Tracking  string `json:"tracking"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// RateLimitConfig представляет конфигурацию ограничения частоты запросов
type RateLimitConfig struct {
	Enabled     bool `json:"enabled"`
	DefaultRPM  int  `json:"default_rpm"`
	VIPRPM      int  `json:"vip_rpm"`
	BanDuration int  `json:"ban_duration"` // секунды
}

// PricingConfig представляет тарифы на доставку
type PricingConfig struct {
	ExpressPrice  float64 `json:"express_price"`
	StandardPrice float64 `json:"standard_price"`
	EconomyPrice  float64 `json:"economy_price"`
	PricePerKg    float64 `json:"price_per_kg"`
}

// UpstreamConfig представляет конфигурацию внешнего REST API (авторизация и список отправлений)
type UpstreamConfig struct {
	BaseURL string `json:"base_url"`
	Timeout int    `json:"timeout"` // секунды
}

// SessionConfig представляет конфигурацию хранилища сессий
type SessionConfig struct {
	TTL int `json:"ttl"` // секунды
}

// ShipmentsConfig представляет конфигурацию хранилища отправлений
type ShipmentsConfig struct {
	Store         string `json:"store"` // postgres | memory
	SeedMockData  bool   `json:"seed_mock_data"`
	CreateDelayMS int    `json:"create_delay_ms"`
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "uniship_user"),
			Password: getEnv("DB_PASSWORD", "uniship_pass"),
			DBName:   getEnv("DB_NAME", "uniship"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),

			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsInt("DB_CONN_MAX_LIFETIME", 300),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", true),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			GroupID: getEnv("KAFKA_GROUP_ID", "uniship-bff"),
			Topics: Topics{
				Shipments: getEnv("KAFKA_TOPIC_SHIPMENTS", "shipments"),
				Tracking:  getEnv("KAFKA_TOPIC_TRACKING", "tracking"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			DefaultTTL: getEnvAsInt("CACHE_DEFAULT_TTL", 300), // 5 минут
			HotDataTTL: getEnvAsInt("CACHE_HOT_DATA_TTL", 60), // 1 минута
		},
		RateLimit: RateLimitConfig{
			Enabled:     getEnvAsBool("RATE_LIMIT_ENABLED", true),
			DefaultRPM:  getEnvAsInt("RATE_LIMIT_DEFAULT_RPM", 60),
			VIPRPM:      getEnvAsInt("RATE_LIMIT_VIP_RPM", 300),
			BanDuration: getEnvAsInt("RATE_LIMIT_BAN_DURATION", 300),
		},
		Pricing: PricingConfig{
			ExpressPrice:  getEnvAsFloat("PRICING_EXPRESS", 25.99),
			StandardPrice: getEnvAsFloat("PRICING_STANDARD", 15.99),
			EconomyPrice:  getEnvAsFloat("PRICING_ECONOMY", 9.99),
			PricePerKg:    getEnvAsFloat("PRICING_PER_KG", 2.0),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("UPSTREAM_API_URL", "http://localhost:3000"),
			Timeout: getEnvAsInt("UPSTREAM_API_TIMEOUT", 10),
		},
		Session: SessionConfig{
			TTL: getEnvAsInt("SESSION_TTL", 86400), // сутки
		},
		Shipments: ShipmentsConfig{
			Store:         getEnv("SHIPMENT_STORE", "postgres"),
			SeedMockData:  getEnvAsBool("SHIPMENT_SEED_MOCK_DATA", false),
			CreateDelayMS: getEnvAsInt("SHIPMENT_CREATE_DELAY_MS", 0),
		},
	}
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat получает значение переменной окружения как float64
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
