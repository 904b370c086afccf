package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Границы скорости речи, которые принимает синтезатор
const (
	MinSpeed     = 0.25
	MaxSpeed     = 4.0
	DefaultSpeed = 1.5
)

// Поддерживаемые провайдеры синтеза речи
const (
	ProviderPiper   = "piper"
	ProviderCoqui   = "coqui"
	ProviderAllTalk = "alltalk"
	ProviderOpenAI  = "openai"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App        AppConfig
	Normalizer NormalizerConfig
	TTS        TTSConfig
	Reader     ReaderConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Telegram   TelegramConfig
	Sentry     SentryConfig
	Cleanup    CleanupConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
	Port     int

	// APIKey защищает /v1, пустой ключ отключает проверку
	APIKey string
	// CorsAllowedOrigins - список origin через запятую, пусто означает "*"
	CorsAllowedOrigins string
}

// NormalizerConfig содержит настройки нормализации текста
type NormalizerConfig struct {
	Language        string
	ConversionsPath string
	SpellAcronyms   bool
}

// TTSConfig содержит настройки синтеза речи
type TTSConfig struct {
	Provider     string
	BaseURL      string
	OpenAIKey    string
	OpenAIModel  string
	OpenAIVoice  string
	Speed        float64
	SpeakerDir   string
	DefaultVoice string
	Timeout      time.Duration
}

// ReaderConfig содержит настройки озвучки документов
type ReaderConfig struct {
	OutputDir      string
	MaxConcurrency int
	MaxUploadMB    int
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// RedisConfig содержит настройки кэша аудио
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	BotToken string
	// AdminIDs могут менять словарь замен через бота, пустой список разрешает всем
	AdminIDs []int64
}

// SentryConfig содержит настройки отправки ошибок
type SentryConfig struct {
	DSN string
}

// CleanupConfig содержит настройки очистки старых аудиофайлов
type CleanupConfig struct {
	MaxAge   time.Duration
	Interval time.Duration
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.APIKey = os.Getenv("API_KEY")
	cfg.App.CorsAllowedOrigins = os.Getenv("CORS_ALLOWED_ORIGINS")

	// Normalizer
	cfg.Normalizer.Language = getEnvDefault("NORMALIZER_LANGUAGE", "es")
	cfg.Normalizer.ConversionsPath = getEnvDefault("NORMALIZER_CONVERSIONS_PATH", "text_conversions.json")
	cfg.Normalizer.SpellAcronyms = getEnvBoolDefault("NORMALIZER_SPELL_ACRONYMS", false)

	// TTS
	cfg.TTS.Provider = getEnvDefault("TTS_PROVIDER", ProviderPiper)
	cfg.TTS.BaseURL = getEnvDefault("TTS_BASE_URL", "http://piper:5000")
	cfg.TTS.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.TTS.OpenAIModel = getEnvDefault("OPENAI_TTS_MODEL", "tts-1")
	cfg.TTS.OpenAIVoice = getEnvDefault("OPENAI_TTS_VOICE", "alloy")
	cfg.TTS.Speed = getEnvFloatDefault("TTS_SPEED", DefaultSpeed)
	cfg.TTS.SpeakerDir = getEnvDefault("TTS_SPEAKER_DIR", "speakers")
	cfg.TTS.DefaultVoice = getEnvDefault("TTS_DEFAULT_VOICE", "Default")
	cfg.TTS.Timeout = getEnvDurationDefault("TTS_TIMEOUT", 2*time.Minute)

	// Reader
	cfg.Reader.OutputDir = getEnvDefault("READER_OUTPUT_DIR", "output")
	cfg.Reader.MaxConcurrency = getEnvIntDefault("READER_MAX_CONCURRENCY", 4)
	cfg.Reader.MaxUploadMB = getEnvIntDefault("READER_MAX_UPLOAD_MB", 32)

	// Database, необязательна
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// Redis, необязателен
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Redis.CacheTTL = getEnvDurationDefault("REDIS_CACHE_TTL", 24*time.Hour)

	// Telegram, необязателен
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.AdminIDs = getEnvInt64List("TELEGRAM_ADMIN_IDS")

	// Sentry
	cfg.Sentry.DSN = os.Getenv("SENTRY_DSN")

	// Cleanup
	cfg.Cleanup.MaxAge = getEnvDurationDefault("CLEANUP_MAX_AGE", 72*time.Hour)
	cfg.Cleanup.Interval = getEnvDurationDefault("CLEANUP_INTERVAL", time.Hour)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvInt64List читает список id через запятую, некорректные значения пропускаются
func getEnvInt64List(key string) []int64 {
	var ids []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func getEnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Normalizer.Language == "" {
		return fmt.Errorf("NORMALIZER_LANGUAGE не установлен")
	}

	switch config.TTS.Provider {
	case ProviderPiper, ProviderCoqui, ProviderAllTalk:
		if config.TTS.BaseURL == "" {
			return fmt.Errorf("TTS_BASE_URL не установлен")
		}
	case ProviderOpenAI:
		if config.TTS.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY не установлен")
		}
	default:
		return fmt.Errorf("поддерживаются только TTS_PROVIDER: piper, coqui, alltalk, openai")
	}

	if config.TTS.Speed < MinSpeed || config.TTS.Speed > MaxSpeed {
		return fmt.Errorf("TTS_SPEED должен быть в диапазоне %.2f-%.2f", MinSpeed, MaxSpeed)
	}
	if config.Reader.MaxConcurrency < 1 {
		return fmt.Errorf("READER_MAX_CONCURRENCY должен быть больше нуля")
	}
	if config.Reader.OutputDir == "" {
		return fmt.Errorf("READER_OUTPUT_DIR не установлен")
	}

	if config.Database.Enabled() {
		if config.Database.User == "" {
			return fmt.Errorf("DB_USER не установлен")
		}
		if config.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD не установлен")
		}
	}

	if config.Cleanup.MaxAge <= 0 {
		return fmt.Errorf("CLEANUP_MAX_AGE должен быть положительным")
	}

	return nil
}

// Enabled сообщает, настроено ли хранение словаря в Postgres
func (c *DatabaseConfig) Enabled() bool {
	return c.Name != ""
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// MaxUploadBytes возвращает лимит размера загрузки в байтах
func (c *ReaderConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
