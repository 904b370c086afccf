package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig(t *testing.T) {
	// Устанавливаем переменные окружения для теста
	t.Setenv("TTS_PROVIDER", "coqui")
	t.Setenv("TTS_BASE_URL", "http://tts:5002")
	t.Setenv("TTS_SPEED", "2")
	t.Setenv("READER_OUTPUT_DIR", "/tmp/audio")
	t.Setenv("NORMALIZER_SPELL_ACRONYMS", "true")
	t.Setenv("CLEANUP_MAX_AGE", "48h")
	t.Setenv("DB_NAME", "")
	t.Setenv("TELEGRAM_ADMIN_IDS", "42, x, 7")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Проверяем значения
	assert.Equal(t, ProviderCoqui, cfg.TTS.Provider)
	assert.Equal(t, "http://tts:5002", cfg.TTS.BaseURL)
	assert.Equal(t, 2.0, cfg.TTS.Speed)
	assert.Equal(t, "/tmp/audio", cfg.Reader.OutputDir)
	assert.True(t, cfg.Normalizer.SpellAcronyms)
	assert.Equal(t, 48*time.Hour, cfg.Cleanup.MaxAge)
	assert.Equal(t, []int64{42, 7}, cfg.Telegram.AdminIDs)

	// Проверяем значения по умолчанию
	assert.Equal(t, "es", cfg.Normalizer.Language)
	assert.Equal(t, "text_conversions.json", cfg.Normalizer.ConversionsPath)
	assert.Equal(t, "Default", cfg.TTS.DefaultVoice)
	assert.Equal(t, 2*time.Minute, cfg.TTS.Timeout)
	assert.Equal(t, 4, cfg.Reader.MaxConcurrency)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, time.Hour, cfg.Cleanup.Interval)
	assert.Equal(t, 8080, cfg.App.Port)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("TTS_PROVIDER", "piper")
	t.Setenv("APP_PORT", "не число")
	t.Setenv("TTS_TIMEOUT", "скоро")
	t.Setenv("DB_NAME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 2*time.Minute, cfg.TTS.Timeout)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "test_user",
		Password: "test_password",
		Name:     "test_db",
		SSLMode:  "disable",
	}

	dsn := cfg.GetDSN()
	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	assert.Equal(t, expected, dsn)
	assert.True(t, cfg.Enabled())
}

func TestAppConfigMethods(t *testing.T) {
	cfg := &AppConfig{
		Env:      "development",
		LogLevel: "debug",
	}

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, zap.DebugLevel, cfg.GetLogLevel().Level())

	cfg.Env = "production"
	cfg.LogLevel = "unknown"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zap.InfoLevel, cfg.GetLogLevel().Level())
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := &ReaderConfig{MaxUploadMB: 2}
	assert.Equal(t, int64(2*1024*1024), cfg.MaxUploadBytes())
}

func validConfig() *Config {
	return &Config{
		Normalizer: NormalizerConfig{Language: "es"},
		TTS: TTSConfig{
			Provider: ProviderPiper,
			BaseURL:  "http://piper:5000",
			Speed:    DefaultSpeed,
		},
		Reader:  ReaderConfig{OutputDir: "output", MaxConcurrency: 1},
		Cleanup: CleanupConfig{MaxAge: time.Hour},
	}
}

func TestValidateConfig(t *testing.T) {
	assert.Error(t, validateConfig(&Config{}))
	assert.NoError(t, validateConfig(validConfig()))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"неизвестный провайдер", func(c *Config) { c.TTS.Provider = "espeak" }},
		{"openai без ключа", func(c *Config) { c.TTS.Provider = ProviderOpenAI }},
		{"piper без адреса", func(c *Config) { c.TTS.BaseURL = "" }},
		{"слишком медленно", func(c *Config) { c.TTS.Speed = 0.1 }},
		{"слишком быстро", func(c *Config) { c.TTS.Speed = 4.5 }},
		{"нет параллельности", func(c *Config) { c.Reader.MaxConcurrency = 0 }},
		{"нет каталога вывода", func(c *Config) { c.Reader.OutputDir = "" }},
		{"база без пользователя", func(c *Config) { c.Database.Name = "reader" }},
		{"нулевой возраст очистки", func(c *Config) { c.Cleanup.MaxAge = 0 }},
		{"нет языка", func(c *Config) { c.Normalizer.Language = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}

	cfg := validConfig()
	cfg.TTS.Provider = ProviderOpenAI
	cfg.TTS.OpenAIKey = "sk-test"
	assert.NoError(t, validateConfig(cfg))
}
