package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"doc-reader/internal/api"
	"doc-reader/internal/bot"
	"doc-reader/internal/config"
	"doc-reader/internal/document"
	"doc-reader/internal/metrics"
	"doc-reader/internal/migrations"
	"doc-reader/internal/reader"
	"doc-reader/internal/scheduler"
	"doc-reader/internal/store"
	"doc-reader/internal/textnorm"
	"doc-reader/internal/tts"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск приложения doc-reader",
		zap.String("env", cfg.App.Env),
		zap.String("tts_provider", cfg.TTS.Provider))

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.App.Env,
		})
		if err != nil {
			logger.Warn("ошибка инициализации Sentry", zap.Error(err))
		} else {
			logger.Info("Sentry инициализирован")
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// База данных необязательна: без нее словарь хранится только в файле
	var (
		conversions store.ConversionRepository
		artifacts   store.ArtifactRepository
	)
	if cfg.Database.Enabled() {
		if err := migrations.RunMigrations(&cfg.Database, logger); err != nil {
			logger.Fatal("ошибка применения миграций", zap.Error(err))
		}

		db, err := store.NewStore(cfg, logger)
		if err != nil {
			logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
		}
		defer db.Close()

		conversions = db.Conversion()
		artifacts = db.Artifact()
	} else {
		logger.Info("база данных не настроена, словарь хранится только в файле")
	}

	// Нормализатор текста
	normalizer, err := textnorm.New(textnorm.Config{
		Language:        cfg.Normalizer.Language,
		ConversionsPath: cfg.Normalizer.ConversionsPath,
		SpellAcronyms:   cfg.Normalizer.SpellAcronyms,
	}, logger)
	if err != nil {
		logger.Fatal("ошибка создания нормализатора", zap.Error(err))
	}

	// Синтезатор речи, с кешем в Redis если он настроен
	synthesizer, err := tts.New(cfg.TTS, cfg.Normalizer.Language, logger)
	if err != nil {
		logger.Fatal("ошибка создания синтезатора речи", zap.Error(err))
	}
	if cfg.Redis.URL != "" {
		cache, err := tts.NewRedisCache(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis недоступен, озвучка без кеша", zap.Error(err))
		} else {
			defer cache.Close()
			synthesizer = tts.NewCachedSynthesizer(synthesizer, cache, cfg.Redis.CacheTTL, logger)
			logger.Info("кеш аудио в Redis включен", zap.Duration("ttl", cfg.Redis.CacheTTL))
		}
	}

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	svc := reader.NewService(
		logger,
		document.NewLoader(logger, cfg.Reader.MaxUploadBytes()),
		normalizer,
		synthesizer,
		tts.NewSpeakerDir(cfg.TTS.SpeakerDir),
		metricsSystem,
		conversions,
		artifacts,
		reader.Options{
			OutputDir:      cfg.Reader.OutputDir,
			MaxConcurrency: cfg.Reader.MaxConcurrency,
			Provider:       cfg.TTS.Provider,
			DefaultSpeed:   cfg.TTS.Speed,
		},
	)

	if err := svc.SyncConversions(ctx); err != nil {
		logger.Warn("не удалось загрузить словарь из базы данных", zap.Error(err))
	}

	// HTTP API
	router := api.NewRouter(
		api.NewHandler(svc, logger, cfg.TTS.DefaultVoice, cfg.Reader.MaxUploadBytes()),
		metricsHandler,
		api.RouterConfig{
			APIKey:             cfg.App.APIKey,
			CorsAllowedOrigins: cfg.App.CorsAllowedOrigins,
		},
		logger,
	)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP сервер запущен", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
			cancel()
		}
	}()

	// Периодическая очистка старых аудиофайлов
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(scheduler.NewOutputCleanupJob(
		cfg.Reader.OutputDir, cfg.Cleanup.MaxAge, false, artifacts, metricsSystem, logger))
	go taskScheduler.Start(ctx, cfg.Cleanup.Interval)

	// Telegram бот необязателен
	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.BotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal("ошибка инициализации Telegram бота", zap.Error(err))
		}

		logger.Info("Telegram бот инициализирован",
			zap.String("username", botAPI.Self.UserName),
			zap.Int64("id", botAPI.Self.ID))

		handler := bot.NewHandler(botAPI, svc, bot.Config{
			DefaultVoice: cfg.TTS.DefaultVoice,
			AdminIDs:     cfg.Telegram.AdminIDs,
		}, logger)
		go handleUpdates(ctx, botAPI, handler, logger)
	}

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)))

	// Ожидание сигнала завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("получен сигнал завершения, начинаем graceful shutdown")
	case <-ctx.Done():
	}
	cancel()

	if botAPI != nil {
		botAPI.StopReceivingUpdates()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер с уровнем из LOG_LEVEL
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.App.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = cfg.App.GetLogLevel()

	return zapCfg.Build()
}

// handleUpdates обрабатывает обновления от Telegram
func handleUpdates(ctx context.Context, botAPI *tgbotapi.BotAPI, handler *bot.Handler, logger *zap.Logger) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			// Обрабатываем обновление в горутине
			go func(update tgbotapi.Update) {
				if err := handler.HandleUpdate(ctx, update); err != nil {
					logger.Error("ошибка обработки обновления",
						zap.Int64("chat_id", update.Message.Chat.ID),
						zap.Error(err))
					sentry.CaptureException(err)
				}
			}(update)

		case <-ctx.Done():
			logger.Info("остановка обработки обновлений")
			return
		}
	}
}
