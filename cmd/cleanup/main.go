package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"doc-reader/internal/config"
	"doc-reader/internal/scheduler"
	"doc-reader/internal/store"
)

func main() {
	var (
		maxAge = flag.Duration("max-age", 0, "Удалять аудиофайлы старше указанного возраста (0 = CLEANUP_MAX_AGE)")
		dir    = flag.String("dir", "", "Каталог с аудиофайлами (пусто = READER_OUTPUT_DIR)")
		dryRun = flag.Bool("dry-run", false, "Показать что будет удалено без фактического удаления")
	)
	flag.Parse()

	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer logger.Sync()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	if *maxAge <= 0 {
		*maxAge = cfg.Cleanup.MaxAge
	}
	if *dir == "" {
		*dir = cfg.Reader.OutputDir
	}

	// Записи об аудиофайлах чистим, только если настроена база данных
	var artifacts store.ArtifactRepository
	if cfg.Database.Enabled() {
		db, err := store.NewStore(cfg, logger)
		if err != nil {
			logger.Fatal("Ошибка подключения к базе данных", zap.Error(err))
		}
		defer db.Close()
		artifacts = db.Artifact()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	job := scheduler.NewOutputCleanupJob(*dir, *maxAge, *dryRun, artifacts, nil, logger)
	result, err := job.Cleanup(ctx)
	if err != nil {
		logger.Fatal("Ошибка очистки аудиофайлов", zap.Error(err))
	}

	for _, path := range result.Files {
		if *dryRun {
			logger.Info("DRY RUN: будет удален", zap.String("path", path))
		} else {
			logger.Info("Удален", zap.String("path", path))
		}
	}

	logger.Info("Очистка аудиофайлов завершена",
		zap.Int("files", len(result.Files)),
		zap.Int64("records", result.Records),
		zap.Duration("max_age", *maxAge),
		zap.Bool("dry_run", *dryRun))
}
