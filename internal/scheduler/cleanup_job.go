package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"doc-reader/internal/metrics"
	"doc-reader/internal/store"
)

// CleanupResult - итог одного прохода очистки
type CleanupResult struct {
	Files   []string // удаленные (или, в dry-run, подлежащие удалению) файлы
	Records int64    // удаленные записи об аудиофайлах
}

// OutputCleanupJob удаляет старые .wav из каталога вывода и записи о них
type OutputCleanupJob struct {
	outputDir string
	maxAge    time.Duration
	dryRun    bool
	artifacts store.ArtifactRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewOutputCleanupJob создает задачу очистки. artifacts и m могут быть nil.
func NewOutputCleanupJob(
	outputDir string,
	maxAge time.Duration,
	dryRun bool,
	artifacts store.ArtifactRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *OutputCleanupJob {
	return &OutputCleanupJob{
		outputDir: outputDir,
		maxAge:    maxAge,
		dryRun:    dryRun,
		artifacts: artifacts,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Name возвращает имя задачи для логов
func (j *OutputCleanupJob) Name() string {
	return "output_cleanup"
}

// Run выполняет очистку
func (j *OutputCleanupJob) Run(ctx context.Context) error {
	_, err := j.Cleanup(ctx)
	return err
}

// Cleanup удаляет аудио старше maxAge и возвращает, что было удалено
func (j *OutputCleanupJob) Cleanup(ctx context.Context) (*CleanupResult, error) {
	cutoff := j.now().Add(-j.maxAge)
	result := &CleanupResult{}

	j.logger.Info("очистка старых аудиофайлов",
		zap.String("dir", j.outputDir),
		zap.Time("cutoff", cutoff),
		zap.Bool("dry_run", j.dryRun))

	entries, err := os.ReadDir(j.outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		entries = nil
	} else if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога вывода %s: %w", j.outputDir, err)
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			j.logger.Warn("не удалось прочитать сведения о файле", zap.String("name", e.Name()), zap.Error(err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(j.outputDir, e.Name())
		if !j.dryRun {
			if err := os.Remove(path); err != nil {
				j.logger.Error("ошибка удаления аудиофайла", zap.String("path", path), zap.Error(err))
				continue
			}
		}
		result.Files = append(result.Files, path)
	}

	if j.artifacts != nil && !j.dryRun {
		n, err := j.artifacts.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return result, fmt.Errorf("ошибка удаления записей об аудиофайлах: %w", err)
		}
		result.Records = n
	}

	if j.metrics != nil && !j.dryRun {
		j.metrics.RecordArtifactsRemoved(len(result.Files))
	}

	j.logger.Info("очистка аудиофайлов завершена",
		zap.Int("files", len(result.Files)),
		zap.Int64("records", result.Records),
		zap.Bool("dry_run", j.dryRun))

	return result, nil
}
