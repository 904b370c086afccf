// Package reader озвучивает документы: извлекает текст, нормализует его
// и сохраняет синтезированную речь в каталог вывода.
package reader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"doc-reader/internal/config"
	"doc-reader/internal/document"
	"doc-reader/internal/metrics"
	"doc-reader/internal/store"
	"doc-reader/internal/textnorm"
	"doc-reader/internal/tts"
	"doc-reader/pkg/models"
)

// Источники нормализации для метрик
const (
	SourceAPI    = "api"
	SourceBot    = "bot"
	SourceReader = "reader"
)

// Options содержит настройки сервиса
type Options struct {
	OutputDir      string
	MaxConcurrency int
	Provider       string  // имя провайдера TTS для метрик
	DefaultSpeed   float64 // скорость, если в запросе 0
}

// ReadOptions - параметры одной озвучки
type ReadOptions struct {
	Speed float64
	Voice string
}

// Document - загруженный файл для пакетной озвучки
type Document struct {
	Name string
	Body io.Reader
}

// Service озвучивает тексты и документы
type Service struct {
	logger      *zap.Logger
	loader      *document.Loader
	normalizer  *textnorm.Normalizer
	synthesizer tts.Synthesizer
	speakers    *tts.SpeakerDir
	metrics     *metrics.Metrics
	conversions store.ConversionRepository
	artifacts   store.ArtifactRepository
	opts        Options
}

// NewService создает сервис озвучки. Репозитории могут быть nil, если база не настроена.
func NewService(
	logger *zap.Logger,
	loader *document.Loader,
	normalizer *textnorm.Normalizer,
	synthesizer tts.Synthesizer,
	speakers *tts.SpeakerDir,
	m *metrics.Metrics,
	conversions store.ConversionRepository,
	artifacts store.ArtifactRepository,
	opts Options,
) *Service {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.DefaultSpeed == 0 {
		opts.DefaultSpeed = config.DefaultSpeed
	}

	m.SetGauge(metrics.ConversionEntries, float64(len(normalizer.Conversions())))

	return &Service{
		logger:      logger,
		loader:      loader,
		normalizer:  normalizer,
		synthesizer: synthesizer,
		speakers:    speakers,
		metrics:     m,
		conversions: conversions,
		artifacts:   artifacts,
		opts:        opts,
	}
}

// Normalize возвращает текст, готовый для синтеза речи
func (s *Service) Normalize(source, text string) string {
	start := time.Now()
	out := s.normalizer.Process(text)
	s.metrics.RecordNormalization(source, time.Since(start))
	return out
}

// Speak нормализует текст и синтезирует речь
func (s *Service) Speak(ctx context.Context, source, text string, opts ReadOptions) (*tts.Audio, error) {
	return s.Synthesize(ctx, s.Normalize(source, text), opts)
}

// Synthesize озвучивает уже нормализованный текст
func (s *Service) Synthesize(ctx context.Context, normalized string, opts ReadOptions) (*tts.Audio, error) {
	if opts.Speed == 0 {
		opts.Speed = s.opts.DefaultSpeed
	}

	start := time.Now()
	audio, err := s.synthesizer.Synthesize(ctx, tts.Request{
		Text:  normalized,
		Speed: opts.Speed,
		Voice: opts.Voice,
	})
	s.metrics.RecordTTS(s.opts.Provider, err == nil, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("ошибка синтеза речи: %w", err)
	}

	return audio, nil
}

// ReadDocument озвучивает документ и сохраняет <имя документа>.wav в каталог вывода
func (s *Service) ReadDocument(ctx context.Context, name string, body io.Reader, opts ReadOptions) (*models.Artifact, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	artifact, err := s.readDocument(ctx, name, body, opts)
	s.metrics.RecordDocument(format, err == nil)
	if err != nil {
		s.logger.Error("ошибка озвучки документа", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("документ озвучен",
		zap.String("name", name),
		zap.String("path", artifact.Path),
		zap.Int64("size", artifact.Size))
	return artifact, nil
}

func (s *Service) readDocument(ctx context.Context, name string, body io.Reader, opts ReadOptions) (*models.Artifact, error) {
	text, err := s.loader.Load(name, body)
	if err != nil {
		return nil, err
	}

	audio, err := s.Speak(ctx, SourceReader, text, opts)
	if err != nil {
		return nil, err
	}

	path := OutputPath(s.opts.OutputDir, name)
	if err := writeFileAtomic(path, audio.Data); err != nil {
		return nil, err
	}

	voice := opts.Voice
	if voice == "" {
		voice = tts.DefaultVoice
	}
	speed := opts.Speed
	if speed == 0 {
		speed = s.opts.DefaultSpeed
	}
	artifact := &models.Artifact{
		ID:        uuid.NewString(),
		Document:  filepath.Base(name),
		Path:      path,
		Voice:     voice,
		Speed:     speed,
		Size:      int64(len(audio.Data)),
		Cached:    audio.Cached,
		CreatedAt: time.Now(),
	}

	if s.artifacts != nil {
		if err := s.artifacts.Create(ctx, artifact); err != nil {
			s.logger.Warn("не удалось сохранить сведения об аудиофайле", zap.Error(err))
		}
	}

	return artifact, nil
}

// ReadDocuments озвучивает несколько документов параллельно.
// Первая ошибка отменяет оставшиеся документы.
func (s *Service) ReadDocuments(ctx context.Context, docs []Document, opts ReadOptions) ([]*models.Artifact, error) {
	results := make([]*models.Artifact, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrency)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			artifact, err := s.ReadDocument(gctx, doc.Name, doc.Body, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Name, err)
			}
			results[i] = artifact
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Conversions возвращает текущий словарь замен
func (s *Service) Conversions() map[string]string {
	return s.normalizer.Conversions()
}

// UpdateConversions обновляет словарь. save сохраняет его в файл и в базу, если она есть.
func (s *Service) UpdateConversions(ctx context.Context, pairs map[string]string, save bool) error {
	s.normalizer.UpdateConversions(pairs)
	s.metrics.RecordConversions("update", len(s.normalizer.Conversions()))

	if !save {
		return nil
	}
	return s.SaveConversions(ctx)
}

// SaveConversions сохраняет словарь в файл и в базу данных.
// Без пути к файлу словарь сохраняется только в базу.
func (s *Service) SaveConversions(ctx context.Context) error {
	if s.normalizer.ConversionsPath() != "" || s.conversions == nil {
		if err := s.normalizer.SaveConversions(""); err != nil {
			return err
		}
	}

	current := s.normalizer.Conversions()
	if s.conversions != nil {
		if err := s.conversions.UpsertMany(ctx, current); err != nil {
			return fmt.Errorf("ошибка сохранения словаря в базе данных: %w", err)
		}
	}

	s.metrics.RecordConversions("save", len(current))
	return nil
}

// SyncConversions подгружает в словарь пары, сохраненные в базе данных
func (s *Service) SyncConversions(ctx context.Context) error {
	if s.conversions == nil {
		return nil
	}

	stored, err := s.conversions.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}

	s.normalizer.UpdateConversions(stored)
	s.metrics.RecordConversions("sync", len(s.normalizer.Conversions()))
	return nil
}

// Speakers возвращает доступные голоса
func (s *Service) Speakers() ([]string, error) {
	return s.speakers.List()
}

// OutputDir возвращает каталог с озвученными файлами
func (s *Service) OutputDir() string {
	return s.opts.OutputDir
}

// OutputPath возвращает путь к .wav для документа: "docs/Ley 39.docx" -> "<dir>/Ley 39.wav"
func OutputPath(dir, name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+".wav")
}

// writeFileAtomic пишет файл через временный файл в том же каталоге
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания каталога вывода %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.wav")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ошибка записи аудио: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи аудио: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка сохранения аудио %s: %w", path, err)
	}
	return nil
}
