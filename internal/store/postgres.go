package store

import (
	"context"
	"fmt"
	"time"

	"doc-reader/internal/config"
	"doc-reader/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store представляет интерфейс для работы с базой данных
type Store interface {
	Conversion() ConversionRepository
	Artifact() ArtifactRepository
	DB() *pgxpool.Pool
	Close() error
}

// store реализует интерфейс Store
type store struct {
	db         *pgxpool.Pool
	logger     *zap.Logger
	conversion ConversionRepository
	artifact   ArtifactRepository
}

// ConversionRepository хранит словарь замен
type ConversionRepository interface {
	UpsertMany(ctx context.Context, pairs map[string]string) error
	GetAll(ctx context.Context) (map[string]string, error)
	Delete(ctx context.Context, key string) error
}

// ArtifactRepository хранит сведения об озвученных файлах
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *models.Artifact) error
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewStore создает новое подключение к базе данных
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	logger.Info("успешное подключение к базе данных PostgreSQL")

	return newStore(db, logger), nil
}

func newStore(db *pgxpool.Pool, logger *zap.Logger) *store {
	return &store{
		db:         db,
		logger:     logger,
		conversion: NewConversionRepository(db, logger),
		artifact:   NewArtifactRepository(db, logger),
	}
}

// Conversion возвращает репозиторий словаря замен
func (s *store) Conversion() ConversionRepository {
	return s.conversion
}

// Artifact возвращает репозиторий аудиофайлов
func (s *store) Artifact() ArtifactRepository {
	return s.artifact
}

// DB возвращает подключение к базе данных
func (s *store) DB() *pgxpool.Pool {
	return s.db
}

// Close закрывает подключение к базе данных
func (s *store) Close() error {
	s.logger.Info("закрытие подключения к базе данных")
	s.db.Close()
	return nil
}
