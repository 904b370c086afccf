package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-reader/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrArtifactNotFound возвращается, если аудиофайла нет в базе
var ErrArtifactNotFound = errors.New("аудиофайл не найден")

// PostgresArtifactRepository реализует ArtifactRepository для PostgreSQL
type PostgresArtifactRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewArtifactRepository создает новый репозиторий аудиофайлов
func NewArtifactRepository(db *pgxpool.Pool, logger *zap.Logger) ArtifactRepository {
	return &PostgresArtifactRepository{
		db:     db,
		logger: logger,
	}
}

// Create сохраняет сведения об аудиофайле
func (r *PostgresArtifactRepository) Create(ctx context.Context, a *models.Artifact) error {
	query := `
		INSERT INTO audio_artifacts (id, document, path, voice, speed, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(ctx, query, a.ID, a.Document, a.Path, a.Voice, a.Speed, a.Size, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения аудиофайла: %w", err)
	}

	r.logger.Debug("аудиофайл сохранен в базе данных",
		zap.String("id", a.ID),
		zap.String("document", a.Document))
	return nil
}

// GetByID возвращает аудиофайл по идентификатору
func (r *PostgresArtifactRepository) GetByID(ctx context.Context, id string) (*models.Artifact, error) {
	query := `
		SELECT id, document, path, voice, speed, size, created_at
		FROM audio_artifacts WHERE id = $1`

	a := &models.Artifact{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Document, &a.Path, &a.Voice, &a.Speed, &a.Size, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("ошибка получения аудиофайла: %w", err)
	}

	return a, nil
}

// DeleteOlderThan удаляет записи, созданные раньше cutoff
func (r *PostgresArtifactRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM audio_artifacts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления старых аудиофайлов: %w", err)
	}

	r.logger.Info("старые записи аудиофайлов удалены",
		zap.Int64("count", result.RowsAffected()),
		zap.Time("cutoff", cutoff))
	return result.RowsAffected(), nil
}
