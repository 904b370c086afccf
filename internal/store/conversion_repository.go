package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresConversionRepository реализует ConversionRepository для PostgreSQL
type PostgresConversionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewConversionRepository создает новый репозиторий словаря замен
func NewConversionRepository(db *pgxpool.Pool, logger *zap.Logger) ConversionRepository {
	return &PostgresConversionRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertMany сохраняет пары одной транзакцией
func (r *PostgresConversionRepository) UpsertMany(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	query := `
		INSERT INTO text_conversions (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	keys := sortedKeys(pairs)

	batch := &pgx.Batch{}
	for _, k := range keys {
		batch.Queue(query, k, pairs[k], now)
	}

	br := tx.SendBatch(ctx, batch)
	for range keys {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("ошибка сохранения замены: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("ошибка завершения пакета замен: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	r.logger.Info("словарь замен сохранен в базе данных", zap.Int("count", len(pairs)))
	return nil
}

// GetAll возвращает весь словарь замен
func (r *PostgresConversionRepository) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM text_conversions`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения словаря замен: %w", err)
	}
	defer rows.Close()

	pairs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("ошибка сканирования замены: %w", err)
		}
		pairs[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения словаря замен: %w", err)
	}

	return pairs, nil
}

// Delete удаляет ключ из словаря
func (r *PostgresConversionRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM text_conversions WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления замены: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("замена %q не найдена", key)
	}
	return nil
}

// sortedKeys дает стабильный порядок вставки, чтобы транзакции не блокировали друг друга
func sortedKeys(pairs map[string]string) []string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
