package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-arcade/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CategoryLoader loads category JSONB from Postgres.
type CategoryLoader struct {
	pool *pgxpool.Pool
}

func NewCategoryLoader(pool *pgxpool.Pool) *CategoryLoader {
	return &CategoryLoader{pool: pool}
}

func (l *CategoryLoader) LoadCategory(ctx context.Context, id string) (domain.Category, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quiz_categories WHERE id=$1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Category{}, domain.ErrCategoryNotFound
		}
		return domain.Category{}, fmt.Errorf("load category: %w", err)
	}
	var category domain.Category
	if err := json.Unmarshal(raw, &category); err != nil {
		return domain.Category{}, fmt.Errorf("unmarshal category: %w", err)
	}
	category.ID = id
	return category, nil
}
