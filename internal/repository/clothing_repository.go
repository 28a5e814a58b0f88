package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"

	"github.com/yourorg/wardrobe/internal/domain"
)

// psql builds queries with Postgres-style $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var clothingColumns = []string{"id", "name", "price", "color", "item_url", "image_url", "category"}

// PostgresClothingRepository implements domain.ClothingRepository using PostgreSQL
type PostgresClothingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresClothingRepository creates a new catalog repository
func NewPostgresClothingRepository(db *sql.DB, logger *slog.Logger) *PostgresClothingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresClothingRepository{db: db, logger: logger}
}

func scanClothing(row interface{ Scan(...any) error }) (*domain.Clothing, error) {
	item := &domain.Clothing{}
	var price sql.NullFloat64
	var itemURL, category sql.NullString

	err := row.Scan(&item.ID, &item.Name, &price, &item.Color, &itemURL, &item.ImageURL, &category)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		item.Price = &price.Float64
	}
	if itemURL.Valid {
		item.ItemURL = &itemURL.String
	}
	if category.Valid {
		item.Category = &category.String
	}
	return item, nil
}

// GetByIDs returns the catalog items that exist among the requested ids.
// Callers diff requested against returned ids to detect missing ones.
func (r *PostgresClothingRepository) GetByIDs(ctx context.Context, ids []int) ([]*domain.Clothing, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := psql.Select(clothingColumns...).
		From("clothing").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query clothing by ids", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get clothing items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Clothing
	for rows.Next() {
		item, err := scanClothing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clothing row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Insert creates a catalog item. A non-zero ID is honored as-is so the
// bulk import can keep the ids of its source data.
func (r *PostgresClothingRepository) Insert(ctx context.Context, item *domain.Clothing) error {
	builder := psql.Insert("clothing")

	values := map[string]interface{}{
		"name":      item.Name,
		"price":     item.Price,
		"color":     item.Color,
		"item_url":  item.ItemURL,
		"image_url": item.ImageURL,
		"category":  item.Category,
	}
	if item.ID != 0 {
		values["id"] = item.ID
	}

	query, args, err := builder.SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
		r.logger.Error("failed to insert clothing",
			slog.String("name", item.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to insert clothing: %w", err)
	}
	return nil
}

// Exists reports whether a catalog item with the given id exists
func (r *PostgresClothingRepository) Exists(ctx context.Context, id int) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM clothing WHERE id = $1`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check clothing existence: %w", err)
	}
	return true, nil
}

// List returns the whole catalog in id order
func (r *PostgresClothingRepository) List(ctx context.Context) ([]*domain.Clothing, error) {
	query, args, err := psql.Select(clothingColumns...).
		From("clothing").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list clothing", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list clothing: %w", err)
	}
	defer rows.Close()

	var items []*domain.Clothing
	for rows.Next() {
		item, err := scanClothing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clothing row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of catalog items
func (r *PostgresClothingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clothing`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clothing: %w", err)
	}
	return count, nil
}

// UpdateCategory back-fills the category of an existing item
func (r *PostgresClothingRepository) UpdateCategory(ctx context.Context, id int, category string) error {
	query, args, err := psql.Update("clothing").
		Set("category", category).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("clothing item %d not found", id)
	}
	return nil
}

// SyncIDSequence moves the clothing id sequence past the highest id in
// use, so serial inserts don't collide with explicitly imported ids.
func (r *PostgresClothingRepository) SyncIDSequence(ctx context.Context) error {
	var maxID int
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM clothing`).Scan(&maxID); err != nil {
		return fmt.Errorf("failed to read max clothing id: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `SELECT setval('clothing_id_seq', $1)`, maxID+1); err != nil {
		return fmt.Errorf("failed to update clothing id sequence: %w", err)
	}
	return nil
}

// DeleteAll wipes the catalog. Callers must clear the ownership and
// outfit-membership relations first; there is no cascading delete.
func (r *PostgresClothingRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM clothing`); err != nil {
		return fmt.Errorf("failed to wipe catalog: %w", err)
	}
	return nil
}
