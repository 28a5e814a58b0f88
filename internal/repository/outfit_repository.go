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

// PostgresOutfitRepository implements domain.OutfitRepository using
// PostgreSQL. Outfit headers and their membership rows always commit in
// one transaction, so readers never observe a partial write.
type PostgresOutfitRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOutfitRepository creates a new outfit repository
func NewPostgresOutfitRepository(db *sql.DB, logger *slog.Logger) *PostgresOutfitRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOutfitRepository{db: db, logger: logger}
}

// Insert persists the outfit header and its full membership set in one
// transaction, then reloads the populated outfit from storage.
func (r *PostgresOutfitRepository) Insert(ctx context.Context, ownerID int, name *string, memberIDs []int) (*domain.Outfit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var outfitID int
	query, args, err := psql.Insert("outfits").
		Columns("user_id", "name").
		Values(ownerID, name).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert: %w", err)
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&outfitID); err != nil {
		r.logger.Error("failed to insert outfit",
			slog.Int("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to insert outfit: %w", err)
	}

	if err := insertMembership(ctx, tx, outfitID, memberIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit outfit: %w", err)
	}

	return r.GetByIDAndOwner(ctx, outfitID, ownerID)
}

// ListByOwner returns all outfits of a user with members populated,
// in insertion order.
func (r *PostgresOutfitRepository) ListByOwner(ctx context.Context, ownerID int) ([]*domain.Outfit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM outfits WHERE user_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		r.logger.Error("failed to list outfits",
			slog.Int("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list outfits: %w", err)
	}
	defer rows.Close()

	var outfits []*domain.Outfit
	byID := make(map[int]*domain.Outfit)
	for rows.Next() {
		outfit, err := scanOutfitHeader(rows)
		if err != nil {
			return nil, err
		}
		outfits = append(outfits, outfit)
		byID[outfit.ID] = outfit
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(outfits) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(outfits))
	for _, o := range outfits {
		ids = append(ids, o.ID)
	}
	if err := r.loadMembers(ctx, ids, byID); err != nil {
		return nil, err
	}
	return outfits, nil
}

// GetByIDAndOwner returns the populated outfit, or ErrOutfitNotFound
// when the id is absent or owned by a different user.
func (r *PostgresOutfitRepository) GetByIDAndOwner(ctx context.Context, outfitID, ownerID int) (*domain.Outfit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM outfits WHERE id = $1 AND user_id = $2`, outfitID, ownerID)

	outfit, err := scanOutfitHeader(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOutfitNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadMembers(ctx, []int{outfit.ID}, map[int]*domain.Outfit{outfit.ID: outfit}); err != nil {
		return nil, err
	}
	return outfit, nil
}

// Replace overwrites the outfit name and the entire membership set in
// one transaction, then reloads the populated result.
func (r *PostgresOutfitRepository) Replace(ctx context.Context, outfitID, ownerID int, name *string, memberIDs []int) (*domain.Outfit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := psql.Update("outfits").
		Set("name", name).
		Where(squirrel.Eq{"id": outfitID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update outfit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return nil, domain.ErrOutfitNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outfit_clothing WHERE outfit_id = $1`, outfitID); err != nil {
		return nil, fmt.Errorf("failed to clear outfit membership: %w", err)
	}
	if err := insertMembership(ctx, tx, outfitID, memberIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit outfit update: %w", err)
	}

	return r.GetByIDAndOwner(ctx, outfitID, ownerID)
}

// Delete removes the outfit and its membership rows. Deleting a missing
// or foreign outfit reports false without an error.
func (r *PostgresOutfitRepository) Delete(ctx context.Context, outfitID, ownerID int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM outfit_clothing
		 WHERE outfit_id IN (SELECT id FROM outfits WHERE id = $1 AND user_id = $2)`,
		outfitID, ownerID); err != nil {
		return false, fmt.Errorf("failed to clear outfit membership: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM outfits WHERE id = $1 AND user_id = $2`, outfitID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete outfit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit outfit delete: %w", err)
	}
	return rows > 0, nil
}

// Count returns the number of outfits across all users
func (r *PostgresOutfitRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outfits`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count outfits: %w", err)
	}
	return count, nil
}

// DeleteAll wipes membership rows and outfit headers, in that order
func (r *PostgresOutfitRepository) DeleteAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM outfit_clothing`); err != nil {
		return fmt.Errorf("failed to wipe outfit membership: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM outfits`); err != nil {
		return fmt.Errorf("failed to wipe outfits: %w", err)
	}
	return tx.Commit()
}

func scanOutfitHeader(row interface{ Scan(...any) error }) (*domain.Outfit, error) {
	outfit := &domain.Outfit{}
	var name sql.NullString
	if err := row.Scan(&outfit.ID, &outfit.UserID, &name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan outfit: %w", err)
	}
	if name.Valid {
		outfit.Name = &name.String
	}
	return outfit, nil
}

// insertMembership writes the membership rows for one outfit inside an
// open transaction. Ids are written as a set: a duplicate in memberIDs
// collapses to a single row.
func insertMembership(ctx context.Context, tx *sql.Tx, outfitID int, memberIDs []int) error {
	seen := make(map[int]struct{}, len(memberIDs))
	builder := psql.Insert("outfit_clothing").Columns("outfit_id", "clothing_id")
	count := 0
	for _, id := range memberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		builder = builder.Values(outfitID, id)
		count++
	}
	if count == 0 {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build membership insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert outfit membership: %w", err)
	}
	return nil
}

// loadMembers populates the Clothes slice of each outfit in byID
func (r *PostgresOutfitRepository) loadMembers(ctx context.Context, outfitIDs []int, byID map[int]*domain.Outfit) error {
	query, args, err := psql.Select(
		"oc.outfit_id", "c.id", "c.name", "c.price", "c.color", "c.item_url", "c.image_url", "c.category",
	).
		From("outfit_clothing oc").
		Join("clothing c ON c.id = oc.clothing_id").
		Where(squirrel.Eq{"oc.outfit_id": outfitIDs}).
		OrderBy("oc.outfit_id", "c.id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build members query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load outfit members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outfitID int
		item := &domain.Clothing{}
		var price sql.NullFloat64
		var itemURL, category sql.NullString
		if err := rows.Scan(&outfitID, &item.ID, &item.Name, &price, &item.Color, &itemURL, &item.ImageURL, &category); err != nil {
			return fmt.Errorf("failed to scan outfit member: %w", err)
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
		if outfit, ok := byID[outfitID]; ok {
			outfit.Clothes = append(outfit.Clothes, item)
		}
	}
	return rows.Err()
}
