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

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

// Create creates a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	query, args, err := psql.Insert("users").
		Columns("username", "password_hash").
		Values(user.Username, user.PasswordHash).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		r.logger.Error("failed to create user",
			slog.String("username", user.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username (case-sensitive)
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// List returns all users in registration order
func (r *PostgresUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, password_hash FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count returns the number of registered users
func (r *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ListWithStats returns every user with owned-item and outfit counts
func (r *PostgresUserRepository) ListWithStats(ctx context.Context) ([]*domain.UserStats, error) {
	query := `
		SELECT u.id, u.username, u.password_hash,
			(SELECT COUNT(*) FROM user_clothing uc WHERE uc.user_id = u.id),
			(SELECT COUNT(*) FROM outfits o WHERE o.user_id = u.id)
		FROM users u
		ORDER BY u.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list users with stats", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users with stats: %w", err)
	}
	defer rows.Close()

	var stats []*domain.UserStats
	for rows.Next() {
		user := &domain.User{}
		entry := &domain.UserStats{User: user}
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &entry.OwnedCount, &entry.OutfitCount); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		stats = append(stats, entry)
	}
	return stats, rows.Err()
}

// AssignClothing records ownership of a catalog item. Re-assigning an
// already-owned item is a no-op rather than an error.
func (r *PostgresUserRepository) AssignClothing(ctx context.Context, userID, clothingID int) error {
	query, args, err := psql.Insert("user_clothing").
		Columns("user_id", "clothing_id").
		Values(userID, clothingID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to assign clothing",
			slog.Int("user_id", userID),
			slog.Int("clothing_id", clothingID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to assign clothing: %w", err)
	}
	return nil
}

// OwnedClothing returns the catalog items a user owns
func (r *PostgresUserRepository) OwnedClothing(ctx context.Context, userID int) ([]*domain.Clothing, error) {
	query, args, err := psql.Select(
		"c.id", "c.name", "c.price", "c.color", "c.item_url", "c.image_url", "c.category",
	).
		From("clothing c").
		Join("user_clothing uc ON uc.clothing_id = c.id").
		Where(squirrel.Eq{"uc.user_id": userID}).
		OrderBy("c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned clothing: %w", err)
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

// OwnedClothingIDs returns the set of catalog ids a user owns
func (r *PostgresUserRepository) OwnedClothingIDs(ctx context.Context, userID int) (map[int]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT clothing_id FROM user_clothing WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned ids: %w", err)
	}
	defer rows.Close()

	owned := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owned id: %w", err)
		}
		owned[id] = struct{}{}
	}
	return owned, rows.Err()
}

// DeleteAllOwnership clears the ownership relation for every user
func (r *PostgresUserRepository) DeleteAllOwnership(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_clothing`); err != nil {
		return fmt.Errorf("failed to wipe ownership: %w", err)
	}
	return nil
}
