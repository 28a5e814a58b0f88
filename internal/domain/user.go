package domain

import "context"

// User represents a registered account
type User struct {
	ID           int
	Username     string // unique, case-sensitive
	PasswordHash string // bcrypt
}

// UserStats is the admin view of a user: the account plus how much it owns
type UserStats struct {
	User        *User
	OwnedCount  int
	OutfitCount int
}

// UserRepository defines data access for users and the ownership relation
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int, error)
	ListWithStats(ctx context.Context) ([]*UserStats, error)

	// Ownership relation (user <-> catalog item, no duplicate pairs)
	AssignClothing(ctx context.Context, userID, clothingID int) error
	OwnedClothing(ctx context.Context, userID int) ([]*Clothing, error)
	OwnedClothingIDs(ctx context.Context, userID int) (map[int]struct{}, error)
	DeleteAllOwnership(ctx context.Context) error
}
