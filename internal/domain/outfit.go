package domain

import "context"

// Membership bounds for a single outfit. Enforced at write time; a
// persisted outfit never violates them.
const (
	MinOutfitItems = 1
	MaxOutfitItems = 15
)

// Outfit is a named set of catalog items owned by one user. The owner
// is immutable once set. Clothes holds the populated membership set;
// an outfit handed to callers always has it loaded.
type Outfit struct {
	ID      int
	UserID  int
	Name    *string // optional
	Clothes []*Clothing
}

// OutfitRepository defines data access for outfits and their membership
// relation. The header and the membership set always commit together;
// no partial write is ever visible to readers.
type OutfitRepository interface {
	// Insert persists a new outfit with its full membership set and
	// returns it reloaded from storage, members populated.
	Insert(ctx context.Context, ownerID int, name *string, memberIDs []int) (*Outfit, error)
	// ListByOwner returns all outfits of a user, members populated.
	ListByOwner(ctx context.Context, ownerID int) ([]*Outfit, error)
	// GetByIDAndOwner returns ErrOutfitNotFound when the outfit does
	// not exist or belongs to someone else.
	GetByIDAndOwner(ctx context.Context, outfitID, ownerID int) (*Outfit, error)
	// Replace overwrites the name and the entire membership set
	// atomically. ErrOutfitNotFound when no (id, owner) row matches.
	Replace(ctx context.Context, outfitID, ownerID int, name *string, memberIDs []int) (*Outfit, error)
	// Delete reports whether a row was removed. A miss is false, not
	// an error.
	Delete(ctx context.Context, outfitID, ownerID int) (bool, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
