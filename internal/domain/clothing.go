package domain

import "context"

// Clothing represents a single catalog item. IDs may be assigned
// externally by the bulk import, so they are plain integers rather
// than generated UUIDs.
type Clothing struct {
	ID       int
	Name     string
	Price    *float64 // nil when the source listing had no price
	Color    string
	ItemURL  *string
	ImageURL string
	Category *string // back-filled later, nil until then
}

// ClothingRepository defines data access for the clothing catalog
type ClothingRepository interface {
	GetByIDs(ctx context.Context, ids []int) ([]*Clothing, error)
	Insert(ctx context.Context, item *Clothing) error
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context) ([]*Clothing, error)
	Count(ctx context.Context) (int, error)
	UpdateCategory(ctx context.Context, id int, category string) error
	// SyncIDSequence bumps the id sequence past the highest imported id
	// so later inserts don't collide with explicitly assigned ones.
	SyncIDSequence(ctx context.Context) error
	DeleteAll(ctx context.Context) error
}
