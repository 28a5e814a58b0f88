package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOutfitNotFound covers both a missing outfit id and an outfit owned
// by a different user. The two cases are deliberately indistinguishable
// to callers.
var ErrOutfitNotFound = errors.New("outfit not found")

// ErrUserNotFound is returned when a username or user id does not resolve
var ErrUserNotFound = errors.New("user not found")

// MissingItemsError reports catalog ids that do not resolve. The whole
// operation fails; nothing is persisted.
type MissingItemsError struct {
	IDs []int
}

func (e *MissingItemsError) Error() string {
	ids := make([]int, len(e.IDs))
	copy(ids, e.IDs)
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("clothing items not found: {%s}", strings.Join(parts, ", "))
}

// CardinalityError reports a membership count outside [MinOutfitItems, MaxOutfitItems]
type CardinalityError struct {
	Count int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("outfit must contain between %d and %d clothing items, got %d",
		MinOutfitItems, MaxOutfitItems, e.Count)
}
