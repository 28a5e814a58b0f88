package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/wardrobe/internal/domain"
)

type memClothingRepo struct {
	items map[int]*domain.Clothing
}

func newMemClothingRepo(ids ...int) *memClothingRepo {
	m := &memClothingRepo{items: map[int]*domain.Clothing{}}
	for _, id := range ids {
		m.items[id] = &domain.Clothing{ID: id, Name: "item", ImageURL: "http://img"}
	}
	return m
}

func (m *memClothingRepo) GetByIDs(_ context.Context, ids []int) ([]*domain.Clothing, error) {
	out := []*domain.Clothing{}
	seen := map[int]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := m.items[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memClothingRepo) Insert(_ context.Context, item *domain.Clothing) error {
	if item.ID == 0 {
		item.ID = len(m.items) + 1
	}
	m.items[item.ID] = item
	return nil
}
func (m *memClothingRepo) Exists(_ context.Context, id int) (bool, error) {
	_, ok := m.items[id]
	return ok, nil
}
func (m *memClothingRepo) List(_ context.Context) ([]*domain.Clothing, error) {
	out := []*domain.Clothing{}
	for _, c := range m.items {
		out = append(out, c)
	}
	return out, nil
}
func (m *memClothingRepo) Count(_ context.Context) (int, error) { return len(m.items), nil }
func (m *memClothingRepo) UpdateCategory(_ context.Context, id int, category string) error {
	if c, ok := m.items[id]; ok {
		c.Category = &category
	}
	return nil
}
func (m *memClothingRepo) SyncIDSequence(_ context.Context) error { return nil }
func (m *memClothingRepo) DeleteAll(_ context.Context) error {
	m.items = map[int]*domain.Clothing{}
	return nil
}

type memOutfitRepo struct {
	clothing *memClothingRepo
	outfits  map[int]*domain.Outfit
	nextID   int
}

func newMemOutfitRepo(clothing *memClothingRepo) *memOutfitRepo {
	return &memOutfitRepo{clothing: clothing, outfits: map[int]*domain.Outfit{}, nextID: 1}
}

func (m *memOutfitRepo) materialize(memberIDs []int) []*domain.Clothing {
	out := []*domain.Clothing{}
	for _, id := range memberIDs {
		if c, ok := m.clothing.items[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (m *memOutfitRepo) Insert(_ context.Context, ownerID int, name *string, memberIDs []int) (*domain.Outfit, error) {
	o := &domain.Outfit{ID: m.nextID, UserID: ownerID, Name: name, Clothes: m.materialize(memberIDs)}
	m.outfits[o.ID] = o
	m.nextID++
	return o, nil
}
func (m *memOutfitRepo) ListByOwner(_ context.Context, ownerID int) ([]*domain.Outfit, error) {
	out := []*domain.Outfit{}
	for _, o := range m.outfits {
		if o.UserID == ownerID {
			out = append(out, o)
		}
	}
	return out, nil
}
func (m *memOutfitRepo) GetByIDAndOwner(_ context.Context, outfitID, ownerID int) (*domain.Outfit, error) {
	o, ok := m.outfits[outfitID]
	if !ok || o.UserID != ownerID {
		return nil, domain.ErrOutfitNotFound
	}
	return o, nil
}
func (m *memOutfitRepo) Replace(_ context.Context, outfitID, ownerID int, name *string, memberIDs []int) (*domain.Outfit, error) {
	o, ok := m.outfits[outfitID]
	if !ok || o.UserID != ownerID {
		return nil, domain.ErrOutfitNotFound
	}
	o.Name = name
	o.Clothes = m.materialize(memberIDs)
	return o, nil
}
func (m *memOutfitRepo) Delete(_ context.Context, outfitID, ownerID int) (bool, error) {
	o, ok := m.outfits[outfitID]
	if !ok || o.UserID != ownerID {
		return false, nil
	}
	delete(m.outfits, outfitID)
	return true, nil
}
func (m *memOutfitRepo) Count(_ context.Context) (int, error) { return len(m.outfits), nil }
func (m *memOutfitRepo) DeleteAll(_ context.Context) error {
	m.outfits = map[int]*domain.Outfit{}
	return nil
}

func newOutfitFixture(ids ...int) (*OutfitService, *memOutfitRepo) {
	clothing := newMemClothingRepo(ids...)
	outfits := newMemOutfitRepo(clothing)
	return NewOutfitService(clothing, outfits, nil), outfits
}

func strPtr(s string) *string { return &s }

func TestCreateOutfitDeduplicatesMembers(t *testing.T) {
	s, _ := newOutfitFixture(1, 2, 3)

	outfit, err := s.Create(context.Background(), 1, strPtr("Summer"), []int{1, 2, 2})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(outfit.Clothes) != 2 {
		t.Fatalf("expected 2 members, got %d", len(outfit.Clothes))
	}
}

func TestCreateOutfitRejectsEmptyMembership(t *testing.T) {
	s, outfits := newOutfitFixture(1, 2, 3)

	_, err := s.Create(context.Background(), 1, nil, []int{})
	var cardErr *domain.CardinalityError
	if !errors.As(err, &cardErr) {
		t.Fatalf("expected cardinality error, got %v", err)
	}
	if cardErr.Count != 0 {
		t.Fatalf("expected count 0, got %d", cardErr.Count)
	}
	if n, _ := outfits.Count(context.Background()); n != 0 {
		t.Fatalf("rejected create must not persist, found %d outfits", n)
	}
}

func TestCreateOutfitRejectsTooManyMembers(t *testing.T) {
	ids := make([]int, 0, 16)
	for i := 1; i <= 16; i++ {
		ids = append(ids, i)
	}
	s, _ := newOutfitFixture(ids...)

	_, err := s.Create(context.Background(), 1, nil, ids)
	var cardErr *domain.CardinalityError
	if !errors.As(err, &cardErr) {
		t.Fatalf("expected cardinality error, got %v", err)
	}
	if cardErr.Count != 16 {
		t.Fatalf("expected count 16, got %d", cardErr.Count)
	}
}

func TestCreateOutfitReportsMissingItems(t *testing.T) {
	s, outfits := newOutfitFixture(1, 2)

	_, err := s.Create(context.Background(), 1, nil, []int{1, 99})
	var missing *domain.MissingItemsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing items error, got %v", err)
	}
	if len(missing.IDs) != 1 || missing.IDs[0] != 99 {
		t.Fatalf("expected missing ids [99], got %v", missing.IDs)
	}
	if n, _ := outfits.Count(context.Background()); n != 0 {
		t.Fatalf("rejected create must not persist, found %d outfits", n)
	}
}

func TestCreateOutfitMissingWinsOverCardinality(t *testing.T) {
	// A request that is both over-long and partially unresolvable
	// reports the unresolvable ids, not the count.
	s, _ := newOutfitFixture(1, 2)

	ids := make([]int, 0, 16)
	for i := 1; i <= 16; i++ {
		ids = append(ids, i)
	}
	_, err := s.Create(context.Background(), 1, nil, ids)
	var missing *domain.MissingItemsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing items error, got %v", err)
	}
}

func TestUpdateOutfitReplacesMembership(t *testing.T) {
	s, _ := newOutfitFixture(1, 2, 3, 4)

	created, err := s.Create(context.Background(), 1, strPtr("Old"), []int{1, 2})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := s.Update(context.Background(), created.ID, 1, strPtr("New"), []int{3, 4})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name == nil || *updated.Name != "New" {
		t.Fatalf("expected renamed outfit, got %v", updated.Name)
	}
	got := map[int]bool{}
	for _, c := range updated.Clothes {
		got[c.ID] = true
	}
	if len(got) != 2 || !got[3] || !got[4] {
		t.Fatalf("expected membership replaced with {3, 4}, got %v", got)
	}
}

func TestUpdateOutfitRevalidatesMembership(t *testing.T) {
	s, _ := newOutfitFixture(1, 2)

	created, err := s.Create(context.Background(), 1, nil, []int{1, 2})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := s.Update(context.Background(), created.ID, 1, nil, []int{}); err == nil {
		t.Fatalf("expected empty membership to be rejected on update")
	}

	// Failed update leaves the outfit untouched
	current, err := s.Get(context.Background(), created.ID, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(current.Clothes) != 2 {
		t.Fatalf("expected original membership intact, got %d members", len(current.Clothes))
	}
}

func TestUpdateForeignOutfitNotFound(t *testing.T) {
	s, _ := newOutfitFixture(1, 2)

	created, err := s.Create(context.Background(), 1, nil, []int{1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = s.Update(context.Background(), created.ID, 2, nil, []int{2})
	if !errors.Is(err, domain.ErrOutfitNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
}

func TestDeleteOutfitIdempotent(t *testing.T) {
	s, _ := newOutfitFixture(1)

	created, err := s.Create(context.Background(), 1, nil, []int{1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := s.Delete(context.Background(), created.ID, 1)
	if err != nil || !deleted {
		t.Fatalf("expected first delete to succeed, got deleted=%v err=%v", deleted, err)
	}

	deleted, err = s.Delete(context.Background(), created.ID, 1)
	if err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
	if deleted {
		t.Fatalf("second delete must report false")
	}
}

func TestDeleteForeignOutfitReportsFalse(t *testing.T) {
	s, outfits := newOutfitFixture(1)

	created, err := s.Create(context.Background(), 1, nil, []int{1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := s.Delete(context.Background(), created.ID, 2)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted {
		t.Fatalf("foreign delete must report false")
	}
	if _, err := outfits.GetByIDAndOwner(context.Background(), created.ID, 1); err != nil {
		t.Fatalf("outfit should still exist: %v", err)
	}
}

func TestListOutfitsScopedToOwner(t *testing.T) {
	s, _ := newOutfitFixture(1, 2)

	if _, err := s.Create(context.Background(), 1, nil, []int{1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create(context.Background(), 2, nil, []int{2}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	mine, err := s.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected 1 outfit for owner 1, got %d", len(mine))
	}
	if mine[0].UserID != 1 {
		t.Fatalf("listed a foreign outfit")
	}
}
