package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourorg/wardrobe/internal/domain"
)

func newAdminFixture(catalogIDs ...int) (*AdminService, *memClothingRepo, *memUserRepo, *memOutfitRepo) {
	clothing := newMemClothingRepo(catalogIDs...)
	users := newMemUserRepo(clothing)
	outfits := newMemOutfitRepo(clothing)
	views := NewCatalogService(clothing, users, nil, map[string]string{}, time.Minute, time.Minute, nil)
	admin := NewAdminService(clothing, users, outfits, views, nil)
	return admin, clothing, users, outfits
}

func TestImportFromFile(t *testing.T) {
	admin, clothing, _, _ := newAdminFixture()

	dump := `{
		"1": {"name": "Куртка", "color": "black", "price": "2 999 ₽", "image_url": "http://img/1", "item_url": "http://shop/1"},
		"2": {"name": "Кеды", "color": "white", "price": "", "image_url": "http://img/2", "item_url": ""},
		"abc": {"name": "bad key", "color": "", "price": "", "image_url": "", "item_url": ""}
	}`
	path := filepath.Join(t.TempDir(), "raw.txt")
	if err := os.WriteFile(path, []byte(dump), 0644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	result, err := admin.ImportFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 1 {
		t.Fatalf("expected 2 imported, 1 skipped, got %+v", result)
	}

	item := clothing.items[1]
	if item == nil {
		t.Fatalf("item 1 not imported")
	}
	if item.Price == nil || *item.Price != 2999 {
		t.Fatalf("expected price 2999, got %v", item.Price)
	}
	if item.ItemURL == nil || *item.ItemURL != "http://shop/1" {
		t.Fatalf("expected item url preserved, got %v", item.ItemURL)
	}
	if clothing.items[2].Price != nil {
		t.Fatalf("empty price must import as absent")
	}

	// A second import of the same dump skips everything
	result, err = admin.ImportFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if result.Imported != 0 || result.Skipped != 3 {
		t.Fatalf("expected re-import to skip all, got %+v", result)
	}
}

func TestImportFromFileMissing(t *testing.T) {
	admin, _, _, _ := newAdminFixture()
	if _, err := admin.ImportFromFile(context.Background(), "/nonexistent/raw.txt"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAssignRandom(t *testing.T) {
	admin, _, users, _ := newAdminFixture(1, 2, 3, 4, 5)
	users.Create(context.Background(), &domain.User{Username: "alice"})

	n, err := admin.AssignRandom(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 assignments, got %d", n)
	}
	owned, _ := users.OwnedClothingIDs(context.Background(), 1)
	if len(owned) != 3 {
		t.Fatalf("expected 3 owned items, got %d", len(owned))
	}

	// Asking for more than remains unowned fails without changes
	if _, err := admin.AssignRandom(context.Background(), 1, 3); err == nil {
		t.Fatalf("expected not-enough-available error")
	}
	owned, _ = users.OwnedClothingIDs(context.Background(), 1)
	if len(owned) != 3 {
		t.Fatalf("failed assign must not change ownership, got %d", len(owned))
	}
}

func TestAssignRandomUnknownUser(t *testing.T) {
	admin, _, _, _ := newAdminFixture(1, 2)
	if _, err := admin.AssignRandom(context.Background(), 42, 1); err == nil {
		t.Fatalf("expected unknown user error")
	}
}

func TestAssignRandomAllCapsAtAvailable(t *testing.T) {
	admin, _, users, _ := newAdminFixture(1, 2, 3)
	users.Create(context.Background(), &domain.User{Username: "alice"})
	users.Create(context.Background(), &domain.User{Username: "bob"})
	users.AssignClothing(context.Background(), 1, 1)
	users.AssignClothing(context.Background(), 1, 2)

	n, err := admin.AssignRandomAll(context.Background(), 2)
	if err != nil {
		t.Fatalf("assign all failed: %v", err)
	}
	// alice can only take item 3, bob takes two
	if n != 3 {
		t.Fatalf("expected 3 total assignments, got %d", n)
	}
	aliceOwned, _ := users.OwnedClothingIDs(context.Background(), 1)
	if len(aliceOwned) != 3 {
		t.Fatalf("expected alice to own the whole catalog, got %d", len(aliceOwned))
	}
}

func TestResets(t *testing.T) {
	admin, clothing, users, outfits := newAdminFixture(1, 2)
	users.Create(context.Background(), &domain.User{Username: "alice"})
	users.AssignClothing(context.Background(), 1, 1)
	outfits.Insert(context.Background(), 1, nil, []int{1})

	if err := admin.ResetOutfits(context.Background()); err != nil {
		t.Fatalf("reset outfits failed: %v", err)
	}
	if n, _ := outfits.Count(context.Background()); n != 0 {
		t.Fatalf("expected no outfits after reset, got %d", n)
	}

	if err := admin.ResetCatalog(context.Background()); err != nil {
		t.Fatalf("reset catalog failed: %v", err)
	}
	if n, _ := clothing.Count(context.Background()); n != 0 {
		t.Fatalf("expected empty catalog after reset, got %d", n)
	}
	owned, _ := users.OwnedClothingIDs(context.Background(), 1)
	if len(owned) != 0 {
		t.Fatalf("catalog reset must clear ownership, got %d", len(owned))
	}
}
