package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/security/audit"
	"github.com/yourorg/wardrobe/internal/service"
)

type fakeClothingRepo struct {
	items map[int]*domain.Clothing
}

func (f *fakeClothingRepo) GetByIDs(_ context.Context, ids []int) ([]*domain.Clothing, error) {
	out := []*domain.Clothing{}
	seen := map[int]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := f.items[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeClothingRepo) Insert(_ context.Context, item *domain.Clothing) error {
	f.items[item.ID] = item
	return nil
}
func (f *fakeClothingRepo) Exists(_ context.Context, id int) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}
func (f *fakeClothingRepo) List(_ context.Context) ([]*domain.Clothing, error) { return nil, nil }
func (f *fakeClothingRepo) Count(_ context.Context) (int, error)               { return len(f.items), nil }
func (f *fakeClothingRepo) UpdateCategory(_ context.Context, _ int, _ string) error {
	return nil
}
func (f *fakeClothingRepo) SyncIDSequence(_ context.Context) error { return nil }
func (f *fakeClothingRepo) DeleteAll(_ context.Context) error      { return nil }

type fakeOutfitRepo struct {
	clothing *fakeClothingRepo
	outfits  map[int]*domain.Outfit
	nextID   int
}

func (f *fakeOutfitRepo) materialize(ids []int) []*domain.Clothing {
	out := []*domain.Clothing{}
	for _, id := range ids {
		if c, ok := f.clothing.items[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
func (f *fakeOutfitRepo) Insert(_ context.Context, ownerID int, name *string, memberIDs []int) (*domain.Outfit, error) {
	o := &domain.Outfit{ID: f.nextID, UserID: ownerID, Name: name, Clothes: f.materialize(memberIDs)}
	f.outfits[o.ID] = o
	f.nextID++
	return o, nil
}
func (f *fakeOutfitRepo) ListByOwner(_ context.Context, ownerID int) ([]*domain.Outfit, error) {
	out := []*domain.Outfit{}
	for _, o := range f.outfits {
		if o.UserID == ownerID {
			out = append(out, o)
		}
	}
	return out, nil
}
func (f *fakeOutfitRepo) GetByIDAndOwner(_ context.Context, outfitID, ownerID int) (*domain.Outfit, error) {
	o, ok := f.outfits[outfitID]
	if !ok || o.UserID != ownerID {
		return nil, domain.ErrOutfitNotFound
	}
	return o, nil
}
func (f *fakeOutfitRepo) Replace(_ context.Context, outfitID, ownerID int, name *string, memberIDs []int) (*domain.Outfit, error) {
	o, ok := f.outfits[outfitID]
	if !ok || o.UserID != ownerID {
		return nil, domain.ErrOutfitNotFound
	}
	o.Name = name
	o.Clothes = f.materialize(memberIDs)
	return o, nil
}
func (f *fakeOutfitRepo) Delete(_ context.Context, outfitID, ownerID int) (bool, error) {
	o, ok := f.outfits[outfitID]
	if !ok || o.UserID != ownerID {
		return false, nil
	}
	delete(f.outfits, outfitID)
	return true, nil
}
func (f *fakeOutfitRepo) Count(_ context.Context) (int, error) { return len(f.outfits), nil }
func (f *fakeOutfitRepo) DeleteAll(_ context.Context) error    { return nil }

type fakeUserRepo struct {
	byUsername map[string]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	f.byUsername[u.Username] = u
	return nil
}
func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*domain.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}
func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}
func (f *fakeUserRepo) List(_ context.Context) ([]*domain.User, error)  { return nil, nil }
func (f *fakeUserRepo) Count(_ context.Context) (int, error)            { return len(f.byUsername), nil }
func (f *fakeUserRepo) ListWithStats(_ context.Context) ([]*domain.UserStats, error) {
	return nil, nil
}
func (f *fakeUserRepo) AssignClothing(_ context.Context, _, _ int) error { return nil }
func (f *fakeUserRepo) OwnedClothing(_ context.Context, _ int) ([]*domain.Clothing, error) {
	return nil, nil
}
func (f *fakeUserRepo) OwnedClothingIDs(_ context.Context, _ int) (map[int]struct{}, error) {
	return map[int]struct{}{}, nil
}
func (f *fakeUserRepo) DeleteAllOwnership(_ context.Context) error { return nil }

// newSocketFixture spins up a test server with a seeded catalog and
// two users, and dials the outfit websocket.
func newSocketFixture(t *testing.T, catalogIDs ...int) *websocket.Conn {
	t.Helper()

	clothing := &fakeClothingRepo{items: map[int]*domain.Clothing{}}
	for _, id := range catalogIDs {
		category := "obuv"
		clothing.items[id] = &domain.Clothing{ID: id, Name: "item", ImageURL: "http://img", Category: &category}
	}
	outfits := &fakeOutfitRepo{clothing: clothing, outfits: map[int]*domain.Outfit{}, nextID: 1}
	users := &fakeUserRepo{byUsername: map[string]*domain.User{
		"alice": {ID: 1, Username: "alice"},
		"bob":   {ID: 2, Username: "bob"},
	}}

	outfitService := service.NewOutfitService(clothing, outfits, nil)
	h := NewOutfitSocketHandler(outfitService, users, audit.NewLogger(nil), nil, nil, 5*time.Second)

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg map[string]interface{}) map[string]interface{} {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply map[string]interface{}
	if err := ws.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return reply
}

func expectError(t *testing.T, reply map[string]interface{}, message string) {
	t.Helper()
	if reply["type"] != "error" {
		t.Fatalf("expected error reply, got %v", reply)
	}
	if reply["message"] != message {
		t.Fatalf("expected message %q, got %q", message, reply["message"])
	}
}

func TestSocketCreateOutfit(t *testing.T) {
	ws := newSocketFixture(t, 1, 2, 3)

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"name": "Summer", "item_ids": []int{1, 2}},
	})

	if reply["type"] != "outfit_created" {
		t.Fatalf("expected outfit_created, got %v", reply)
	}
	outfit := reply["outfit"].(map[string]interface{})
	if outfit["name"] != "Summer" {
		t.Fatalf("expected name Summer, got %v", outfit["name"])
	}
	items := outfit["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 inlined items, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	for _, field := range []string{"id", "name", "image_url", "category"} {
		if _, ok := first[field]; !ok {
			t.Fatalf("item view missing field %s: %v", field, first)
		}
	}
}

func TestSocketCreateMissingItems(t *testing.T) {
	ws := newSocketFixture(t, 1)

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"item_ids": []int{1, 99}},
	})

	wantErr := domain.MissingItemsError{IDs: []int{99}}
	expectError(t, reply, wantErr.Error())

	// Connection survives a rejected request
	reply = roundTrip(t, ws, map[string]interface{}{"type": "get_outfits", "username": "alice"})
	if reply["type"] != "outfits_list" {
		t.Fatalf("connection should stay usable after rejection, got %v", reply)
	}
}

func TestSocketCreateEmptyMembership(t *testing.T) {
	ws := newSocketFixture(t, 1)

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"item_ids": []int{}},
	})

	wantErr := domain.CardinalityError{Count: 0}
	expectError(t, reply, wantErr.Error())
}

func TestSocketCreateWithoutPayload(t *testing.T) {
	ws := newSocketFixture(t, 1)

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
	})
	expectError(t, reply, "Invalid outfit data format")
}

func TestSocketUnauthenticated(t *testing.T) {
	ws := newSocketFixture(t, 1)

	reply := roundTrip(t, ws, map[string]interface{}{"type": "get_outfits"})
	expectError(t, reply, "User not authenticated")
}

func TestSocketUnknownUser(t *testing.T) {
	ws := newSocketFixture(t, 1)

	reply := roundTrip(t, ws, map[string]interface{}{"type": "get_outfits", "username": "mallory"})
	expectError(t, reply, "User not found")
}

func TestSocketUnknownMessageType(t *testing.T) {
	ws := newSocketFixture(t, 1)

	reply := roundTrip(t, ws, map[string]interface{}{"type": "dance", "username": "alice"})
	expectError(t, reply, "Unknown message type: dance")
}

func TestSocketInvalidJSONClosesConnection(t *testing.T) {
	ws := newSocketFixture(t, 1)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply map[string]interface{}
	if err := ws.ReadJSON(&reply); err != nil {
		t.Fatalf("expected an error reply before close: %v", err)
	}
	expectError(t, reply, "Invalid JSON format")

	// The server hangs up after an undecodable frame
	if err := ws.ReadJSON(&reply); err == nil {
		t.Fatalf("expected connection to be closed, got %v", reply)
	}
}

func TestSocketUpdateOutfit(t *testing.T) {
	ws := newSocketFixture(t, 1, 2, 3)

	created := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"name": "Old", "item_ids": []int{1}},
	})
	outfitID := int(created["outfit"].(map[string]interface{})["id"].(float64))

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":      "update_outfit",
		"username":  "alice",
		"outfit_id": outfitID,
		"outfit":    map[string]interface{}{"name": "New", "item_ids": []int{2, 3}},
	})
	if reply["type"] != "outfit_updated" {
		t.Fatalf("expected outfit_updated, got %v", reply)
	}
	outfit := reply["outfit"].(map[string]interface{})
	items := outfit["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected membership replaced with 2 items, got %d", len(items))
	}
}

func TestSocketUpdateForeignOutfit(t *testing.T) {
	ws := newSocketFixture(t, 1, 2)

	created := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"item_ids": []int{1}},
	})
	outfitID := int(created["outfit"].(map[string]interface{})["id"].(float64))

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":      "update_outfit",
		"username":  "bob",
		"outfit_id": outfitID,
		"outfit":    map[string]interface{}{"item_ids": []int{2}},
	})
	expectError(t, reply, "Outfit not found or access denied")
}

func TestSocketDeleteOutfit(t *testing.T) {
	ws := newSocketFixture(t, 1)

	created := roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"item_ids": []int{1}},
	})
	outfitID := int(created["outfit"].(map[string]interface{})["id"].(float64))

	reply := roundTrip(t, ws, map[string]interface{}{
		"type":      "delete_outfit",
		"username":  "alice",
		"outfit_id": outfitID,
	})
	if reply["type"] != "outfit_deleted" {
		t.Fatalf("expected outfit_deleted, got %v", reply)
	}
	if int(reply["outfit_id"].(float64)) != outfitID {
		t.Fatalf("expected outfit_id %d echoed, got %v", outfitID, reply["outfit_id"])
	}

	// Deleting again reports the miss
	reply = roundTrip(t, ws, map[string]interface{}{
		"type":      "delete_outfit",
		"username":  "alice",
		"outfit_id": outfitID,
	})
	expectError(t, reply, "Outfit not found or access denied")
}

func TestSocketGetOutfits(t *testing.T) {
	ws := newSocketFixture(t, 1, 2)

	roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "alice",
		"outfit":   map[string]interface{}{"item_ids": []int{1}},
	})
	roundTrip(t, ws, map[string]interface{}{
		"type":     "create_outfit",
		"username": "bob",
		"outfit":   map[string]interface{}{"item_ids": []int{2}},
	})

	reply := roundTrip(t, ws, map[string]interface{}{"type": "get_outfits", "username": "alice"})
	if reply["type"] != "outfits_list" {
		t.Fatalf("expected outfits_list, got %v", reply)
	}
	outfits := reply["outfits"].([]interface{})
	if len(outfits) != 1 {
		t.Fatalf("expected only alice's outfit, got %d", len(outfits))
	}
}

func TestEnvelopeDecoding(t *testing.T) {
	raw := `{"type":"create_outfit","username":"alice","outfit":{"name":null,"item_ids":[1,2]}}`
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if env.Type != KindCreateOutfit {
		t.Fatalf("expected create_outfit, got %s", env.Type)
	}
	if env.Outfit == nil || env.Outfit.Name != nil {
		t.Fatalf("expected payload with null name")
	}
	if len(env.Outfit.ItemIDs) != 2 {
		t.Fatalf("expected 2 item ids, got %d", len(env.Outfit.ItemIDs))
	}
}
