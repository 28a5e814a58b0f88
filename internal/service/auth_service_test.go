package service

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/security/auth"
)

type memUserRepo struct {
	byID       map[int]*domain.User
	byUsername map[string]*domain.User
	owned      map[int]map[int]struct{}
	clothing   *memClothingRepo
	nextID     int
}

func newMemUserRepo(clothing *memClothingRepo) *memUserRepo {
	return &memUserRepo{
		byID:       map[int]*domain.User{},
		byUsername: map[string]*domain.User{},
		owned:      map[int]map[int]struct{}{},
		clothing:   clothing,
		nextID:     1,
	}
}

func (m *memUserRepo) Create(_ context.Context, u *domain.User) error {
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	}
	m.byID[u.ID] = u
	m.byUsername[u.Username] = u
	return nil
}
func (m *memUserRepo) GetByID(_ context.Context, id int) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}
func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := m.byUsername[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}
func (m *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}
func (m *memUserRepo) Count(_ context.Context) (int, error) { return len(m.byID), nil }
func (m *memUserRepo) ListWithStats(_ context.Context) ([]*domain.UserStats, error) {
	out := []*domain.UserStats{}
	for _, u := range m.byID {
		out = append(out, &domain.UserStats{User: u, OwnedCount: len(m.owned[u.ID])})
	}
	return out, nil
}
func (m *memUserRepo) AssignClothing(_ context.Context, userID, clothingID int) error {
	if m.owned[userID] == nil {
		m.owned[userID] = map[int]struct{}{}
	}
	m.owned[userID][clothingID] = struct{}{}
	return nil
}
func (m *memUserRepo) OwnedClothing(_ context.Context, userID int) ([]*domain.Clothing, error) {
	out := []*domain.Clothing{}
	for id := range m.owned[userID] {
		if m.clothing != nil {
			if c, ok := m.clothing.items[id]; ok {
				out = append(out, c)
			}
		}
	}
	return out, nil
}
func (m *memUserRepo) OwnedClothingIDs(_ context.Context, userID int) (map[int]struct{}, error) {
	out := map[int]struct{}{}
	for id := range m.owned[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}
func (m *memUserRepo) DeleteAllOwnership(_ context.Context) error {
	m.owned = map[int]map[int]struct{}{}
	return nil
}

func newAuthFixture() (*AuthService, *memUserRepo) {
	repo := newMemUserRepo(nil)
	tm := auth.NewTokenManager("test-secret", "wardrobe")
	return NewAuthService(repo, tm, time.Hour, nil), repo
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newAuthFixture()

	// Register
	r, err := s.Register(context.Background(), "alice", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.UserID == 0 || r.Token == "" {
		t.Fatalf("expected user id and token")
	}
	if r.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %s", r.TokenType)
	}

	// Duplicate username
	if _, err := s.Register(context.Background(), "alice", "Password123"); err == nil {
		t.Fatalf("expected duplicate username error")
	}

	// Login ok
	lr, err := s.Login(context.Background(), "alice", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.Token == "" {
		t.Fatalf("expected token on login")
	}

	// Login wrong password
	if _, err := s.Login(context.Background(), "alice", "Wrong"); err == nil {
		t.Fatalf("expected invalid credentials error")
	}

	// Login unknown user
	if _, err := s.Login(context.Background(), "nobody", "Password123"); err == nil {
		t.Fatalf("expected invalid credentials error")
	}
}

func TestRegisterRequiresCredentials(t *testing.T) {
	s, _ := newAuthFixture()

	if _, err := s.Register(context.Background(), "", "pass"); err == nil {
		t.Fatalf("expected empty username to fail")
	}
	if _, err := s.Register(context.Background(), "bob", ""); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestVerifyToken(t *testing.T) {
	s, repo := newAuthFixture()

	r, err := s.Register(context.Background(), "carol", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, err := s.VerifyToken(context.Background(), r.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if user.Username != "carol" {
		t.Fatalf("expected carol, got %s", user.Username)
	}

	// Token for a removed user no longer verifies
	delete(repo.byUsername, "carol")
	if _, err := s.VerifyToken(context.Background(), r.Token); err == nil {
		t.Fatalf("expected verification to fail for removed user")
	}

	// Garbage token
	if _, err := s.VerifyToken(context.Background(), "not.a.token"); err == nil {
		t.Fatalf("expected invalid token error")
	}
}

func TestPasswordsAreHashed(t *testing.T) {
	s, repo := newAuthFixture()

	if _, err := s.Register(context.Background(), "dave", "Password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	u := repo.byUsername["dave"]
	if u.PasswordHash == "Password123" {
		t.Fatalf("password stored in plaintext")
	}
}
