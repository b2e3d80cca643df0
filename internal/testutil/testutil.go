// Package testutil fournit des stockages en mémoire et un Redis miniredis
// pour les tests des handlers et des sessions.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/auth"
	"shopblog_back_end/internal/cache"
	"shopblog_back_end/internal/cart"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
)

var JWTSecret = []byte("secret-de-test")

// Env regroupe les collaborateurs d'une session navigateur
type Env struct {
	Redis    *miniredis.Miniredis
	RDB      *redis.Client
	Users    *MemUsers
	Carts    *MemCarts
	Premium  *PremiumSet
	Provider *auth.LocalProvider
	Remote   cart.Store
	Guest    cart.Store
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := &Env{
		Redis:   mr,
		RDB:     rdb,
		Users:   NewMemUsers(),
		Carts:   NewMemCarts(),
		Premium: &PremiumSet{},
	}
	env.Provider = auth.NewLocalProvider(env.Users, cache.NewTokenStore(rdb), JWTSecret)
	env.Remote = cart.NewRemoteStore(env.Carts)
	env.Guest = cart.NewGuestStore(rdb)
	return env
}

// SignUp crée un compte et retourne sa session
func (e *Env) SignUp(t *testing.T, email, password string) *auth.Session {
	t.Helper()
	s, err := e.Provider.SignUp(context.Background(), email, password)
	if err != nil {
		t.Fatalf("signup %s: %v", email, err)
	}
	return s
}

type MemUsers struct {
	mu      sync.Mutex
	byID    map[string]models.User
	byEmail map[string]string
}

func NewMemUsers() *MemUsers {
	return &MemUsers{byID: map[string]models.User{}, byEmail: map[string]string{}}
}

func (s *MemUsers) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrConflict
	}
	s.byEmail[user.Email] = user.ID
	s.byID[user.ID] = user
	return nil
}

func (s *MemUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *MemUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

// MemCarts simule la table carts
type MemCarts struct {
	mu   sync.Mutex
	rows map[string]string
}

func NewMemCarts() *MemCarts {
	return &MemCarts{rows: map[string]string{}}
}

func (c *MemCarts) GetCart(_ context.Context, userID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[userID], nil
}

func (c *MemCarts) PutCart(_ context.Context, userID, items string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[userID] = items
	return nil
}

func (c *MemCarts) Row(userID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows[userID]
}

// PremiumSet simule la table premium_users
type PremiumSet struct {
	mu    sync.Mutex
	users map[string]bool
}

func (p *PremiumSet) IsPremium(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.users[userID], nil
}

func (p *PremiumSet) Set(userID string, premium bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.users == nil {
		p.users = map[string]bool{}
	}
	p.users[userID] = premium
}
