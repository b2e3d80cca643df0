package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/cache"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
)

var testSecret = []byte("secret-de-test")

// memUsers simule les tables users / users_by_email
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]models.User
	byEmail map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}, byEmail: map[string]string{}}
}

func (s *memUsers) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrConflict
	}
	s.byEmail[user.Email] = user.ID
	s.byID[user.ID] = user
	return nil
}

func (s *memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *memUsers) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// premiumSet simule la table premium_users
type premiumSet struct {
	mu    sync.Mutex
	users map[string]bool
	err   error
	calls int
}

func (p *premiumSet) IsPremium(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	return p.users[userID], nil
}

func (p *premiumSet) set(userID string, premium bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.users == nil {
		p.users = map[string]bool{}
	}
	p.users[userID] = premium
}

var errPremiumDown = errors.New("table premium indisponible")

func newTestProvider(t *testing.T) (*LocalProvider, *memUsers) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	users := newMemUsers()
	return NewLocalProvider(users, cache.NewTokenStore(rdb), testSecret), users
}
