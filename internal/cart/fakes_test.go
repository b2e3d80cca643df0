package cart

import (
	"context"
	"errors"
	"sync"

	"shopblog_back_end/internal/models"
)

// memStore enregistre les appels pour vérifier où le panier a été persisté
type memStore struct {
	mu      sync.Mutex
	data    map[string][]models.CartItem
	saves   int
	deletes int
	failErr error
	loadErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]models.CartItem)}
}

func (s *memStore) Load(_ context.Context, key string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	items, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return models.CloneItems(items), nil
}

func (s *memStore) Save(_ context.Context, key string, items []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failErr != nil {
		return s.failErr
	}
	s.data[key] = models.CloneItems(items)
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failErr != nil {
		return s.failErr
	}
	delete(s.data, key)
	return nil
}

func (s *memStore) get(key string) ([]models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.data[key]
	return items, ok
}

var errUnavailable = errors.New("stockage indisponible")

// memRecords simule la table carts
type memRecords struct {
	rows map[string]string
}

func (r *memRecords) GetCart(_ context.Context, userID string) (string, error) {
	return r.rows[userID], nil
}

func (r *memRecords) PutCart(_ context.Context, userID, items string) error {
	r.rows[userID] = items
	return nil
}
