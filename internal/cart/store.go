package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/models"
)

const GuestCartTTL = 30 * 24 * time.Hour // 30 jours

// ErrMalformedCart signale un enregistrement qui n'est pas une liste JSON
var ErrMalformedCart = errors.New("panier stocké invalide")

// Store persiste le panier d'une clé (user id ou id de session invité).
// Load retourne (nil, nil) quand rien n'est enregistré.
type Store interface {
	Load(ctx context.Context, key string) ([]models.CartItem, error)
	Save(ctx context.Context, key string, items []models.CartItem) error
	Delete(ctx context.Context, key string) error
}

// CartRecords est la table carts du stockage distant
type CartRecords interface {
	GetCart(ctx context.Context, userID string) (string, error)
	PutCart(ctx context.Context, userID, items string) error
}

// RemoteStore persiste le panier d'un utilisateur connecté dans la table carts
type RemoteStore struct {
	records CartRecords
}

func NewRemoteStore(records CartRecords) *RemoteStore {
	return &RemoteStore{records: records}
}

func (s *RemoteStore) Load(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := s.records.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	return decodeItems(data)
}

func (s *RemoteStore) Save(ctx context.Context, userID string, items []models.CartItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	return s.records.PutCart(ctx, userID, data)
}

// Delete écrase l'enregistrement avec une liste vide : la ligne reste en base
func (s *RemoteStore) Delete(ctx context.Context, userID string) error {
	return s.records.PutCart(ctx, userID, "[]")
}

// GuestStore garde le panier d'un visiteur anonyme dans Redis, avec expiration
type GuestStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewGuestStore(rdb redis.Cmdable) *GuestStore {
	return &GuestStore{rdb: rdb, ttl: GuestCartTTL}
}

func guestKey(sessionID string) string {
	return "cart:guest:" + sessionID
}

func (s *GuestStore) Load(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	data, err := s.rdb.Get(ctx, guestKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeItems(data)
}

func (s *GuestStore) Save(ctx context.Context, sessionID string, items []models.CartItem) error {
	data, err := encodeItems(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, guestKey(sessionID), data, s.ttl).Err()
}

func (s *GuestStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, guestKey(sessionID)).Err()
}

func encodeItems(items []models.CartItem) (string, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("erreur sérialisation panier: %w", err)
	}
	return string(data), nil
}

func decodeItems(data string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCart, err)
	}
	return items, nil
}
