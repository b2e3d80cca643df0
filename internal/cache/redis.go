package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore garde dans Redis les révocations de jetons d'accès
type TokenStore struct {
	rdb redis.Cmdable
}

func NewTokenStore(rdb redis.Cmdable) *TokenStore {
	return &TokenStore{rdb: rdb}
}

// --- Blacklist JWT (révocation avant expiration) ---

// BlacklistToken ajoute un jti à la blacklist jusqu'à l'expiration du jeton
func (s *TokenStore) BlacklistToken(ctx context.Context, tokenID string, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	key := fmt.Sprintf("blacklist:%s", tokenID)
	return s.rdb.Set(ctx, key, "revoked", duration).Err()
}

// IsTokenBlacklisted vérifie si un jti est blacklisté
func (s *TokenStore) IsTokenBlacklisted(ctx context.Context, tokenID string) bool {
	key := fmt.Sprintf("blacklist:%s", tokenID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		log.Printf("⚠️ Erreur vérification blacklist: %v", err)
		return false
	}
	return exists > 0
}

// --- Déconnexion de tous les appareils ---

// RevokeAllSessions invalide tous les jetons émis jusqu'à at (à la seconde près)
func (s *TokenStore) RevokeAllSessions(ctx context.Context, userID string, at time.Time, duration time.Duration) error {
	key := fmt.Sprintf("revoked_before:%s", userID)
	return s.rdb.Set(ctx, key, at.Unix(), duration).Err()
}

// RevokedBefore retourne l'instant (unix) de la dernière révocation globale
func (s *TokenStore) RevokedBefore(ctx context.Context, userID string) (int64, bool) {
	key := fmt.Sprintf("revoked_before:%s", userID)
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false
	}
	if err != nil {
		log.Printf("⚠️ Erreur lecture révocation globale: %v", err)
		return 0, false
	}
	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
