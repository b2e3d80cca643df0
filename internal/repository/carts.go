package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gocql/gocql"
)

// CartRepository stocke le panier JSON d'un utilisateur (une ligne par user_id)
type CartRepository struct {
	session *gocql.Session
}

func NewCartRepository(session *gocql.Session) *CartRepository {
	return &CartRepository{session: session}
}

// GetCart retourne "" quand l'utilisateur n'a pas encore de panier
func (r *CartRepository) GetCart(ctx context.Context, userID string) (string, error) {
	var items string
	err := r.session.Query(`SELECT items FROM carts WHERE user_id = ?`, userID).
		WithContext(ctx).Scan(&items)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", nil
	}
	return items, err
}

// PutCart est un upsert : l'insertion CQL remplace la ligne existante
func (r *CartRepository) PutCart(ctx context.Context, userID, items string) error {
	return r.session.Query(`INSERT INTO carts (user_id, items, updated_at) VALUES (?, ?, ?)`,
		userID, items, time.Now().UTC()).WithContext(ctx).Exec()
}
