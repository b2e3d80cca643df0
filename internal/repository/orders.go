package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/models"
)

// OrderRepository : orders est partitionnée par utilisateur (plus récentes
// en premier), orders_by_session retrouve une commande depuis le webhook.
type OrderRepository struct {
	session *gocql.Session
}

func NewOrderRepository(session *gocql.Session) *OrderRepository {
	return &OrderRepository{session: session}
}

func (r *OrderRepository) Create(ctx context.Context, o models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("sérialisation des lignes: %w", err)
	}

	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`INSERT INTO orders (user_id, created_at, order_id, stripe_session_id, items, total_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.UserID, o.CreatedAt, o.ID, o.StripeSessionID, string(items), o.TotalPrice, o.Status)
	batch.Query(`INSERT INTO orders_by_session (stripe_session_id, user_id, created_at, order_id) VALUES (?, ?, ?, ?)`,
		o.StripeSessionID, o.UserID, o.CreatedAt, o.ID)
	return r.session.ExecuteBatch(batch)
}

// ListByUser retourne les commandes de userID, les plus récentes d'abord
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	iter := r.session.Query(`SELECT order_id, created_at, stripe_session_id, items, total_price, status
		FROM orders WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	orders := []models.Order{}
	var (
		o     models.Order
		items string
	)
	for iter.Scan(&o.ID, &o.CreatedAt, &o.StripeSessionID, &items, &o.TotalPrice, &o.Status) {
		o.UserID = userID
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			o.Items = []models.CartItem{}
		}
		orders = append(orders, o)
		o = models.Order{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetBySession retrouve la commande créée pour une session de paiement
func (r *OrderRepository) GetBySession(ctx context.Context, stripeSessionID string) (*models.Order, error) {
	o := models.Order{StripeSessionID: stripeSessionID}
	err := r.session.Query(`SELECT user_id, created_at, order_id FROM orders_by_session WHERE stripe_session_id = ?`,
		stripeSessionID).WithContext(ctx).Scan(&o.UserID, &o.CreatedAt, &o.ID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var items string
	err = r.session.Query(`SELECT items, total_price, status FROM orders WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		o.UserID, o.CreatedAt, o.ID).WithContext(ctx).Scan(&items, &o.TotalPrice, &o.Status)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		o.Items = []models.CartItem{}
	}
	return &o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o models.Order, status string) error {
	return r.session.Query(`UPDATE orders SET status = ? WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		status, o.UserID, o.CreatedAt, o.ID).WithContext(ctx).Exec()
}
