package repository

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/models"
)

type PremiumRepository struct {
	session *gocql.Session
}

func NewPremiumRepository(session *gocql.Session) *PremiumRepository {
	return &PremiumRepository{session: session}
}

// IsPremium : une ligne présente suffit
func (r *PremiumRepository) IsPremium(ctx context.Context, userID string) (bool, error) {
	var status string
	err := r.session.Query(`SELECT status FROM premium_users WHERE user_id = ?`, userID).
		WithContext(ctx).Scan(&status)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PremiumRepository) Upsert(ctx context.Context, sub models.PremiumSubscription) error {
	return r.session.Query(
		`INSERT INTO premium_users (user_id, status, subscription_id, created_at) VALUES (?, ?, ?, ?)`,
		sub.UserID, sub.Status, sub.SubscriptionID, sub.CreatedAt,
	).WithContext(ctx).Exec()
}

func (r *PremiumRepository) Delete(ctx context.Context, userID string) error {
	return r.session.Query(`DELETE FROM premium_users WHERE user_id = ?`, userID).WithContext(ctx).Exec()
}
