package models

import "time"

type PremiumSubscription struct {
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
