package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

type Order struct {
	ID              gocql.UUID `json:"id"`
	UserID          string     `json:"user_id"`
	StripeSessionID string     `json:"stripe_session_id"`
	Items           []CartItem `json:"items"`
	TotalPrice      float64    `json:"total_price"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}
