// Package checkout transforme le panier d'une session en session de paiement
// Stripe et traite les webhooks qui en reviennent.
package checkout

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/cart"
	"shopblog_back_end/internal/models"
)

var (
	ErrEmptyCart     = apperr.Validation("Le panier est vide")
	ErrNoIdentity    = apperr.Unauthorized("Connectez-vous pour payer")
	ErrTotalMismatch = apperr.Validation("Le total du panier ne correspond pas")
)

const (
	MetadataUserID   = "user_id"
	MetadataType     = "type"
	TypeSubscription = "subscription"
)

// PaymentRequest décrit une session de paiement unique
type PaymentRequest struct {
	UserID     string
	Email      string
	Items      []models.CartItem
	Currency   string
	SuccessURL string
	CancelURL  string
}

// SubscriptionRequest décrit l'abonnement premium mensuel
type SubscriptionRequest struct {
	UserID     string
	Email      string
	Currency   string
	PriceCents int64
	SuccessURL string
	CancelURL  string
}

type GatewaySession struct {
	ID  string
	URL string
}

// Gateway est le prestataire de paiement
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req PaymentRequest) (*GatewaySession, error)
	CreateSubscriptionSession(ctx context.Context, req SubscriptionRequest) (*GatewaySession, error)
}

type OrderRecorder interface {
	Create(ctx context.Context, o models.Order) error
}

type Config struct {
	AppURL            string
	Currency          string
	PremiumPriceCents int64
}

type Initiator struct {
	gateway Gateway
	orders  OrderRecorder
	cfg     Config
	now     func() time.Time
}

func NewInitiator(gateway Gateway, orders OrderRecorder, cfg Config) *Initiator {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.PremiumPriceCents <= 0 {
		cfg.PremiumPriceCents = 10000
	}
	return &Initiator{gateway: gateway, orders: orders, cfg: cfg, now: time.Now}
}

// Request : Items est un instantané du panier, ClientTotal le total affiché
// côté client (optionnel, en unités monétaires).
type Request struct {
	Items       []models.CartItem
	UserID      string
	Email       string
	ClientTotal *float64
}

type Result struct {
	URL        string `json:"url"`
	SessionID  string `json:"-"`
	TotalMinor int64  `json:"-"`
}

// Start valide le panier et l'identité puis crée la session de paiement.
// Aucun appel au prestataire n'est fait si la validation échoue ; le panier
// n'est jamais modifié ici.
func (i *Initiator) Start(ctx context.Context, req Request) (*Result, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if req.UserID == "" {
		return nil, ErrNoIdentity
	}

	total := cart.TotalMinorUnits(req.Items)
	if req.ClientTotal != nil {
		if cart.ToMinorUnits(*req.ClientTotal) != total {
			return nil, ErrTotalMismatch
		}
	}

	session, err := i.gateway.CreateCheckoutSession(ctx, PaymentRequest{
		UserID:     req.UserID,
		Email:      req.Email,
		Items:      models.CloneItems(req.Items),
		Currency:   i.cfg.Currency,
		SuccessURL: i.cfg.AppURL + "/success",
		CancelURL:  i.cfg.AppURL + "/cancel",
	})
	if err != nil {
		log.Printf("❌ Erreur Stripe (paiement) pour %s: %v", req.UserID, err)
		return nil, apperr.Integration(err)
	}

	order := models.Order{
		ID:              gocql.TimeUUID(),
		UserID:          req.UserID,
		StripeSessionID: session.ID,
		Items:           models.CloneItems(req.Items),
		TotalPrice:      cart.FromMinorUnits(total),
		Status:          models.OrderStatusPending,
		CreatedAt:       i.now().UTC(),
	}
	if err := i.orders.Create(ctx, order); err != nil {
		log.Printf("⚠️ Commande en attente non enregistrée (%s): %v", session.ID, err)
	}

	log.Printf("💳 Session de paiement créée: %s (%d cents) pour %s", session.ID, total, req.UserID)
	return &Result{URL: session.URL, SessionID: session.ID, TotalMinor: total}, nil
}

// StartPremium crée la session d'abonnement premium. La ligne premium_users
// n'est écrite que par le webhook, une fois le paiement confirmé.
func (i *Initiator) StartPremium(ctx context.Context, userID, email string) (*Result, error) {
	if userID == "" {
		return nil, ErrNoIdentity
	}

	session, err := i.gateway.CreateSubscriptionSession(ctx, SubscriptionRequest{
		UserID:     userID,
		Email:      email,
		Currency:   i.cfg.Currency,
		PriceCents: i.cfg.PremiumPriceCents,
		SuccessURL: i.cfg.AppURL + "/premium-success",
		CancelURL:  i.cfg.AppURL + "/cancel",
	})
	if err != nil {
		log.Printf("❌ Erreur Stripe (premium) pour %s: %v", userID, err)
		return nil, apperr.Integration(err)
	}

	log.Printf("💳 Session premium créée: %s pour %s", session.ID, userID)
	return &Result{URL: session.URL, SessionID: session.ID, TotalMinor: i.cfg.PremiumPriceCents}, nil
}
