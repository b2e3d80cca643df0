package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
)

var ErrBadSignature = apperr.Validation("Signature invalide")

type PremiumStore interface {
	Upsert(ctx context.Context, sub models.PremiumSubscription) error
	Delete(ctx context.Context, userID string) error
}

type OrderStore interface {
	GetBySession(ctx context.Context, stripeSessionID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, o models.Order, status string) error
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, to string, order models.Order) error
}

// WebhookProcessor applique les événements Stripe : abonnement premium et
// commandes payées.
type WebhookProcessor struct {
	secret  string
	premium PremiumStore
	orders  OrderStore
	mailer  Notifier
	now     func() time.Time
}

func NewWebhookProcessor(secret string, premium PremiumStore, orders OrderStore, mailer Notifier) *WebhookProcessor {
	return &WebhookProcessor{
		secret:  secret,
		premium: premium,
		orders:  orders,
		mailer:  mailer,
		now:     time.Now,
	}
}

// Handle vérifie la signature puis traite l'événement. Sans secret tout
// événement est refusé ; les types inconnus sont acquittés.
func (w *WebhookProcessor) Handle(ctx context.Context, payload []byte, signature string) (stripe.EventType, error) {
	if w.secret == "" {
		log.Println("❌ STRIPE_WEBHOOK_SECRET absent, événement refusé")
		return "", ErrBadSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, w.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Println("❌ Signature Stripe invalide:", err)
		return "", ErrBadSignature
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return event.Type, apperr.Validation("Session Stripe illisible")
		}
		return event.Type, w.sessionCompleted(ctx, &cs)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return event.Type, apperr.Validation("Abonnement Stripe illisible")
		}
		return event.Type, w.subscriptionDeleted(ctx, &sub)

	default:
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return event.Type, nil
	}
}

func (w *WebhookProcessor) sessionCompleted(ctx context.Context, cs *stripe.CheckoutSession) error {
	userID := cs.Metadata[MetadataUserID]

	if cs.Metadata[MetadataType] == TypeSubscription {
		if userID == "" {
			log.Printf("⚠️ Session %s sans user_id, abonnement ignoré", cs.ID)
			return nil
		}
		sub := models.PremiumSubscription{
			UserID:    userID,
			Status:    "active",
			CreatedAt: w.now().UTC(),
		}
		if cs.Subscription != nil {
			sub.SubscriptionID = cs.Subscription.ID
		}
		if err := w.premium.Upsert(ctx, sub); err != nil {
			return apperr.Integration(fmt.Errorf("enregistrement premium: %w", err))
		}
		log.Printf("⭐ Utilisateur %s passé premium", userID)
		return nil
	}

	order, err := w.orders.GetBySession(ctx, cs.ID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("⚠️ Aucune commande pour la session %s", cs.ID)
		return nil
	}
	if err != nil {
		return apperr.Integration(fmt.Errorf("lecture commande: %w", err))
	}
	if order.Status == models.OrderStatusPaid {
		log.Println("🔁 Commande déjà payée, on ignore.")
		return nil
	}

	if err := w.orders.UpdateStatus(ctx, *order, models.OrderStatusPaid); err != nil {
		return apperr.Integration(fmt.Errorf("mise à jour commande: %w", err))
	}
	order.Status = models.OrderStatusPaid
	log.Printf("✅ Commande %s payée", order.ID)

	if email := customerEmail(cs); email != "" && w.mailer != nil {
		if err := w.mailer.SendOrderConfirmation(ctx, email, *order); err != nil {
			log.Println("❌ Erreur envoi e-mail confirmation :", err)
		} else {
			log.Println("📧 E-mail de confirmation envoyé à", email)
		}
	}
	return nil
}

func (w *WebhookProcessor) subscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	userID := sub.Metadata[MetadataUserID]
	if userID == "" {
		log.Printf("⚠️ Abonnement %s sans user_id", sub.ID)
		return nil
	}
	if err := w.premium.Delete(ctx, userID); err != nil {
		return apperr.Integration(fmt.Errorf("suppression premium: %w", err))
	}
	log.Printf("🔕 Abonnement premium terminé pour %s", userID)
	return nil
}

func customerEmail(cs *stripe.CheckoutSession) string {
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		return cs.CustomerDetails.Email
	}
	return cs.CustomerEmail
}
