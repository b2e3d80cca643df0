package pa

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/checkout"
	"shopblog_back_end/internal/session"
)

type Initiator interface {
	Start(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	StartPremium(ctx context.Context, userID, email string) (*checkout.Result, error)
}

type CheckoutHandler struct {
	initiator Initiator
}

func NewCheckoutHandler(initiator Initiator) *CheckoutHandler {
	return &CheckoutHandler{initiator: initiator}
}

// Les lignes viennent du panier de la session, jamais du corps de la requête
type checkoutBody struct {
	UserID     string   `json:"userId"`
	TotalPrice *float64 `json:"totalPrice"`
}

// POST /api/create-checkout-session
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutBody
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	s := session.From(c)
	identity := s.Bridge.Identity()
	if !ownsRequest(identity, body.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Utilisateur non autorisé"})
		return
	}

	req := checkout.Request{
		Items:       s.Cart.Items(),
		ClientTotal: body.TotalPrice,
	}
	if identity != nil {
		req.UserID = identity.ID
		req.Email = identity.Email
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	result, err := h.initiator.Start(ctx, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     result.URL,
		"message": "Session de paiement créée",
	})
}

// POST /api/create-premium-session
func (h *CheckoutHandler) CreatePremiumSession(c *gin.Context) {
	var body checkoutBody
	if err := bindOptionalJSON(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	b := session.From(c).Bridge
	identity := b.Identity()
	if !ownsRequest(identity, body.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Utilisateur non autorisé"})
		return
	}
	if identity == nil {
		apperr.Respond(c, checkout.ErrNoIdentity)
		return
	}
	if b.IsPremium() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vous êtes déjà premium"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	result, err := h.initiator.StartPremium(ctx, identity.ID, identity.Email)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	log.Printf("⭐ Abonnement premium demandé par %s", identity.Email)
	c.JSON(http.StatusOK, gin.H{
		"url":     result.URL,
		"message": "Session d'abonnement créée",
	})
}
