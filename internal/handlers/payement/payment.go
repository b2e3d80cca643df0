package pa

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"shopblog_back_end/internal/apperr"
)

const maxWebhookBodyBytes = int64(65536)

// EventProcessor vérifie et applique un événement Stripe (voir checkout.WebhookProcessor)
type EventProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) (stripe.EventType, error)
}

type WebhookHandler struct {
	processor EventProcessor
}

func NewWebhookHandler(processor EventProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// POST /api/stripe/webhook
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	eventType, err := h.processor.Handle(ctx, payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "type": eventType})
}
