package user

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/models"
)

type OrderLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
}

type OrderHandler struct {
	orders OrderLister
}

func NewOrderHandler(orders OrderLister) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GET /api/orders : commandes de l'utilisateur connecté, les plus récentes d'abord
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	log.Printf("✅ %d commandes trouvées pour user %s", len(orders), userID)
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
