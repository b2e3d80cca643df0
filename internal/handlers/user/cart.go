package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/cart"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
	"shopblog_back_end/internal/session"
)

// Catalog fournit le prix de référence d'un produit
type Catalog interface {
	Get(ctx context.Context, id gocql.UUID) (*models.Product, error)
}

type CartHandler struct {
	catalog Catalog
}

// NewCartHandler : avec un catalogue nil, les lignes sont prises telles quelles
func NewCartHandler(catalog Catalog) *CartHandler {
	return &CartHandler{catalog: catalog}
}

// GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartResponse(session.From(c).Cart.Items()))
}

// POST /api/cart/add : une ligne ou un tableau de lignes
func (h *CartHandler) AddToCart(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		var single models.CartItem
		if err := json.Unmarshal(raw, &single); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
			return
		}
		items = []models.CartItem{single}
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun article à ajouter"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	for i := range items {
		if items[i].ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Chaque article doit avoir un id"})
			return
		}
		if err := h.refresh(ctx, &items[i]); err != nil {
			apperr.Respond(c, err)
			return
		}
	}

	snapshot := session.From(c).Cart.Add(ctx, items...)
	c.JSON(http.StatusOK, cartResponse(snapshot))
}

// DELETE /api/cart/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	snapshot := session.From(c).Cart.Remove(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, cartResponse(snapshot))
}

// DELETE /api/cart/clear
func (h *CartHandler) ClearCart(c *gin.Context) {
	snapshot := session.From(c).Cart.Clear(c.Request.Context())
	c.JSON(http.StatusOK, cartResponse(snapshot))
}

// refresh remplace nom, prix et images par ceux du catalogue
func (h *CartHandler) refresh(ctx context.Context, item *models.CartItem) error {
	if h.catalog == nil {
		return nil
	}
	id, err := gocql.ParseUUID(item.ID)
	if err != nil {
		return apperr.Validation("Identifiant produit invalide")
	}
	product, err := h.catalog.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Produit introuvable")
	}
	if err != nil {
		return err
	}

	quantity := item.Quantity
	*item = product.AsCartItem()
	item.Quantity = quantity
	return nil
}

func cartResponse(items []models.CartItem) gin.H {
	return gin.H{
		"items": items,
		"total": cart.FromMinorUnits(cart.TotalMinorUnits(items)),
		"count": cart.Count(items),
	}
}
