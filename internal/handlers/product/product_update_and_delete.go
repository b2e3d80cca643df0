package product

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/repository"
)

type updateInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
}

// PUT /api/products/:id (propriétaire uniquement)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var input updateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être supérieur à 0"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	p, err := h.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if p.UserID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seul le propriétaire peut modifier ce produit"})
		return
	}

	if input.Name != "" {
		p.Name = input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if len(input.Images) > 0 {
		if !ownsAllImages(p.UserID, input.Images) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Images hors de votre espace de stockage"})
			return
		}
		p.Images = input.Images
	}
	p.Price = input.Price
	p.UpdatedAt = time.Now().UTC()

	if err := h.products.Save(ctx, *p); err != nil {
		apperr.Respond(c, err)
		return
	}
	h.afterWrite(ctx, *p)

	log.Printf("✅ Produit mis à jour: %s", p.ID)
	c.JSON(http.StatusOK, gin.H{"data": p})
}

type deleteInput struct {
	ProductID string `json:"productId"`
	UserID    string `json:"userId"`
}

// DELETE /api/products/delete : images supprimées du stockage avant la ligne
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	var input deleteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	id, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}
	if _, err := uuid.Parse(input.UserID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	p, err := h.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if p.UserID != input.UserID || input.UserID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seul le propriétaire peut supprimer ce produit"})
		return
	}

	// seules les images du propriétaire sont supprimées du bucket
	var owned []string
	for _, img := range p.Images {
		if ownsImage(p.UserID, img) {
			owned = append(owned, img)
		} else {
			log.Printf("⚠️ Image %s hors de l'espace de %s, conservée", img, p.UserID)
		}
	}
	if len(owned) > 0 {
		if err := h.images.Remove(ctx, owned...); err != nil {
			log.Printf("❌ Suppression des images de %s: %v", p.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression des images: " + err.Error()})
			return
		}
	}

	if err := h.products.Delete(ctx, id); err != nil {
		apperr.Respond(c, err)
		return
	}
	if h.cache != nil {
		h.cache.InvalidateProducts(ctx)
	}
	go h.search.Delete(context.Background(), id.String())

	log.Printf("🗑️ Produit supprimé: %s", id)
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}
