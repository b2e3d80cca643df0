package product

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/cache"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
	"shopblog_back_end/internal/services"
)

// Durée de validité des URLs d'images renvoyées au client
const signedURLTTL = time.Hour

type Store interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id gocql.UUID) (*models.Product, error)
	Save(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id gocql.UUID) error
}

// ImageStore est le bucket des images produit (voir services.Storage)
type ImageStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, objectPaths ...string) error
}

type ProductHandler struct {
	products Store
	images   ImageStore
	cache    *cache.ProductCache
	search   *services.SearchIndex
}

// NewProductHandler : cache peut être nil, search peut envelopper un client nil
func NewProductHandler(products Store, images ImageStore, cache *cache.ProductCache, search *services.SearchIndex) *ProductHandler {
	return &ProductHandler{products: products, images: images, cache: cache, search: search}
}

// GET /api/products : les plus récents d'abord, images signées
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	products, err := h.list(ctx)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, h.withSignedImages(ctx, products))
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
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
	c.JSON(http.StatusOK, h.withSignedImages(ctx, []models.Product{*p})[0])
}

// GET /api/products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	// 🔎 Elasticsearch d'abord
	hits, err := h.search.Search(ctx, query)
	if err != nil && !errors.Is(err, services.ErrSearchUnavailable) {
		log.Printf("⚠️ Recherche Elastic échouée, repli sur ScyllaDB: %v", err)
	}
	if err == nil && len(hits) > 0 {
		products := make([]models.Product, 0, len(hits))
		for _, hit := range hits {
			var p models.Product
			if err := json.Unmarshal(hit, &p); err == nil {
				products = append(products, p)
			}
		}
		c.JSON(http.StatusOK, h.withSignedImages(ctx, products))
		return
	}

	// 🔁 Repli : filtre en mémoire sur la liste complète
	all, err := h.list(ctx)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	matches := []models.Product{}
	for _, p := range all {
		if services.MatchesQuery(query, p.Name, p.Description) {
			matches = append(matches, p)
		}
	}
	c.JSON(http.StatusOK, h.withSignedImages(ctx, matches))
}

type productInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	UserID      string   `json:"user_id"`
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Name == "" || input.Price <= 0 || len(input.Images) == 0 || input.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champs requis : name, price, images, user_id"})
		return
	}
	if input.UserID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vous ne pouvez créer un produit que pour votre compte"})
		return
	}
	if !ownsAllImages(input.UserID, input.Images) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Images hors de votre espace de stockage"})
		return
	}

	now := time.Now().UTC()
	p := models.Product{
		ID:          gocql.TimeUUID(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Images:      input.Images,
		UserID:      input.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.products.Save(ctx, p); err != nil {
		apperr.Respond(c, err)
		return
	}
	h.afterWrite(ctx, p)

	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.ID)
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

// list lit la liste via le cache Redis puis ScyllaDB
func (h *ProductHandler) list(ctx context.Context) ([]models.Product, error) {
	if h.cache != nil {
		if cached, ok := h.cache.GetProducts(ctx); ok {
			return cached, nil
		}
	}

	products, err := h.products.List(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	if h.cache != nil {
		h.cache.SetProducts(ctx, products)
	}
	return products, nil
}

// afterWrite invalide le cache et (ré)indexe le produit en arrière-plan
func (h *ProductHandler) afterWrite(ctx context.Context, p models.Product) {
	if h.cache != nil {
		h.cache.InvalidateProducts(ctx)
	}
	go h.search.Index(context.Background(), p.ID.String(), p)
}

// withSignedImages remplace les chemins d'objets par des URLs signées.
// Une image non signable est omise.
func (h *ProductHandler) withSignedImages(ctx context.Context, products []models.Product) []models.Product {
	out := slices.Clone(products)
	for i := range out {
		signed := make([]string, 0, len(out[i].Images))
		for _, path := range out[i].Images {
			if path == "" {
				continue
			}
			u, err := h.images.SignedURL(ctx, path, signedURLTTL)
			if err != nil {
				log.Printf("⚠️ URL signée impossible pour %s: %v", path, err)
				continue
			}
			signed = append(signed, u)
		}
		out[i].Images = signed
	}
	return out
}
