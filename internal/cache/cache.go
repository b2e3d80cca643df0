package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/models"
)

const (
	ProductListCacheKey = "products:all"
	ProductListCacheTTL = time.Hour
)

// ProductCache garde la liste des produits sérialisée dans Redis
type ProductCache struct {
	rdb redis.Cmdable
}

func NewProductCache(rdb redis.Cmdable) *ProductCache {
	return &ProductCache{rdb: rdb}
}

// GetProducts retourne la liste en cache ; ok=false si absente ou illisible
func (c *ProductCache) GetProducts(ctx context.Context) ([]models.Product, bool) {
	val, err := c.rdb.Get(ctx, ProductListCacheKey).Result()
	if err != nil || val == "" {
		return nil, false
	}
	var cached []models.Product
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, false
	}
	return cached, true
}

func (c *ProductCache) SetProducts(ctx context.Context, products []models.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, ProductListCacheKey, data, ProductListCacheTTL).Err(); err != nil {
		log.Printf("⚠️ Mise en cache des produits échouée: %v", err)
	}
}

// InvalidateProducts supprime la liste en cache après une écriture
func (c *ProductCache) InvalidateProducts(ctx context.Context) {
	if err := c.rdb.Del(ctx, ProductListCacheKey).Err(); err != nil {
		log.Printf("⚠️ Invalidation du cache produits échouée: %v", err)
	}
}
