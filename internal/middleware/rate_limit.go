package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"shopblog_back_end/internal/session"
)

const (
	// Limites par endpoint
	LoginMaxAttempts    = 5
	RegisterMaxAttempts = 3
	CartMaxRequests     = 20
	SearchMaxRequests   = 30

	// Durées de cooldown
	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
)

// RateLimiter compte les tentatives dans Redis
type RateLimiter struct {
	rdb redis.Cmdable
}

func NewRateLimiter(rdb redis.Cmdable) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// LoginRateLimit limite les tentatives de connexion échouées par email
func (rl *RateLimiter) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		email := strings.ToLower(strings.TrimSpace(input.Email))
		key := "login_attempts:" + email
		cooldownKey := "login_cooldown:" + email

		// Vérifier si l'utilisateur est en cooldown
		if rl.rdb.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rl.rdb.TTL(ctx, cooldownKey).Val()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		attempts, _ := rl.rdb.Get(ctx, key).Int()
		if attempts >= LoginMaxAttempts {
			rl.rdb.Set(ctx, cooldownKey, "1", LoginCooldown)
			rl.rdb.Del(ctx, key)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Compte bloqué pendant %d minutes", int(LoginCooldown.Minutes())),
				"retry_after": int(LoginCooldown.Seconds()),
			})
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			rl.rdb.Incr(ctx, key)
			rl.rdb.Expire(ctx, key, LoginCooldown)
			if remaining := LoginMaxAttempts - attempts - 1; remaining > 0 {
				c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			}
		case http.StatusOK:
			// Login réussi, réinitialiser les tentatives
			rl.rdb.Del(ctx, key, cooldownKey)
		}
	}
}

// RegisterRateLimit limite les inscriptions réussies par IP
func (rl *RateLimiter) RegisterRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ip := c.ClientIP()
		key := "register_attempts:" + ip
		cooldownKey := "register_cooldown:" + ip

		if rl.rdb.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := rl.rdb.TTL(ctx, cooldownKey).Val()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'inscriptions. Réessayez dans %d minutes", int(ttl.Minutes())),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		attempts, _ := rl.rdb.Get(ctx, key).Int()
		if attempts >= RegisterMaxAttempts {
			rl.rdb.Set(ctx, cooldownKey, "1", RegisterCooldown)
			rl.rdb.Del(ctx, key)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'inscriptions. Réessayez dans %d minutes", int(RegisterCooldown.Minutes())),
				"retry_after": int(RegisterCooldown.Seconds()),
			})
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusCreated {
			rl.rdb.Incr(ctx, key)
			rl.rdb.Expire(ctx, key, RegisterCooldown)
		}
	}
}

// CartRateLimit limite les écritures panier par session navigateur (anti-spam)
func (rl *RateLimiter) CartRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "cart_add:" + session.From(c).ID
		rl.window(c, key, CartMaxRequests, "Trop d'ajouts au panier. Ralentissez un peu")
	}
}

// SearchRateLimit limite les recherches par IP
func (rl *RateLimiter) SearchRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "search_requests:" + c.ClientIP()
		rl.window(c, key, SearchMaxRequests, "Trop de recherches. Réessayez dans 1 minute")
	}
}

// window : au plus max requêtes par minute pour key
func (rl *RateLimiter) window(c *gin.Context, key string, max int, message string) {
	ctx := c.Request.Context()

	requests, _ := rl.rdb.Get(ctx, key).Int()
	if requests >= max {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       message,
			"retry_after": 60,
		})
		return
	}

	pipe := rl.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	_, _ = pipe.Exec(ctx)

	c.Next()
}
