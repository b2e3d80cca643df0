package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/auth"
	"shopblog_back_end/internal/session"
)

// SessionRevoker déconnecte tous les appareils d'un utilisateur
type SessionRevoker interface {
	SignOutAll(ctx context.Context, userID string) error
}

type AuthHandler struct {
	revoker SessionRevoker
}

func NewAuthHandler(revoker SessionRevoker) *AuthHandler {
	return &AuthHandler{revoker: revoker}
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email valide et mot de passe requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	s := session.From(c)
	identity, err := s.Bridge.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		respondAuthError(c, err, http.StatusBadRequest)
		return
	}
	if err := session.Save(c); err != nil {
		log.Printf("⚠️ Cookie de session non écrit: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         identity,
		"access_token": s.Bridge.AccessToken(),
		"isPremium":    s.Bridge.IsPremium(),
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input credentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email valide et mot de passe requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	s := session.From(c)
	identity, err := s.Bridge.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		respondAuthError(c, err, http.StatusUnauthorized)
		return
	}
	if err := session.Save(c); err != nil {
		log.Printf("⚠️ Cookie de session non écrit: %v", err)
	}

	log.Printf("✅ Connexion de %s", identity.Email)
	c.JSON(http.StatusOK, gin.H{
		"user":         identity,
		"access_token": s.Bridge.AccessToken(),
		"isPremium":    s.Bridge.IsPremium(),
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := session.From(c).Bridge.SignOut(ctx); err != nil {
		respondAuthError(c, err, http.StatusInternalServerError)
		return
	}
	if err := session.Save(c); err != nil {
		log.Printf("⚠️ Cookie de session non écrit: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// POST /api/auth/logout-all (authentifié)
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.revoker.SignOutAll(ctx, c.GetString("user_id")); err != nil {
		apperr.Respond(c, apperr.Integration(err))
		return
	}
	if err := session.Save(c); err != nil {
		log.Printf("⚠️ Cookie de session non écrit: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tous les appareils ont été déconnectés"})
}

// GET /api/auth/me : le statut premium est relu (il change par webhook)
func (h *AuthHandler) Me(c *gin.Context) {
	b := session.From(c).Bridge
	if b.Identity() != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		b.RefreshPremium(ctx)
		cancel()
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      b.Identity(),
		"isLoading": b.Loading(),
		"isPremium": b.IsPremium(),
	})
}

// respondAuthError renvoie le message du fournisseur avec status, ou 500
func respondAuthError(c *gin.Context, err error, status int) {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		c.JSON(status, gin.H{"error": authErr.Message})
		return
	}
	apperr.Respond(c, err)
}
