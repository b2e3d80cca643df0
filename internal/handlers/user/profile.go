package user

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/models"
)

type ProfileStore interface {
	GetOrCreate(ctx context.Context, id, email string) (*models.Profile, error)
	Upsert(ctx context.Context, p models.Profile) error
}

type ProfileHandler struct {
	profiles ProfileStore
}

func NewProfileHandler(profiles ProfileStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GET /api/profile : le profil par défaut est créé à la première lecture
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.profiles.GetOrCreate(ctx, c.GetString("user_id"), c.GetString("email"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var input models.Profile
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", input.BirthDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date de naissance invalide (AAAA-MM-JJ)"})
			return
		}
	}

	input.ID = c.GetString("user_id")
	if input.Email == "" {
		input.Email = c.GetString("email")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.profiles.Upsert(ctx, input); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, input)
}
