package user

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/session"
)

// GET /api/preferences
func GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, session.From(c).Preferences())
}

// PUT /api/preferences
func UpdatePreferences(c *gin.Context) {
	var input models.Preferences
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	prefs, err := session.From(c).SetPreferences(input)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := session.Save(c); err != nil {
		log.Printf("⚠️ Cookie de session non écrit: %v", err)
	}
	c.JSON(http.StatusOK, prefs)
}
