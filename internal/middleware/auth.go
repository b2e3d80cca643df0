package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/session"
)

// AuthRequired exige une identité sur la session navigateur et expose
// user_id / email dans le contexte gin.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := session.From(c).Bridge.Identity()
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Connectez-vous pour continuer"})
			return
		}

		c.Set("user_id", identity.ID)
		c.Set("email", identity.Email)
		c.Next()
	}
}

// PremiumRequired s'utilise après AuthRequired. Le statut est relu avant un
// refus : la ligne premium est écrite par le webhook, hors de la session.
func PremiumRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		b := session.From(c).Bridge
		if !b.IsPremium() && !b.RefreshPremium(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Abonnement premium requis"})
			return
		}
		c.Next()
	}
}
