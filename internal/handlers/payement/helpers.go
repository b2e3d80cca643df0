package pa

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"shopblog_back_end/internal/models"
)

// bindOptionalJSON décode le corps s'il y en a un ; un corps vide n'est pas une erreur
func bindOptionalJSON(c *gin.Context, v any) error {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ownsRequest vérifie qu'un userId envoyé par le client désigne bien l'utilisateur connecté
func ownsRequest(identity *models.Identity, claimed string) bool {
	return claimed == "" || identity == nil || identity.ID == claimed
}
