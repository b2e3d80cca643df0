package blog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxImageSize = 10 << 20

// ownsImage : raw désigne un objet rangé directement sous <userID>/, donné
// par son chemin ou par son URL publique.
func (h *BlogHandler) ownsImage(userID, raw string) bool {
	if userID == "" {
		return false
	}
	key, ok := strings.CutPrefix(raw, h.images.PublicURL(userID+"/"))
	if !ok {
		key, ok = strings.CutPrefix(raw, userID+"/")
	}
	return ok && key != "" && key != "." && key != ".." && !strings.ContainsAny(key, "/\\?#")
}

func (h *BlogHandler) ownsAllImages(userID string, images []string) bool {
	for _, img := range images {
		if !h.ownsImage(userID, img) {
			return false
		}
	}
	return true
}

// POST /api/blogs/images : champ multipart "file", retourne l'URL publique
func (h *BlogHandler) UploadBlogImage(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil || len(data) > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop volumineuse (10 Mo max)"})
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier doit être une image"})
		return
	}

	objectName := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := h.images.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload MinIO: " + err.Error()})
		return
	}

	url := h.images.PublicURL(objectName)
	log.Printf("📤 Image de blog uploadée: %s", objectName)
	c.JSON(http.StatusOK, gin.H{"url": url, "path": objectName})
}
