package product

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopblog_back_end/internal/services"
)

const maxImageSize = 10 << 20

// imagePrefix est l'espace de stockage des images d'un utilisateur
func imagePrefix(userID string) string {
	return "products/" + userID + "/"
}

// ownsImage : objectPath est un chemin propre sous le préfixe de userID
func ownsImage(userID, objectPath string) bool {
	if userID == "" || path.Clean(objectPath) != objectPath {
		return false
	}
	return strings.HasPrefix(objectPath, imagePrefix(userID))
}

func ownsAllImages(userID string, objectPaths []string) bool {
	for _, p := range objectPaths {
		if !ownsImage(userID, p) {
			return false
		}
	}
	return true
}

// POST /api/products/images : champ multipart "file"
func (h *ProductHandler) UploadProductImage(c *gin.Context) {
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

	if header.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop volumineuse (10 Mo max)"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil || len(data) > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier illisible"})
		return
	}

	thumb, err := services.Thumbnail(bytes.NewReader(data), services.ThumbnailWidth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format d'image non supporté"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := uuid.NewString()
	objectName := fmt.Sprintf("%s%s%s", imagePrefix(userID), name, ext)
	thumbName := path.Join(imagePrefix(userID), "thumbs", name+".jpg")

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := h.images.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload MinIO: " + err.Error()})
		return
	}
	if err := h.images.Upload(ctx, thumbName, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		log.Printf("⚠️ Miniature non enregistrée pour %s: %v", objectName, err)
		thumbName = ""
	}

	signed, err := h.images.SignedURL(ctx, objectName, signedURLTTL)
	if err != nil {
		log.Printf("⚠️ URL signée impossible pour %s: %v", objectName, err)
	}

	log.Printf("📤 Image produit uploadée: %s", objectName)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Image uploadée avec succès",
		"path":      objectName,
		"thumbnail": thumbName,
		"url":       signed,
	})
}
