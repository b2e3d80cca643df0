package blog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"shopblog_back_end/internal/apperr"
	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/repository"
	"shopblog_back_end/internal/services"
)

type Store interface {
	List(ctx context.Context) ([]models.Blog, error)
	Get(ctx context.Context, id gocql.UUID) (*models.Blog, error)
	Save(ctx context.Context, b models.Blog) error
	Delete(ctx context.Context, id gocql.UUID) error
}

type ProfileStore interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	GetOrCreate(ctx context.Context, id, email string) (*models.Profile, error)
}

// ImageStore est le bucket public des images de blog
type ImageStore interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	PublicURL(objectPath string) string
	Remove(ctx context.Context, objectPaths ...string) error
}

type BlogHandler struct {
	blogs    Store
	profiles ProfileStore
	images   ImageStore
	search   *services.SearchIndex
}

func NewBlogHandler(blogs Store, profiles ProfileStore, images ImageStore, search *services.SearchIndex) *BlogHandler {
	return &BlogHandler{blogs: blogs, profiles: profiles, images: images, search: search}
}

// GET /api/blogs : les plus récents d'abord, avec le nom de l'auteur
func (h *BlogHandler) GetAllBlogs(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	blogs, err := h.blogs.List(ctx)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, h.withAuthors(ctx, blogs))
}

// GET /api/blogs/:id
func (h *BlogHandler) GetBlog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	b, ok := h.load(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.withAuthors(ctx, []models.Blog{*b})[0])
}

// GET /api/blogs/search?q=
func (h *BlogHandler) SearchBlogs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	hits, err := h.search.Search(ctx, query)
	if err != nil && !errors.Is(err, services.ErrSearchUnavailable) {
		log.Printf("⚠️ Recherche Elastic échouée, repli sur ScyllaDB: %v", err)
	}
	if err == nil && len(hits) > 0 {
		blogs := make([]models.Blog, 0, len(hits))
		for _, hit := range hits {
			var b models.Blog
			if err := json.Unmarshal(hit, &b); err == nil {
				blogs = append(blogs, b)
			}
		}
		c.JSON(http.StatusOK, h.withAuthors(ctx, blogs))
		return
	}

	all, err := h.blogs.List(ctx)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	matches := []models.Blog{}
	for _, b := range all {
		if services.MatchesQuery(query, b.Title, b.Content) {
			matches = append(matches, b)
		}
	}
	c.JSON(http.StatusOK, h.withAuthors(ctx, matches))
}

type blogInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// POST /api/blogs (premium)
func (h *BlogHandler) CreateBlog(c *gin.Context) {
	var input blogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Title == "" || input.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Titre et contenu requis"})
		return
	}

	userID := c.GetString("user_id")
	if !h.ownsAllImages(userID, input.Images) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Images hors de votre espace de stockage"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	// l'auteur doit avoir un profil pour être affiché dans la liste
	if _, err := h.profiles.GetOrCreate(ctx, userID, c.GetString("email")); err != nil {
		apperr.Respond(c, err)
		return
	}

	now := time.Now().UTC()
	b := models.Blog{
		ID:        gocql.TimeUUID(),
		AuthorID:  userID,
		Title:     input.Title,
		Content:   input.Content,
		Images:    input.Images,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if b.Images == nil {
		b.Images = []string{}
	}
	if err := h.blogs.Save(ctx, b); err != nil {
		apperr.Respond(c, err)
		return
	}
	go h.search.Index(context.Background(), b.ID.String(), b)

	log.Printf("✅ Article publié: %s par %s", b.Title, userID)
	c.JSON(http.StatusCreated, gin.H{"data": b})
}

// PUT /api/blogs/:id (auteur uniquement)
func (h *BlogHandler) UpdateBlog(c *gin.Context) {
	var input blogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	b, ok := h.load(ctx, c)
	if !ok {
		return
	}
	if b.AuthorID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seul l'auteur peut modifier cet article"})
		return
	}

	if input.Title != "" {
		b.Title = input.Title
	}
	if input.Content != "" {
		b.Content = input.Content
	}
	if input.Images != nil {
		if !h.ownsAllImages(b.AuthorID, input.Images) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Images hors de votre espace de stockage"})
			return
		}
		b.Images = input.Images
	}
	b.UpdatedAt = time.Now().UTC()

	if err := h.blogs.Save(ctx, *b); err != nil {
		apperr.Respond(c, err)
		return
	}
	go h.search.Index(context.Background(), b.ID.String(), *b)

	c.JSON(http.StatusOK, gin.H{"data": b})
}

// DELETE /api/blogs/:id (auteur uniquement)
func (h *BlogHandler) DeleteBlog(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	b, ok := h.load(ctx, c)
	if !ok {
		return
	}
	if b.AuthorID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seul l'auteur peut supprimer cet article"})
		return
	}

	if err := h.blogs.Delete(ctx, b.ID); err != nil {
		apperr.Respond(c, err)
		return
	}
	var owned []string
	for _, img := range b.Images {
		if h.ownsImage(b.AuthorID, img) {
			owned = append(owned, img)
		} else {
			log.Printf("⚠️ Image %s hors de l'espace de %s, conservée", img, b.AuthorID)
		}
	}
	if len(owned) > 0 {
		if err := h.images.Remove(ctx, owned...); err != nil {
			log.Printf("⚠️ Images de l'article %s non supprimées: %v", b.ID, err)
		}
	}
	go h.search.Delete(context.Background(), b.ID.String())

	log.Printf("🗑️ Article supprimé: %s", b.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Article supprimé"})
}

// load lit l'article :id ou écrit la réponse d'erreur
func (h *BlogHandler) load(ctx context.Context, c *gin.Context) (*models.Blog, bool) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID article invalide"})
		return nil, false
	}
	b, err := h.blogs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return nil, false
	}
	if err != nil {
		apperr.Respond(c, err)
		return nil, false
	}
	return b, true
}

// withAuthors joint le profil de chaque auteur ; un profil absent laisse Author à nil
func (h *BlogHandler) withAuthors(ctx context.Context, blogs []models.Blog) []models.Blog {
	authors := make(map[string]*models.Author)
	for i := range blogs {
		id := blogs[i].AuthorID
		author, seen := authors[id]
		if !seen {
			p, err := h.profiles.Get(ctx, id)
			if err == nil {
				author = &models.Author{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
			} else if !errors.Is(err, repository.ErrNotFound) {
				log.Printf("⚠️ Profil auteur %s illisible: %v", id, err)
			}
			authors[id] = author
		}
		blogs[i].Author = author
	}
	return blogs
}
