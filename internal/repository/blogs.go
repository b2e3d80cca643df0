package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/models"
)

const blogColumns = `blog_id, author_id, title, content, images, created_at, updated_at`

type BlogRepository struct {
	session *gocql.Session
}

func NewBlogRepository(session *gocql.Session) *BlogRepository {
	return &BlogRepository{session: session}
}

// List retourne les articles du plus récent au plus ancien (sans auteur)
func (r *BlogRepository) List(ctx context.Context) ([]models.Blog, error) {
	iter := r.session.Query(`SELECT ` + blogColumns + ` FROM blogs`).WithContext(ctx).Iter()

	blogs := []models.Blog{}
	var b models.Blog
	for iter.Scan(&b.ID, &b.AuthorID, &b.Title, &b.Content, &b.Images, &b.CreatedAt, &b.UpdatedAt) {
		blogs = append(blogs, b)
		b = models.Blog{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.SliceStable(blogs, func(i, j int) bool {
		return blogs[i].CreatedAt.After(blogs[j].CreatedAt)
	})
	return blogs, nil
}

func (r *BlogRepository) Get(ctx context.Context, id gocql.UUID) (*models.Blog, error) {
	var b models.Blog
	err := r.session.Query(`SELECT `+blogColumns+` FROM blogs WHERE blog_id = ?`, id).
		WithContext(ctx).
		Scan(&b.ID, &b.AuthorID, &b.Title, &b.Content, &b.Images, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BlogRepository) Save(ctx context.Context, b models.Blog) error {
	return r.session.Query(`INSERT INTO blogs (`+blogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AuthorID, b.Title, b.Content, b.Images, b.CreatedAt, b.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r *BlogRepository) Delete(ctx context.Context, id gocql.UUID) error {
	return r.session.Query(`DELETE FROM blogs WHERE blog_id = ?`, id).WithContext(ctx).Exec()
}
