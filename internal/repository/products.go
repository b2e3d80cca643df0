package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/models"
)

const productColumns = `product_id, name, description, price, images, user_id, created_at, updated_at`

type ProductRepository struct {
	session *gocql.Session
}

func NewProductRepository(session *gocql.Session) *ProductRepository {
	return &ProductRepository{session: session}
}

// List retourne tous les produits, du plus récent au plus ancien
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	iter := r.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()

	products := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Images, &p.UserID, &p.CreatedAt, &p.UpdatedAt) {
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	err := r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).
		WithContext(ctx).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Images, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save insère ou remplace le produit
func (r *ProductRepository) Save(ctx context.Context, p models.Product) error {
	return r.session.Query(`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Images, p.UserID, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r *ProductRepository) Delete(ctx context.Context, id gocql.UUID) error {
	return r.session.Query(`DELETE FROM products WHERE product_id = ?`, id).WithContext(ctx).Exec()
}
