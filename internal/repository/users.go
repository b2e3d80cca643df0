package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/models"
)

type UserRepository struct {
	session *gocql.Session
}

func NewUserRepository(session *gocql.Session) *UserRepository {
	return &UserRepository{session: session}
}

// CreateUser réserve l'email (LWT) puis insère le compte.
// Retourne ErrConflict si l'email est déjà pris.
func (r *UserRepository) CreateUser(ctx context.Context, user models.User) error {
	existing := map[string]interface{}{}
	applied, err := r.session.Query(
		`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		user.Email, user.ID,
	).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return fmt.Errorf("réservation email: %w", err)
	}
	if !applied {
		return ErrConflict
	}

	if err := r.session.Query(
		`INSERT INTO users (user_id, email, password, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Password, user.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("insertion utilisateur: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var userID string
	err := r.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
		WithContext(ctx).Scan(&userID)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, userID)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := models.User{ID: id}
	err := r.session.Query(`SELECT email, password, created_at FROM users WHERE user_id = ?`, id).
		WithContext(ctx).Scan(&user.Email, &user.Password, &user.CreatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
