package repository

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"shopblog_back_end/internal/models"
)

type ProfileRepository struct {
	session *gocql.Session
}

func NewProfileRepository(session *gocql.Session) *ProfileRepository {
	return &ProfileRepository{session: session}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	p := models.Profile{ID: id}
	err := r.session.Query(
		`SELECT first_name, last_name, phone, birth_date, email FROM profiles WHERE id = ?`, id,
	).WithContext(ctx).Scan(&p.FirstName, &p.LastName, &p.Phone, &p.BirthDate, &p.Email)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p models.Profile) error {
	return r.session.Query(
		`INSERT INTO profiles (id, first_name, last_name, phone, birth_date, email) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.Phone, p.BirthDate, p.Email,
	).WithContext(ctx).Exec()
}

// GetOrCreate retourne le profil, en créant le profil par défaut s'il manque
func (r *ProfileRepository) GetOrCreate(ctx context.Context, id, email string) (*models.Profile, error) {
	p, err := r.Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	def := models.DefaultProfile(id, email)
	if err := r.Upsert(ctx, def); err != nil {
		return nil, err
	}
	return &def, nil
}
