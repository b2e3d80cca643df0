package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Blog struct {
	ID        gocql.UUID `json:"id"`
	AuthorID  string     `json:"author_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Images    []string   `json:"images"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Author    *Author    `json:"profiles,omitempty"`
}

type Author struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}
