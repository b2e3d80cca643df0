package models

import "time"

// User est l'enregistrement stocké par le fournisseur d'authentification local
type User struct {
	ID        string    `json:"user_id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity est la vue en lecture seule de l'utilisateur connecté
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
