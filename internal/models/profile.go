package models

type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
	Email     string `json:"email"`
}

// DefaultProfile construit le profil vide créé à la première visite
func DefaultProfile(id, email string) Profile {
	return Profile{ID: id, Email: email}
}
