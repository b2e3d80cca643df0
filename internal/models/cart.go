package models

// CartItem est une ligne du panier, identifiée par l'id du produit
type CartItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Quantity    int      `json:"quantity"`
}

type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// CloneItems retourne une copie profonde (images incluses)
func CloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = item
		if item.Images != nil {
			out[i].Images = append([]string(nil), item.Images...)
		}
	}
	return out
}
