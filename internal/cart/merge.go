package cart

import "shopblog_back_end/internal/models"

// Merge ajoute incoming à items selon la règle du panier : même id → quantité
// cumulée, sinon ajout en fin de liste. Une quantité absente ou négative vaut 1.
// Les lignes sans id sont ignorées. items n'est pas modifié.
func Merge(items []models.CartItem, incoming ...models.CartItem) []models.CartItem {
	merged := models.CloneItems(items)

	for _, item := range incoming {
		if item.ID == "" {
			continue
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		found := false
		for i := range merged {
			if merged[i].ID == item.ID {
				merged[i].Quantity += qty
				found = true
				break
			}
		}
		if !found {
			line := models.CloneItems([]models.CartItem{item})[0]
			line.Quantity = qty
			merged = append(merged, line)
		}
	}
	return merged
}

// Without retourne items privé de la ligne id (copie)
func Without(items []models.CartItem, id string) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return models.CloneItems(out)
}
