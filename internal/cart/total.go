package cart

import (
	"math"

	"shopblog_back_end/internal/models"
)

// ToMinorUnits convertit un prix en centimes, arrondi au plus proche
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// FromMinorUnits convertit des centimes en prix décimal
func FromMinorUnits(cents int64) float64 {
	return float64(cents) / 100
}

// TotalMinorUnits calcule Σ prix × quantité en centimes
func TotalMinorUnits(items []models.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += ToMinorUnits(item.Price) * int64(item.Quantity)
	}
	return total
}

// Count retourne le nombre d'articles (quantités cumulées)
func Count(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
