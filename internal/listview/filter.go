package listview

import (
	"strings"

	"orderdesk/internal/models"
)

// Filter returns the orders whose customer name contains term, ignoring case.
// An empty term matches every order. The result is a new slice, never nil,
// in the input order.
func Filter(orders []models.Order, term string) []models.Order {
	needle := strings.ToLower(term)
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if needle == "" || strings.Contains(strings.ToLower(o.CustomerName), needle) {
			out = append(out, o)
		}
	}
	return out
}
