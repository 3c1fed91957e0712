package suppliers

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/pkg/maps"
)

// Supplier is a wholesale business shown in search results.
type Supplier struct {
	PlaceID      string            `json:"place_id"`
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	Phone        string            `json:"phone"`
	Rating       float64           `json:"rating"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	Website      string            `json:"website,omitempty"`
	Types        []string          `json:"types"`
	SupplierType string            `json:"supplier_type"`
	IsDemo       bool              `json:"is_demo"`
	Products     []catalog.Product `json:"products"`
}

var relevantTypes = map[string]struct{}{
	"grocery_or_supermarket": {},
	"food":                   {},
	"store":                  {},
	"supermarket":            {},
	"meal_takeaway":          {},
	"restaurant":             {},
	"establishment":          {},
}

// SupplierType derives a display label from place types.
func SupplierType(types []string) string {
	if len(types) == 0 {
		return "Supplier"
	}
	primary := types[0]
	for _, t := range types {
		if _, ok := relevantTypes[t]; ok {
			primary = t
			break
		}
	}
	words := strings.Fields(strings.ReplaceAll(primary, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func fromPlace(p maps.Place) Supplier {
	return Supplier{
		PlaceID:      p.PlaceID,
		Name:         p.Name,
		Address:      p.FormattedAddress,
		Phone:        p.Phone,
		Rating:       p.Rating,
		Latitude:     p.Location.Latitude,
		Longitude:    p.Location.Longitude,
		Website:      p.Website,
		Types:        p.Types,
		SupplierType: SupplierType(p.Types),
	}
}

// DemoSuppliers returns the fixed stand-ins used when the places provider
// is unavailable.
func DemoSuppliers(term string) []Supplier {
	demo := []Supplier{
		{
			PlaceID: "demo_1",
			Name:    fmt.Sprintf("%s Wholesale Market", term),
			Address: "Demo Address, Mumbai, Maharashtra, India",
			Phone:   "+91 98765 43210",
			Rating:  4.2,
			Types:   []string{"grocery_or_supermarket", "food", "store"},
		},
		{
			PlaceID: "demo_2",
			Name:    fmt.Sprintf("Fresh %s Suppliers", term),
			Address: "Demo Address, Delhi, India",
			Phone:   "+91 98765 43211",
			Rating:  4.5,
			Types:   []string{"food", "store"},
		},
		{
			PlaceID: "demo_3",
			Name:    fmt.Sprintf("Premium %s Mart", term),
			Address: "Demo Address, Bangalore, Karnataka, India",
			Phone:   "+91 98765 43212",
			Rating:  4.0,
			Types:   []string{"grocery_or_supermarket", "establishment"},
		},
	}
	for i := range demo {
		demo[i].SupplierType = SupplierType(demo[i].Types)
		demo[i].IsDemo = true
	}
	return demo
}
