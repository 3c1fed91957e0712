package catalog

import (
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategorySpices     Category = "spices"
	CategoryDairy      Category = "dairy"
	CategoryGrains     Category = "grains"
	CategoryMeat       Category = "meat"
	CategoryOil        Category = "oil"
	CategoryPackaging  Category = "packaging"
	CategoryGeneral    Category = "general"
)

const (
	UnitPerKg    = "per kg"
	UnitPerPiece = "per piece"
)

// Categories lists the searchable categories in match order.
var Categories = []Category{
	CategoryVegetables,
	CategoryFruits,
	CategorySpices,
	CategoryDairy,
	CategoryGrains,
	CategoryMeat,
	CategoryOil,
	CategoryPackaging,
}

var productNames = map[Category][]string{
	CategoryVegetables: {"Fresh Onions", "Tomatoes", "Potatoes", "Green Chilies", "Ginger", "Garlic"},
	CategoryFruits:     {"Fresh Apples", "Bananas", "Oranges", "Lemons", "Seasonal Fruits"},
	CategorySpices:     {"Turmeric Powder", "Red Chili Powder", "Cumin Seeds", "Coriander Powder", "Garam Masala", "Pani Puri Masala"},
	CategoryDairy:      {"Fresh Milk", "Paneer", "Butter", "Pure Ghee", "Curd"},
	CategoryGrains:     {"Basmati Rice", "Wheat Flour", "Chickpeas", "Moong Dal", "Toor Dal"},
	CategoryMeat:       {"Fresh Chicken", "Mutton", "Fish", "Eggs"},
	CategoryOil:        {"Sunflower Oil", "Mustard Oil", "Coconut Oil", "Pure Ghee"},
	CategoryPackaging:  {"Disposable Plates", "Food Containers", "Paper Bags", "Plastic Cups", "Aluminum Foil"},
}

var searchQueries = map[Category]string{
	CategoryVegetables: "wholesale vegetable market OR vegetable supplier OR fresh vegetables wholesale",
	CategoryFruits:     "wholesale fruit market OR fruit supplier OR fresh fruits wholesale",
	CategoryDairy:      "dairy wholesale OR milk supplier OR cheese wholesale OR dairy products",
	CategorySpices:     "spice wholesale OR masala supplier OR spices market OR condiments wholesale",
	CategoryGrains:     "grain wholesale OR rice supplier OR wheat wholesale OR pulses market",
	CategoryMeat:       "meat wholesale OR chicken supplier OR mutton wholesale OR meat market",
	CategoryOil:        "cooking oil wholesale OR ghee supplier OR oil wholesale OR edible oil",
	CategoryPackaging:  "food packaging supplier OR disposable plates wholesale OR packaging materials OR food containers",
}

// Product is a catalog record offered by a supplier.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	SupplierID   string          `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	Price        decimal.Decimal `json:"price"`
	Unit         string          `json:"unit"`
	Category     Category        `json:"category"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Rating       float64         `json:"rating"`
	InStock      bool            `json:"inStock"`
	MinOrder     int             `json:"minOrder"`
}

// ParseCategory resolves a category key case-insensitively.
func ParseCategory(value string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := searchQueries[c]; ok {
		return c, true
	}
	return "", false
}

// Label is the display name of the category.
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// SearchQuery returns the places query used when the category is selected.
func (c Category) SearchQuery() string {
	return searchQueries[c]
}

// ProductNames returns a copy of the category's product table.
func (c Category) ProductNames() []string {
	return append([]string(nil), productNames[c]...)
}

// FreeTextQuery expands a typed term into the wholesale-oriented query.
func FreeTextQuery(term string) string {
	return fmt.Sprintf("%[1]s wholesale OR %[1]s supplier OR %[1]s market OR bulk %[1]s", term)
}

// DetectCategory picks the first category whose key appears in term or
// whose product names overlap term. It falls back to general products
// derived from the term itself.
func DetectCategory(term string) (Category, []string) {
	lower := strings.ToLower(term)
	for _, c := range Categories {
		if strings.Contains(lower, string(c)) {
			return c, c.ProductNames()
		}
		for _, name := range productNames[c] {
			item := strings.ToLower(name)
			if strings.Contains(item, lower) || strings.Contains(lower, item) {
				return c, c.ProductNames()
			}
		}
	}
	return CategoryGeneral, []string{
		"Premium " + term,
		"Fresh " + term,
		"Organic " + term,
		"Bulk " + term,
	}
}

// GenerateProducts synthesizes 3 to 6 demo products for a supplier. All
// randomness comes from rng so callers can seed it for reproducible output.
func GenerateProducts(rng *rand.Rand, supplierID, supplierName, term string) []Product {
	category, names := DetectCategory(term)

	count := rng.Intn(4) + 3
	if count > len(names) {
		count = len(names)
	}

	unit, minOrder := UnitPerKg, 1
	if category == CategoryPackaging {
		unit, minOrder = UnitPerPiece, 100
	}

	products := make([]Product, 0, count)
	for i, name := range names[:count] {
		price := decimal.NewFromFloat(rng.Float64()*100 + 20).Round(2)
		rating := math.Round((rng.Float64()*2+3)*10) / 10
		inStock := rng.Float64() > 0.1

		products = append(products, Product{
			ID:           fmt.Sprintf("%s_%d", supplierID, i),
			Name:         name,
			SupplierID:   supplierID,
			SupplierName: supplierName,
			Price:        price,
			Unit:         unit,
			Category:     category,
			Description:  fmt.Sprintf("High quality %s from %s", strings.ToLower(name), supplierName),
			Image:        PlaceholderImage(name),
			Rating:       rating,
			InStock:      inStock,
			MinOrder:     minOrder,
		})
	}
	return products
}

// PlaceholderImage returns the placeholder tile URL for a product name.
func PlaceholderImage(name string) string {
	text := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return "https://placehold.co/200x150/10b981/ffffff?text=" + text + "&font=lora"
}
