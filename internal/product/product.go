package product

// Product is one novelty item in the storefront catalog. JSON tags
// follow the camelCase convention used elsewhere in the project.
type Product struct {
	ID          int     `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	InStock     bool    `json:"inStock"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

// AllowedCategories contains the supported catalog categories.
var AllowedCategories = []string{
	"Mugs and drinkware",
	"Pins and patches",
	"Prints and posters",
	"Apparel",
	"Dice and games",
	"Stickers",
}
