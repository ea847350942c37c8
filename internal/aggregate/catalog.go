package aggregate

// Catalog is the fixed set of allocation categories and their items
type Catalog struct {
	Categories []Category
	Items      []Item
}

// Item looks up a catalog item by id
func (c Catalog) Item(id string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ItemsIn returns the items of one category in catalog order
func (c Catalog) ItemsIn(category string) []Item {
	var out []Item
	for _, it := range c.Items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Allocate aggregates values over this catalog
func (c Catalog) Allocate(values map[string]int) []CategoryTotal {
	return Allocate(c.Categories, c.Items, values)
}

// DefaultCatalog is the investment product catalog shown on the allocation screen.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []Category{
			{Key: "cash", Label: "Cash & deposits"},
			{Key: "bond", Label: "Bonds"},
			{Key: "stock", Label: "Stocks"},
			{Key: "fund", Label: "Funds & other products"},
		},
		Items: []Item{
			{ID: "13", Name: "Savings deposit", Category: "cash"},
			{ID: "14", Name: "Time deposit", Category: "cash"},
			{ID: "15", Name: "CMA/MMF", Category: "cash"},
			{ID: "16", Name: "Government bonds", Category: "bond"},
			{ID: "17", Name: "Corporate bonds", Category: "bond"},
			{ID: "18", Name: "Financial bonds", Category: "bond"},
			{ID: "19", Name: "Domestic stocks", Category: "stock"},
			{ID: "20", Name: "Foreign stocks", Category: "stock"},
			{ID: "21", Name: "ETF", Category: "stock"},
			{ID: "22", Name: "Public funds", Category: "fund"},
			{ID: "23", Name: "REITs", Category: "fund"},
			{ID: "24", Name: "Alternative investments", Category: "fund"},
			{ID: "25", Name: "Futures", Category: "fund"},
			{ID: "26", Name: "Convertible bonds", Category: "fund"},
		},
	}
}
