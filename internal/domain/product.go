package domain

import "time"

// Product is a catalog item. Prices are in minor currency units.
// AverageRating and TotalReviews are derived from the product's reviews and
// are only ever written by the rating aggregator.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Price         int64     `json:"price"`
	Currency      string    `json:"currency"`
	Stock         int       `json:"stock"`
	Images        []string  `json:"images"`
	AverageRating float64   `json:"averageRating"`
	TotalReviews  int       `json:"totalReviews"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// PricePoint is one entry of a product's price history.
type PricePoint struct {
	Price      int64     `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Product list sort orders.
const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
	ProductSortRating    = "rating"
	ProductSortPopular   = "popular"
)

// IsValidProductSort reports whether s is a known product sort order.
func IsValidProductSort(s string) bool {
	switch s {
	case ProductSortNewest, ProductSortPriceAsc, ProductSortPriceDesc, ProductSortRating, ProductSortPopular:
		return true
	}
	return false
}
