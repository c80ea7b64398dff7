package store

// Product is the display subset of a catalog record. The embedding is never
// part of it.
type Product struct {
	ID      string  `json:"id"`
	Url     string  `json:"url"`
	Title   string  `json:"title"`
	Price   *string `json:"price"` // nil means the record carries no price at all
	Content string  `json:"content"`
}

// ScoredProduct is a retrieval hit
type ScoredProduct struct {
	Product
	Score float64 `json:"score"`
}

// HasPrice reports whether the price field exists, even if blank.
func (p Product) HasPrice() bool {
	return p.Price != nil
}
