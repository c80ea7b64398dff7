package context

import (
	"fmt"
	"strings"

	"flowershop-chat-be/pkg/store"
)

// DefaultPriceFallback is shown when a record has a price field with no value.
const DefaultPriceFallback = "Liên hệ để trao đổi thêm!"

// Formatter renders retrieval hits into the product block of the prompt.
type Formatter struct {
	priceFallback string
}

func NewFormatter() *Formatter {
	return &Formatter{priceFallback: DefaultPriceFallback}
}

func NewFormatterWithFallback(fallback string) *Formatter {
	if fallback == "" {
		fallback = DefaultPriceFallback
	}
	return &Formatter{priceFallback: fallback}
}

// Format keeps the received order and skips records without a price field.
// Numbering counts only the emitted entries.
func (f *Formatter) Format(results []store.ScoredProduct) string {
	var b strings.Builder
	i := 0

	for _, r := range results {
		if !r.HasPrice() {
			continue
		}
		i++

		price := *r.Price
		if strings.TrimSpace(price) == "" {
			price = f.priceFallback
		}

		fmt.Fprintf(&b, "\n%d) Tên: %s, Giá: %s", i, r.Title, price)
		if r.Content != "" {
			fmt.Fprintf(&b, ", Nội dung mô tả: %s", r.Content)
		}
	}

	return b.String()
}
