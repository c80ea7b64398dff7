package specification

import "gorm.io/gorm"

// Indexed keeps records that carry an embedding.
type Indexed struct{}

func (s Indexed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_value IS NOT NULL")
}

// Priced keeps records the formatter would show, i.e. price present (possibly blank).
type Priced struct{}

func (s Priced) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("price IS NOT NULL")
}

// ByUrl matches the product page. Urls are not unique, several records may match.
type ByUrl struct {
	Url string
}

func (s ByUrl) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("url = ?", s.Url)
}

// TitleContains is a case-insensitive substring match on the title.
type TitleContains struct {
	Term string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	if s.Term == "" {
		return db
	}
	return db.Where("title ILIKE ?", "%"+s.Term+"%")
}
