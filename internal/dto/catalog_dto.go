package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CatalogRecordResponse struct {
	Id         uuid.UUID              `json:"id"`
	Url        string                 `json:"url"`
	Title      string                 `json:"title"`
	Price      *string                `json:"price"`
	Content    string                 `json:"content"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type ListCatalogRequest struct {
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
	Query  string `query:"q" validate:"max=200"`
	Url    string `query:"url"`
	Priced bool   `query:"priced"`
}

type ListCatalogResponse struct {
	Items  []*CatalogRecordResponse `json:"items"`
	Total  int64                    `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

type SearchCatalogRequest struct {
	Query string `query:"q"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50"`
}

type SearchCatalogHit struct {
	Id      string  `json:"id"`
	Url     string  `json:"url"`
	Title   string  `json:"title"`
	Price   *string `json:"price"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type SearchCatalogResponse struct {
	Query   string             `json:"query"`
	Hits    []SearchCatalogHit `json:"hits"`
	Context string             `json:"context"`
}

// RawCatalogRecord is one product as exported by the crawler. Keys other than
// the four known ones are kept as attributes.
type RawCatalogRecord struct {
	Url        string                 `json:"url" validate:"required"`
	Title      string                 `json:"title"`
	Price      *string                `json:"price"`
	Content    string                 `json:"content"`
	Attributes map[string]interface{} `json:"-"`
}

type IngestCatalogRequest struct {
	Records []RawCatalogRecord `json:"records" validate:"required,min=1,max=1000,dive"`
}

type IngestCatalogResponse struct {
	Queued int `json:"queued"`
}

// PublishIngestRecordMessage is the watermill payload of one record to embed.
type PublishIngestRecordMessage struct {
	Record RawCatalogRecord `json:"record"`
}

var rawRecordKeys = map[string]struct{}{"url": {}, "title": {}, "price": {}, "content": {}}

func (r *RawCatalogRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = RawCatalogRecord{}
	if err := unmarshalText(fields["url"], &r.Url); err != nil {
		return fmt.Errorf("url: %w", err)
	}
	if err := unmarshalText(fields["title"], &r.Title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	if err := unmarshalText(fields["content"], &r.Content); err != nil {
		return fmt.Errorf("content: %w", err)
	}

	// null and missing both mean "no price"; numbers are kept as their text
	if raw, ok := fields["price"]; ok && string(raw) != "null" {
		var price string
		if err := unmarshalText(raw, &price); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		r.Price = &price
	}

	for k, v := range fields {
		if _, known := rawRecordKeys[k]; known {
			continue
		}
		var val interface{}
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		if r.Attributes == nil {
			r.Attributes = make(map[string]interface{})
		}
		r.Attributes[k] = val
	}
	return nil
}

func (r RawCatalogRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Attributes)+4)
	for k, v := range r.Attributes {
		out[k] = v
	}
	out["url"] = r.Url
	out["title"] = r.Title
	out["content"] = r.Content
	if r.Price != nil {
		out["price"] = *r.Price
	}
	return json.Marshal(out)
}

// unmarshalText accepts a JSON string or number; null leaves dst untouched.
func unmarshalText(raw json.RawMessage, dst *string) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, dst)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*dst = n.String()
	return nil
}
