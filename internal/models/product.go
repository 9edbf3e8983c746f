// internal/models/product.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Well-known spec keys rendered on product cards and the compare table.
const (
	SpecRAM       = "ram"
	SpecStorage   = "storage"
	SpecBattery   = "battery"
	SpecCamera    = "camera"
	SpecDisplay   = "display"
	SpecProcessor = "processor"
)

var SpecKeys = []string{SpecRAM, SpecStorage, SpecBattery, SpecCamera, SpecDisplay, SpecProcessor}

// ID is an opaque identifier. The API sends either strings or numbers; both
// decode to the same string form.
type ID string

// ProductID identifies a catalog product.
type ProductID = ID

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Product struct {
	ID            ProductID              `json:"id"`
	Name          string                 `json:"name"`
	Brand         string                 `json:"brand,omitempty"`
	Price         float64                `json:"price"`
	OriginalPrice *float64               `json:"originalPrice,omitempty"`
	Rating        float64                `json:"rating,omitempty"`
	ReviewsCount  int                    `json:"reviewsCount,omitempty"`
	Image         string                 `json:"image,omitempty"`
	Specs         map[string]interface{} `json:"specs,omitempty"`
	Description   string                 `json:"description,omitempty"`
}

// Spec returns the formatted spec value, or "N/A" when absent.
func (p Product) Spec(key string) string {
	v, ok := p.Specs[key]
	if !ok || v == nil {
		return "N/A"
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return "N/A"
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// Discount returns the whole-number percentage off the original price, 0 when
// there is no markdown.
func (p Product) Discount() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price || *p.OriginalPrice == 0 {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}

// ProductSummary is the lightweight entry returned by the suggestions endpoint.
type ProductSummary struct {
	ID    ProductID `json:"id"`
	Name  string    `json:"name"`
	Brand string    `json:"brand,omitempty"`
	Image string    `json:"image,omitempty"`
}

type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

var priceDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date  string  `json:"date"`
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, layout := range priceDateLayouts {
		if t, err := time.Parse(layout, raw.Date); err == nil {
			p.Date, p.Price = t, raw.Price
			return nil
		}
	}
	return fmt.Errorf("price point: unrecognized date %q", raw.Date)
}

// PriceSummary is what the detail page shows above the price chart.
type PriceSummary struct {
	First         float64
	Last          float64
	Change        float64
	ChangePercent float64
	Min           float64
	Max           float64
}

// Summarize computes the summary of history ordered by date. It returns the
// zero value for an empty history.
func Summarize(history []PricePoint) PriceSummary {
	if len(history) == 0 {
		return PriceSummary{}
	}
	s := PriceSummary{
		First: history[0].Price,
		Last:  history[len(history)-1].Price,
		Min:   history[0].Price,
		Max:   history[0].Price,
	}
	for _, p := range history[1:] {
		s.Min = math.Min(s.Min, p.Price)
		s.Max = math.Max(s.Max, p.Price)
	}
	s.Change = s.Last - s.First
	if s.First > 0 {
		s.ChangePercent = math.Round(s.Change/s.First*10000) / 100
	}
	return s
}
