// internal/models/filter_criteria.go
package models

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Filter parameter names shared by the search endpoint and the location query.
const (
	FilterMinPrice  = "minPrice"
	FilterMaxPrice  = "maxPrice"
	FilterBrand     = "brand"
	FilterMinRating = "minRating"
	FilterStorage   = "storage"
	FilterRAM       = "ram"
	FilterBattery   = "battery"
)

// FilterKeys lists the filter parameters in serialization order.
var FilterKeys = []string{
	FilterMinPrice, FilterMaxPrice, FilterBrand, FilterMinRating,
	FilterStorage, FilterRAM, FilterBattery,
}

const listSeparator = ","

// FilterCriteria is the committed sidebar state. Every field is optional and
// a nil or empty field means "no constraint".
type FilterCriteria struct {
	MinPrice  *float64 `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	MaxPrice  *float64 `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
	Brand     []string `json:"brand,omitempty"`
	MinRating *float64 `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Storage   []string `json:"storage,omitempty"`
	RAM       []string `json:"ram,omitempty"`
	Battery   *float64 `json:"battery,omitempty" validate:"omitempty,gte=0"`
}

// Float returns a pointer to v, for building criteria literals.
func Float(v float64) *float64 { return &v }

var (
	validatorOnce  sync.Once
	filterValidate *validator.Validate
)

func filterValidator() *validator.Validate {
	validatorOnce.Do(func() {
		filterValidate = validator.New()
	})
	return filterValidate
}

// Validate checks field ranges and that MaxPrice is not below MinPrice.
func (f FilterCriteria) Validate() error {
	for _, fl := range f.numericFields() {
		if *fl.value != nil && !isFinite(**fl.value) {
			return fmt.Errorf("%s: %v is not a finite number", fl.key, **fl.value)
		}
	}
	if err := filterValidator().Struct(f); err != nil {
		return err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MaxPrice < *f.MinPrice {
		return fmt.Errorf("maxPrice (%v) is below minPrice (%v)", *f.MaxPrice, *f.MinPrice)
	}
	return nil
}

type numericField struct {
	name  string
	key   string
	value **float64
}

func (f *FilterCriteria) numericFields() []numericField {
	return []numericField{
		{"MinPrice", FilterMinPrice, &f.MinPrice},
		{"MaxPrice", FilterMaxPrice, &f.MaxPrice},
		{"MinRating", FilterMinRating, &f.MinRating},
		{"Battery", FilterBattery, &f.Battery},
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// dropInvalid clears every numeric field that fails validation on its own,
// then MaxPrice when it is below MinPrice. It reports what it cleared.
func (f *FilterCriteria) dropInvalid() []error {
	var errs []error
	for _, fl := range f.numericFields() {
		if *fl.value == nil {
			continue
		}
		v := **fl.value
		if !isFinite(v) {
			errs = append(errs, fmt.Errorf("%s: %v is not a finite number", fl.key, v))
			*fl.value = nil
			continue
		}
		if err := filterValidator().StructPartial(*f, fl.name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %v is out of range", fl.key, v))
			*fl.value = nil
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MaxPrice < *f.MinPrice {
		errs = append(errs, fmt.Errorf("%s: below %s", FilterMaxPrice, FilterMinPrice))
		f.MaxPrice = nil
	}
	return errs
}

// IsEmpty reports whether no field constrains the result.
func (f FilterCriteria) IsEmpty() bool {
	return len(f.Params()) == 0
}

// Clone returns a deep copy so a working copy never aliases committed state.
func (f FilterCriteria) Clone() FilterCriteria {
	return FilterCriteria{
		MinPrice:  cloneFloat(f.MinPrice),
		MaxPrice:  cloneFloat(f.MaxPrice),
		Brand:     append([]string(nil), f.Brand...),
		MinRating: cloneFloat(f.MinRating),
		Storage:   append([]string(nil), f.Storage...),
		RAM:       append([]string(nil), f.RAM...),
		Battery:   cloneFloat(f.Battery),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Params flattens the criteria into key/value pairs. Multi-valued fields are
// joined with a comma in first-seen order; absent or empty fields are omitted.
func (f FilterCriteria) Params() map[string]string {
	out := make(map[string]string)
	putFloat(out, FilterMinPrice, f.MinPrice)
	putFloat(out, FilterMaxPrice, f.MaxPrice)
	putList(out, FilterBrand, f.Brand)
	putFloat(out, FilterMinRating, f.MinRating)
	putList(out, FilterStorage, f.Storage)
	putList(out, FilterRAM, f.RAM)
	putFloat(out, FilterBattery, f.Battery)
	return out
}

// Values is Params as url.Values.
func (f FilterCriteria) Values() url.Values {
	v := url.Values{}
	for k, val := range f.Params() {
		v.Set(k, val)
	}
	return v
}

func putFloat(out map[string]string, key string, v *float64) {
	if v == nil {
		return
	}
	out[key] = strconv.FormatFloat(*v, 'f', -1, 64)
}

func putList(out map[string]string, key string, items []string) {
	if joined := strings.Join(NormalizeSet(items), listSeparator); joined != "" {
		out[key] = joined
	}
}

// NormalizeSet trims members, drops empties and duplicates, keeping first-seen order.
func NormalizeSet(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	var result []string
	for _, s := range items {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		result = append(result, trimmed)
	}
	return result
}

// ParseFilterValues rebuilds criteria from query parameters. Unparseable or
// out-of-range fields are skipped and reported in the returned error; the
// criteria built from the remaining fields is always returned and validates.
func ParseFilterValues(values url.Values) (FilterCriteria, error) {
	var (
		f    FilterCriteria
		errs []error
	)

	parseFloat := func(key string) *float64 {
		raw := strings.TrimSpace(values.Get(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid number %q", key, raw))
			return nil
		}
		return &v
	}
	parseList := func(key string) []string {
		var items []string
		for _, raw := range values[key] {
			items = append(items, strings.Split(raw, listSeparator)...)
		}
		return NormalizeSet(items)
	}

	f.MinPrice = parseFloat(FilterMinPrice)
	f.MaxPrice = parseFloat(FilterMaxPrice)
	f.Brand = parseList(FilterBrand)
	f.MinRating = parseFloat(FilterMinRating)
	f.Storage = parseList(FilterStorage)
	f.RAM = parseList(FilterRAM)
	f.Battery = parseFloat(FilterBattery)

	errs = append(errs, f.dropInvalid()...)
	return f, errors.Join(errs...)
}
