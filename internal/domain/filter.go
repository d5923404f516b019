package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FilterOptions narrows a product list. Every set field is ANDed; an empty
// string or nil pointer leaves that dimension unconstrained.
type FilterOptions struct {
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
	SearchTerm string
}

// IsZero reports whether no constraint is set.
func (f FilterOptions) IsZero() bool {
	return f.Category == "" && f.MinPrice == nil && f.MaxPrice == nil && f.MinRating == nil && f.SearchTerm == ""
}

// Apply returns the products matching every constraint. Predicates run in
// order: category, min price, max price, min rating, search term.
func (f FilterOptions) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether p satisfies the filter.
func (f FilterOptions) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	return true
}

// SortOption selects the display order of a fetched list.
type SortOption string

const (
	SortByName       SortOption = "name"
	SortByPriceAsc   SortOption = "price-asc"
	SortByPriceDesc  SortOption = "price-desc"
	SortByRatingDesc SortOption = "rating-desc"
)

// DefaultSort is the order used when none is chosen.
const DefaultSort = SortByName

// ParseSortOption validates s. The empty string maps to DefaultSort.
func ParseSortOption(s string) (SortOption, error) {
	switch opt := SortOption(strings.ToLower(strings.TrimSpace(s))); opt {
	case "":
		return DefaultSort, nil
	case SortByName, SortByPriceAsc, SortByPriceDesc, SortByRatingDesc:
		return opt, nil
	default:
		return "", fmt.Errorf("unknown sort option %q", s)
	}
}

// SortProducts returns a stably sorted copy of products. The input slice is
// left untouched; an unknown option keeps the input order.
func SortProducts(products []Product, opt SortOption) []Product {
	out := make([]Product, len(products))
	copy(out, products)

	var less func(a, b Product) bool
	switch opt {
	case SortByName:
		less = func(a, b Product) bool { return a.Name < b.Name }
	case SortByPriceAsc:
		less = func(a, b Product) bool { return a.Price < b.Price }
	case SortByPriceDesc:
		less = func(a, b Product) bool { return a.Price > b.Price }
	case SortByRatingDesc:
		less = func(a, b Product) bool { return a.Rating > b.Rating }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
