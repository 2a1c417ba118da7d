package catalog

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"prodexa/internal/params"
)

// SortField is a product attribute a listing may be ordered by.
type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortRating      SortField = "rating"
	SortReviewCount SortField = "reviewCount"
	SortName        SortField = "name"
	SortPrice       SortField = "price"
)

var sortFields = map[SortField]bool{
	SortCreatedAt:   true,
	SortRating:      true,
	SortReviewCount: true,
	SortName:        true,
	SortPrice:       true,
}

// SearchMode selects how the search term is matched.
type SearchMode string

const (
	// SearchSubstring matches a case-insensitive substring of the name or
	// description. It finds partial words.
	SearchSubstring SearchMode = "substring"
	// SearchText uses the weighted full-text index (name above description).
	// The term is split into words and a product matches when any word
	// appears as a whole word in its name or description. Stores may stem
	// words; the in-memory store compares them exactly.
	SearchText SearchMode = "text"
)

// ProductQuery is the backend-neutral filter, sort and pagination window for
// a product listing. Stores translate it into their own query language; the
// count and the page are always built from the same ProductQuery value.
type ProductQuery struct {
	Search         string
	SearchMode     SearchMode
	CategoryID     string
	SubCategoryIDs []string
	MinPrice       *float64
	MaxPrice       *float64
	FeaturedOnly   bool
	SortBy         SortField
	SortDesc       bool
	Pagination     params.Pagination
}

// ParseProductQuery builds a ProductQuery from untrusted query parameters.
// Active-only filtering is implied and cannot be switched off.
func ParseProductQuery(q url.Values) (ProductQuery, error) {
	pq := ProductQuery{
		SearchMode: SearchSubstring,
		SortBy:     SortCreatedAt,
		SortDesc:   true,
	}

	pagination, err := params.ParsePagination(q)
	if err != nil {
		var perr *params.Error
		if errors.As(err, &perr) {
			return pq, invalid(perr.Param, "must be a positive integer")
		}
		return pq, err
	}
	pq.Pagination = pagination

	pq.Search = strings.TrimSpace(q.Get("search"))
	switch mode := SearchMode(strings.ToLower(strings.TrimSpace(q.Get("searchMode")))); mode {
	case "":
	case SearchSubstring, SearchText:
		pq.SearchMode = mode
	default:
		return pq, invalid("searchMode", "must be one of substring, text")
	}

	pq.CategoryID = strings.TrimSpace(q.Get("category"))
	pq.SubCategoryIDs = splitIDs(q["subcategory"], q["subcategories"])

	if pq.MinPrice, err = parsePrice(q, "minPrice"); err != nil {
		return pq, err
	}
	if pq.MaxPrice, err = parsePrice(q, "maxPrice"); err != nil {
		return pq, err
	}
	if pq.MinPrice != nil && pq.MaxPrice != nil && *pq.MinPrice > *pq.MaxPrice {
		return pq, invalid("minPrice", "cannot be greater than maxPrice")
	}

	if featured := strings.TrimSpace(q.Get("featured")); featured != "" {
		b, err := strconv.ParseBool(featured)
		if err != nil {
			return pq, invalid("featured", "must be true or false")
		}
		pq.FeaturedOnly = b
	}

	if sortBy := strings.TrimSpace(q.Get("sortBy")); sortBy != "" {
		if !sortFields[SortField(sortBy)] {
			return pq, invalid("sortBy", "must be one of createdAt, rating, reviewCount, name, price")
		}
		pq.SortBy = SortField(sortBy)
	}
	pq.SortDesc = !strings.EqualFold(strings.TrimSpace(q.Get("sortOrder")), "asc")

	return pq, nil
}

// splitIDs flattens single and comma-joined id values, dropping blanks and
// repeats while keeping first-seen order.
func splitIDs(groups ...[]string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, values := range groups {
		for _, v := range values {
			for _, id := range strings.Split(v, ",") {
				id = strings.TrimSpace(id)
				if id == "" || seen[id] {
					continue
				}
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func parsePrice(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalid(key, "must be a number")
	}
	if f < 0 {
		return nil, invalid(key, "cannot be negative")
	}
	return &f, nil
}

// Skip is the number of matching products before the current page.
func (pq ProductQuery) Skip() int {
	return (pq.Pagination.Page - 1) * pq.Pagination.Limit
}

// Limit is the page size.
func (pq ProductQuery) Limit() int {
	return pq.Pagination.Limit
}

// HasPriceFilter reports whether either price bound is set.
func (pq ProductQuery) HasPriceFilter() bool {
	return pq.MinPrice != nil || pq.MaxPrice != nil
}

// PriceInRange reports whether a single variant price satisfies the
// inclusive price bounds.
func (pq ProductQuery) PriceInRange(price float64) bool {
	if pq.MinPrice != nil && price < *pq.MinPrice {
		return false
	}
	if pq.MaxPrice != nil && price > *pq.MaxPrice {
		return false
	}
	return true
}

// AnyPriceInRange reports whether at least one of the prices satisfies the
// bounds. With no bounds every product matches.
func (pq ProductQuery) AnyPriceInRange(prices []float64) bool {
	if !pq.HasPriceFilter() {
		return true
	}
	for _, p := range prices {
		if pq.PriceInRange(p) {
			return true
		}
	}
	return false
}

// SearchTerms splits Search into lower-case words for SearchText. Anything
// that is not a letter or digit separates words, so the result never
// carries query operators.
func (pq ProductQuery) SearchTerms() []string {
	return words(pq.Search)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MatchesSearch applies the search rule of the query's mode to a name and
// description.
func (pq ProductQuery) MatchesSearch(name, description string) bool {
	if pq.Search == "" {
		return true
	}
	if pq.SearchMode == SearchText {
		terms := pq.SearchTerms()
		if len(terms) == 0 {
			return true
		}
		set := make(map[string]bool)
		for _, w := range words(name + " " + description) {
			set[w] = true
		}
		for _, term := range terms {
			if set[term] {
				return true
			}
		}
		return false
	}
	needle := strings.ToLower(pq.Search)
	return strings.Contains(strings.ToLower(name), needle) ||
		strings.Contains(strings.ToLower(description), needle)
}

// MatchesSubCategory applies IN semantics over SubCategoryIDs.
func (pq ProductQuery) MatchesSubCategory(id string) bool {
	if len(pq.SubCategoryIDs) == 0 {
		return true
	}
	for _, s := range pq.SubCategoryIDs {
		if s == id {
			return true
		}
	}
	return false
}
