package products

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/categories"
)

// MemoryRepository keeps products in process memory and evaluates
// ProductQuery with the same rules the database translators encode.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*Product
	refs     RefResolver
	now      func() time.Time
}

// NewMemoryRepository builds an empty repository. refs may be nil, in which
// case category and subcategory names are not populated.
func NewMemoryRepository(refs RefResolver) *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]*Product),
		refs:     refs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	r.mu.Lock()
	now := r.now()
	created := clone(p)
	created.ID = uuid.NewString()
	created.Category, created.SubCategory = nil, nil
	created.CreatedAt = now
	created.UpdatedAt = now
	r.products[created.ID] = created
	out := clone(created)
	r.mu.Unlock()

	return r.populate(ctx, out), nil
}

func (r *MemoryRepository) GetProductByID(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		r.mu.RUnlock()
		return nil, productNotFound(id)
	}
	out := clone(p)
	r.mu.RUnlock()

	return r.populate(ctx, out), nil
}

func (r *MemoryRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error) {
	r.mu.RLock()
	var list []*Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.IsActive {
			list = append(list, clone(p))
		}
	}
	r.mu.RUnlock()

	for _, p := range list {
		r.populate(ctx, p)
	}
	return list, nil
}

func (r *MemoryRepository) ListProducts(ctx context.Context, q catalog.ProductQuery) ([]*Product, int, error) {
	r.mu.RLock()
	var matched []*Product
	for _, p := range r.products {
		if Matches(p, q) {
			matched = append(matched, clone(p))
		}
	}
	r.mu.RUnlock()

	SortProducts(matched, q.SortBy, q.SortDesc)

	total := len(matched)
	start := q.Skip()
	if start < 0 || start > total {
		start = total
	}
	end := start + q.Limit()
	if end < start || end > total {
		end = total
	}
	page := matched[start:end]
	for _, p := range page {
		r.populate(ctx, p)
	}
	return page, total, nil
}

func (r *MemoryRepository) ListFeatured(ctx context.Context, limit int) ([]*Product, error) {
	q := catalog.ProductQuery{FeaturedOnly: true, SortBy: catalog.SortCreatedAt, SortDesc: true}
	q.Pagination.Page = 1
	q.Pagination.Limit = limit
	list, _, err := r.ListProducts(ctx, q)
	return list, err
}

func (r *MemoryRepository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	r.mu.Lock()
	existing, ok := r.products[p.ID]
	if !ok || !existing.IsActive {
		r.mu.Unlock()
		return nil, productNotFound(p.ID)
	}
	updated := clone(p)
	updated.Category, updated.SubCategory = nil, nil
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now()
	r.products[p.ID] = updated
	out := clone(updated)
	r.mu.Unlock()

	return r.populate(ctx, out), nil
}

func (r *MemoryRepository) SetFeatured(ctx context.Context, id string, featured bool) (*Product, error) {
	r.mu.Lock()
	p, ok := r.products[id]
	if !ok || !p.IsActive {
		r.mu.Unlock()
		return nil, productNotFound(id)
	}
	p.IsFeatured = featured
	p.UpdatedAt = r.now()
	out := clone(p)
	r.mu.Unlock()

	return r.populate(ctx, out), nil
}

func (r *MemoryRepository) DeactivateProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok || !p.IsActive {
		return productNotFound(id)
	}
	p.IsActive = false
	p.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) populate(ctx context.Context, p *Product) *Product {
	if r.refs == nil {
		return p
	}
	if c, err := r.refs.GetCategoryByID(ctx, p.CategoryID); err == nil {
		p.Category = &categories.Ref{ID: c.ID, Name: c.Name}
	}
	if s, err := r.refs.GetSubCategoryByID(ctx, p.SubCategoryID); err == nil {
		p.SubCategory = &categories.Ref{ID: s.ID, Name: s.Name}
	}
	return p
}

// Matches reports whether an in-memory product satisfies q's predicate.
func Matches(p *Product, q catalog.ProductQuery) bool {
	if !p.IsActive {
		return false
	}
	if q.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if q.CategoryID != "" && p.CategoryID != q.CategoryID {
		return false
	}
	if !q.MatchesSubCategory(p.SubCategoryID) {
		return false
	}
	if !q.AnyPriceInRange(p.Prices()) {
		return false
	}
	return q.MatchesSearch(p.Name, p.Description)
}

// SortProducts orders products by field, breaking ties by id in the same
// direction. Price sorts ascending by the cheapest variant and descending by
// the most expensive one, as a multikey index does.
func SortProducts(list []*Product, field catalog.SortField, desc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		c := compare(list[i], list[j], field, desc)
		if c == 0 {
			c = strings.Compare(list[i].ID, list[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b *Product, field catalog.SortField, desc bool) int {
	switch field {
	case catalog.SortRating:
		return cmpFloat(a.Rating, b.Rating)
	case catalog.SortReviewCount:
		return cmpFloat(float64(a.ReviewCount), float64(b.ReviewCount))
	case catalog.SortName:
		return strings.Compare(a.Name, b.Name)
	case catalog.SortPrice:
		if desc {
			return cmpFloat(a.PriceRange.Max, b.PriceRange.Max)
		}
		return cmpFloat(a.PriceRange.Min, b.PriceRange.Min)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
