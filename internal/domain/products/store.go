package products

import (
	"context"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/categories"
)

// Store is the data access abstraction for the products domain.
// Implemented by MongoRepository, Repository (Postgres) and MemoryRepository.
//
// Products are never removed; DeactivateProduct is a soft delete. Lookups of
// unknown or inactive ids return *catalog.NotFoundError.
type Store interface {
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id string) (*Product, error)
	// GetProductsByIDs returns the active products among ids, in the order given.
	GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error)
	// ListProducts returns one page of active products and the total number of
	// matches. Count and page are computed from the same predicate.
	ListProducts(ctx context.Context, q catalog.ProductQuery) ([]*Product, int, error)
	ListFeatured(ctx context.Context, limit int) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	SetFeatured(ctx context.Context, id string, featured bool) (*Product, error)
	DeactivateProduct(ctx context.Context, id string) error
}

// RefResolver looks up the category and subcategory a product points at.
// categories.Store satisfies it.
type RefResolver interface {
	GetCategoryByID(ctx context.Context, id string) (*categories.Category, error)
	GetSubCategoryByID(ctx context.Context, id string) (*categories.SubCategory, error)
}

func productNotFound(id string) error {
	return catalog.NotFound(catalog.KindProduct, id)
}
