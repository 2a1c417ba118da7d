package categories

import (
	"context"

	"prodexa/internal/catalog"
)

// Store is the data access abstraction for categories and subcategories.
// Implemented by MongoRepository, Repository (Postgres) and MemoryRepository.
//
// Lookups of unknown ids return *catalog.NotFoundError and unique-index
// violations on names return *catalog.DuplicateNameError.
type Store interface {
	// Categories
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeactivateCategory(ctx context.Context, id string) error
	CategoryNames(ctx context.Context) ([]catalog.NamedRecord, error)
	CountActiveSubCategories(ctx context.Context, categoryID string) (int, error)

	// Subcategories
	CreateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error)
	GetSubCategoryByID(ctx context.Context, id string) (*SubCategory, error)
	// ListSubCategories lists subcategories of one category, or of all
	// categories when categoryID is empty, sorted by name with the parent
	// category populated.
	ListSubCategories(ctx context.Context, categoryID string, activeOnly bool) ([]*SubCategory, error)
	UpdateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error)
	DeactivateSubCategory(ctx context.Context, id string) error
	SubCategoryNames(ctx context.Context, categoryID string) ([]catalog.NamedRecord, error)
}

// CategoryNameSource feeds the category duplicate-name guard.
func CategoryNameSource(s Store) catalog.NameSource {
	return catalog.NameSourceFunc(func(ctx context.Context, _ string) ([]catalog.NamedRecord, error) {
		return s.CategoryNames(ctx)
	})
}

// SubCategoryNameSource feeds the subcategory duplicate-name guard, scoped
// by parent category.
func SubCategoryNameSource(s Store) catalog.NameSource {
	return catalog.NameSourceFunc(func(ctx context.Context, categoryID string) ([]catalog.NamedRecord, error) {
		return s.SubCategoryNames(ctx, categoryID)
	})
}

func categoryNotFound(id string) error {
	return catalog.NotFound(catalog.KindCategory, id)
}

func subCategoryNotFound(id string) error {
	return catalog.NotFound(catalog.KindSubCategory, id)
}

func duplicateCategory(name string) error {
	return &catalog.DuplicateNameError{Kind: catalog.KindCategory, Name: name}
}

func duplicateSubCategory(name, categoryID string) error {
	return &catalog.DuplicateNameError{Kind: catalog.KindSubCategory, Name: name, ScopeID: categoryID}
}
