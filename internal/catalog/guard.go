package catalog

import (
	"context"
	"fmt"
)

// NamedRecord is the id and stored name of a category or subcategory.
type NamedRecord struct {
	ID   string
	Name string
}

// NameSource lists every record, active or inactive, inside a uniqueness
// scope. For categories the scope id is ignored.
type NameSource interface {
	NamesInScope(ctx context.Context, scopeID string) ([]NamedRecord, error)
}

// NameSourceFunc adapts a function to NameSource.
type NameSourceFunc func(ctx context.Context, scopeID string) ([]NamedRecord, error)

func (f NameSourceFunc) NamesInScope(ctx context.Context, scopeID string) ([]NamedRecord, error) {
	return f(ctx, scopeID)
}

// NameCheck is a candidate name for create or rename. ExcludeID is the
// record being renamed, so that keeping its own name is not a collision.
type NameCheck struct {
	Name      string
	ScopeID   string
	ExcludeID string
}

// NameGuard rejects category or subcategory names that collide, ignoring
// case and whitespace differences, with another record in the same scope.
type NameGuard struct {
	kind   string
	scoped bool
	source NameSource
}

func NewCategoryGuard(source NameSource) *NameGuard {
	return &NameGuard{kind: KindCategory, source: source}
}

func NewSubCategoryGuard(source NameSource) *NameGuard {
	return &NameGuard{kind: KindSubCategory, scoped: true, source: source}
}

// Check validates the candidate and returns its normalized form. Charset and
// length errors are reported before any collision.
func (g *NameGuard) Check(ctx context.Context, c NameCheck) (string, error) {
	name, err := ValidateName(c.Name)
	if err != nil {
		return "", err
	}
	if g.scoped && c.ScopeID == "" {
		return "", invalid("category", "is required")
	}

	records, err := g.source.NamesInScope(ctx, c.ScopeID)
	if err != nil {
		return "", fmt.Errorf("list %s names: %w", g.kind, err)
	}

	key := NameKey(name)
	for _, rec := range records {
		if c.ExcludeID != "" && rec.ID == c.ExcludeID {
			continue
		}
		if NameKey(rec.Name) == key {
			return "", &DuplicateNameError{
				Kind:     g.kind,
				Name:     name,
				Conflict: rec.Name,
				ScopeID:  c.ScopeID,
			}
		}
	}
	return name, nil
}
