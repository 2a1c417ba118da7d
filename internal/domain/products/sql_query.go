package products

import (
	"fmt"
	"strings"

	"prodexa/internal/catalog"
)

const (
	minVariantPrice = `(SELECT MIN((v->>'price')::numeric) FROM jsonb_array_elements(p.variants) v)`
	maxVariantPrice = `(SELECT MAX((v->>'price')::numeric) FROM jsonb_array_elements(p.variants) v)`
	searchVector    = `setweight(to_tsvector('english', p.name), 'A') || setweight(to_tsvector('english', coalesce(p.description, '')), 'B')`
)

// sqlPredicate accumulates WHERE conditions with positional arguments.
type sqlPredicate struct {
	conds []string
	args  []any
}

func (sp *sqlPredicate) arg(v any) string {
	sp.args = append(sp.args, v)
	return fmt.Sprintf("$%d", len(sp.args))
}

func (sp *sqlPredicate) add(cond string) {
	sp.conds = append(sp.conds, cond)
}

// SQLWhere translates q into a WHERE clause over products aliased as p. The
// count and page queries share the returned clause and arguments.
func SQLWhere(q catalog.ProductQuery) (string, []any) {
	sp := &sqlPredicate{}
	sp.add("p.is_active = true")

	if q.FeaturedOnly {
		sp.add("p.is_featured = true")
	}
	// ids compare as text so malformed input simply matches nothing
	if q.CategoryID != "" {
		sp.add("p.category_id::text = " + sp.arg(q.CategoryID))
	}
	if len(q.SubCategoryIDs) > 0 {
		sp.add("p.subcategory_id::text = ANY(" + sp.arg(q.SubCategoryIDs) + ")")
	}

	if q.HasPriceFilter() {
		var bounds []string
		if q.MinPrice != nil {
			bounds = append(bounds, "(v->>'price')::numeric >= "+sp.arg(*q.MinPrice))
		}
		if q.MaxPrice != nil {
			bounds = append(bounds, "(v->>'price')::numeric <= "+sp.arg(*q.MaxPrice))
		}
		sp.add("EXISTS (SELECT 1 FROM jsonb_array_elements(p.variants) v WHERE " + strings.Join(bounds, " AND ") + ")")
	}

	if q.Search != "" {
		if q.SearchMode == catalog.SearchText {
			if terms := q.SearchTerms(); len(terms) > 0 {
				sp.add(searchVector + " @@ websearch_to_tsquery('english', " + sp.arg(strings.Join(terms, " or ")) + ")")
			}
		} else {
			pattern := sp.arg("%" + escapeLike(q.Search) + "%")
			sp.add("(p.name ILIKE " + pattern + " OR p.description ILIKE " + pattern + ")")
		}
	}

	return "WHERE " + strings.Join(sp.conds, " AND "), sp.args
}

// SQLOrderBy orders by the requested field with id as a tie-breaker.
func SQLOrderBy(q catalog.ProductQuery) string {
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	var expr string
	switch q.SortBy {
	case catalog.SortRating:
		expr = "p.rating"
	case catalog.SortReviewCount:
		expr = "p.review_count"
	case catalog.SortName:
		expr = "p.name"
	case catalog.SortPrice:
		expr = minVariantPrice
		if q.SortDesc {
			expr = maxVariantPrice
		}
	default:
		expr = "p.created_at"
	}
	return fmt.Sprintf("ORDER BY %s %s, p.id %s", expr, dir, dir)
}

// escapeLike escapes LIKE metacharacters so the term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
