package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prodexa/internal/catalog"
	"prodexa/internal/db"
	"prodexa/internal/domain/categories"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.category_id, c.name, p.subcategory_id, s.name,
	       p.variants, p.images, p.rating, p.review_count, p.is_active, p.is_featured,
	       p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN subcategories s ON s.id = p.subcategory_id
`

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{Category: &categories.Ref{}, SubCategory: &categories.Ref{}}
	var variants []byte
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.Category.Name, &p.SubCategoryID, &p.SubCategory.Name,
		&variants, &p.Images, &p.Rating, &p.ReviewCount, &p.IsActive, &p.IsFeatured,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return nil, fmt.Errorf("decode variants: %w", err)
	}
	p.Category.ID = p.CategoryID
	p.SubCategory.ID = p.SubCategoryID
	return p.withDerived(), nil
}

func (r *Repository) collect(rows pgx.Rows) ([]*Product, error) {
	defer rows.Close()

	var list []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return list, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if !db.ValidUUID(p.CategoryID) {
		return nil, catalog.NotFound(catalog.KindCategory, p.CategoryID)
	}
	if !db.ValidUUID(p.SubCategoryID) {
		return nil, catalog.NotFound(catalog.KindSubCategory, p.SubCategoryID)
	}
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return nil, fmt.Errorf("encode variants: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO products (id, name, description, category_id, subcategory_id, variants, images,
		                      rating, review_count, is_active, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = r.db.Exec(ctx, query, id, p.Name, p.Description, p.CategoryID, p.SubCategoryID,
		variants, p.Images, p.Rating, p.ReviewCount, p.IsActive, p.IsFeatured)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, catalog.Invalid("category", "category or subcategory does not exist")
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return r.get(ctx, id)
}

func (r *Repository) GetProductByID(ctx context.Context, id string) (*Product, error) {
	if !db.ValidUUID(id) {
		return nil, productNotFound(id)
	}
	return r.get(ctx, id)
}

func (r *Repository) get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1 AND p.is_active;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, productNotFound(id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductsByIDs(ctx context.Context, ids []string) ([]*Product, error) {
	var valid []string
	for _, id := range ids {
		if db.ValidUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	query := productSelect + `
		WHERE p.is_active AND p.id::text = ANY($1)
		ORDER BY array_position($1::text[], p.id::text);
	`
	rows, err := r.db.Query(ctx, query, valid)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return r.collect(rows)
}

func (r *Repository) ListProducts(ctx context.Context, q catalog.ProductQuery) ([]*Product, int, error) {
	where, args := SQLWhere(q)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	pageArgs := append(append([]any(nil), args...), q.Limit(), q.Skip())
	query := fmt.Sprintf("%s %s %s LIMIT $%d OFFSET $%d;",
		productSelect, where, SQLOrderBy(q), len(args)+1, len(args)+2)

	rows, err := r.db.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	list, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]*Product, error) {
	query := productSelect + `
		WHERE p.is_active AND p.is_featured
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return r.collect(rows)
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if !db.ValidUUID(p.ID) {
		return nil, productNotFound(p.ID)
	}
	if !db.ValidUUID(p.CategoryID) {
		return nil, catalog.NotFound(catalog.KindCategory, p.CategoryID)
	}
	if !db.ValidUUID(p.SubCategoryID) {
		return nil, catalog.NotFound(catalog.KindSubCategory, p.SubCategoryID)
	}
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return nil, fmt.Errorf("encode variants: %w", err)
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, category_id = $3, subcategory_id = $4, variants = $5,
		    images = $6, rating = $7, review_count = $8, is_featured = $9, updated_at = now()
		WHERE id = $10 AND is_active;
	`
	cmd, err := r.db.Exec(ctx, query, p.Name, p.Description, p.CategoryID, p.SubCategoryID, variants,
		p.Images, p.Rating, p.ReviewCount, p.IsFeatured, p.ID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, catalog.Invalid("category", "category or subcategory does not exist")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, productNotFound(p.ID)
	}
	return r.get(ctx, p.ID)
}

func (r *Repository) SetFeatured(ctx context.Context, id string, featured bool) (*Product, error) {
	if !db.ValidUUID(id) {
		return nil, productNotFound(id)
	}
	cmd, err := r.db.Exec(ctx,
		`UPDATE products SET is_featured = $1, updated_at = now() WHERE id = $2 AND is_active;`, featured, id)
	if err != nil {
		return nil, fmt.Errorf("set featured: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, productNotFound(id)
	}
	return r.get(ctx, id)
}

func (r *Repository) DeactivateProduct(ctx context.Context, id string) error {
	if !db.ValidUUID(id) {
		return productNotFound(id)
	}
	cmd, err := r.db.Exec(ctx,
		`UPDATE products SET is_active = false, updated_at = now() WHERE id = $1 AND is_active;`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return productNotFound(id)
	}
	return nil
}
