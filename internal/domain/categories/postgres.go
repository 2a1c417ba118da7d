package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prodexa/internal/catalog"
	"prodexa/internal/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const categoryColumns = `id, name, description, is_active, created_at, updated_at`

// ------------------------------------
// Categories
// ------------------------------------
func (r *Repository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	query := `
		INSERT INTO categories (id, name, name_key, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + categoryColumns + `;
	`
	out := &Category{}
	err := r.db.QueryRow(ctx, query, uuid.NewString(), c.Name, catalog.NameKey(c.Name), c.Description, c.IsActive).
		Scan(&out.ID, &out.Name, &out.Description, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, duplicateCategory(c.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return out, nil
}

func (r *Repository) GetCategoryByID(ctx context.Context, id string) (*Category, error) {
	if !db.ValidUUID(id) {
		return nil, categoryNotFound(id)
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	c := &Category{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, categoryNotFound(id)
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE ($1 = false OR is_active)
		ORDER BY name_key ASC, id ASC;
	`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var list []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return list, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	if !db.ValidUUID(c.ID) {
		return nil, categoryNotFound(c.ID)
	}

	query := `
		UPDATE categories
		SET name = $1, name_key = $2, description = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING ` + categoryColumns + `;
	`
	out := &Category{}
	err := r.db.QueryRow(ctx, query, c.Name, catalog.NameKey(c.Name), c.Description, c.IsActive, c.ID).
		Scan(&out.ID, &out.Name, &out.Description, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, categoryNotFound(c.ID)
		case db.IsUniqueViolation(err):
			return nil, duplicateCategory(c.Name)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return out, nil
}

func (r *Repository) DeactivateCategory(ctx context.Context, id string) error {
	if !db.ValidUUID(id) {
		return categoryNotFound(id)
	}
	cmd, err := r.db.Exec(ctx, `UPDATE categories SET is_active = false, updated_at = now() WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return categoryNotFound(id)
	}
	return nil
}

func (r *Repository) CategoryNames(ctx context.Context) ([]catalog.NamedRecord, error) {
	return r.names(ctx, `SELECT id, name FROM categories;`)
}

func (r *Repository) CountActiveSubCategories(ctx context.Context, categoryID string) (int, error) {
	if !db.ValidUUID(categoryID) {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM subcategories WHERE category_id = $1 AND is_active;`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count subcategories: %w", err)
	}
	return n, nil
}

// ------------------------------------
// Subcategories
// ------------------------------------
const subCategorySelect = `
	SELECT s.id, s.name, s.description, s.category_id, c.name, s.is_active, s.created_at, s.updated_at
	FROM subcategories s
	JOIN categories c ON c.id = s.category_id
`

func scanSubCategory(row pgx.Row) (*SubCategory, error) {
	s := &SubCategory{Category: &Ref{}}
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.CategoryID, &s.Category.Name,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Category.ID = s.CategoryID
	return s, nil
}

func (r *Repository) CreateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error) {
	if !db.ValidUUID(s.CategoryID) {
		return nil, categoryNotFound(s.CategoryID)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO subcategories (id, name, name_key, description, category_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.db.Exec(ctx, query, id, s.Name, catalog.NameKey(s.Name), s.Description, s.CategoryID, s.IsActive)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return nil, duplicateSubCategory(s.Name, s.CategoryID)
		case db.IsForeignKeyViolation(err):
			return nil, categoryNotFound(s.CategoryID)
		}
		return nil, fmt.Errorf("create subcategory: %w", err)
	}
	return r.GetSubCategoryByID(ctx, id)
}

func (r *Repository) GetSubCategoryByID(ctx context.Context, id string) (*SubCategory, error) {
	if !db.ValidUUID(id) {
		return nil, subCategoryNotFound(id)
	}
	s, err := scanSubCategory(r.db.QueryRow(ctx, subCategorySelect+` WHERE s.id = $1;`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subCategoryNotFound(id)
		}
		return nil, fmt.Errorf("get subcategory by id: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSubCategories(ctx context.Context, categoryID string, activeOnly bool) ([]*SubCategory, error) {
	if categoryID != "" && !db.ValidUUID(categoryID) {
		return nil, nil
	}

	query := subCategorySelect + `
		WHERE ($1 = '' OR s.category_id::text = $1)
		  AND ($2 = false OR s.is_active)
		ORDER BY s.name_key ASC, s.id ASC;
	`
	rows, err := r.db.Query(ctx, query, categoryID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	var list []*SubCategory
	for rows.Next() {
		s, err := scanSubCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return list, nil
}

func (r *Repository) UpdateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error) {
	if !db.ValidUUID(s.ID) {
		return nil, subCategoryNotFound(s.ID)
	}
	if !db.ValidUUID(s.CategoryID) {
		return nil, categoryNotFound(s.CategoryID)
	}

	query := `
		UPDATE subcategories
		SET name = $1, name_key = $2, description = $3, category_id = $4, is_active = $5, updated_at = now()
		WHERE id = $6;
	`
	cmd, err := r.db.Exec(ctx, query, s.Name, catalog.NameKey(s.Name), s.Description, s.CategoryID, s.IsActive, s.ID)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return nil, duplicateSubCategory(s.Name, s.CategoryID)
		case db.IsForeignKeyViolation(err):
			return nil, categoryNotFound(s.CategoryID)
		}
		return nil, fmt.Errorf("update subcategory: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, subCategoryNotFound(s.ID)
	}
	return r.GetSubCategoryByID(ctx, s.ID)
}

func (r *Repository) DeactivateSubCategory(ctx context.Context, id string) error {
	if !db.ValidUUID(id) {
		return subCategoryNotFound(id)
	}
	cmd, err := r.db.Exec(ctx, `UPDATE subcategories SET is_active = false, updated_at = now() WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("deactivate subcategory: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return subCategoryNotFound(id)
	}
	return nil
}

func (r *Repository) SubCategoryNames(ctx context.Context, categoryID string) ([]catalog.NamedRecord, error) {
	if !db.ValidUUID(categoryID) {
		return nil, nil
	}
	return r.names(ctx, `SELECT id, name FROM subcategories WHERE category_id = $1;`, categoryID)
}

func (r *Repository) names(ctx context.Context, query string, args ...any) ([]catalog.NamedRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	var out []catalog.NamedRecord
	for rows.Next() {
		var n catalog.NamedRecord
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
