package wishlist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"prodexa/internal/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, userID string) ([]string, error) {
	if !db.ValidUUID(userID) {
		return nil, ErrUserNotFound
	}
	rows, err := r.db.Query(ctx,
		`SELECT product_id FROM wishlist_items WHERE user_id = $1 ORDER BY created_at, product_id;`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) Add(ctx context.Context, userID, productID string) error {
	if !db.ValidUUID(userID) {
		return ErrUserNotFound
	}
	cmd, err := r.db.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING;`, userID, productID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("add to wishlist: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyListed
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, userID, productID string) error {
	if !db.ValidUUID(userID) || !db.ValidUUID(productID) {
		return ErrNotListed
	}
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2;`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotListed
	}
	return nil
}

func (r *Repository) Contains(ctx context.Context, userID, productID string) (bool, error) {
	if !db.ValidUUID(userID) || !db.ValidUUID(productID) {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return exists, nil
}
