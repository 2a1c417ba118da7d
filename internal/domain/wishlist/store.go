package wishlist

import (
	"context"
	"errors"
)

var (
	ErrAlreadyListed = errors.New("product already in wishlist")
	ErrNotListed     = errors.New("product not in wishlist")
	ErrUserNotFound  = errors.New("user not found")
)

// Store keeps the product ids each user has saved, oldest first. Product
// existence is checked by the caller.
type Store interface {
	List(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	Contains(ctx context.Context, userID, productID string) (bool, error)
}
