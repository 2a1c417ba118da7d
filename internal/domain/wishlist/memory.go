package wishlist

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string][]string)}
}

func (r *MemoryRepository) List(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.items[userID]...), nil
}

func (r *MemoryRepository) Add(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.items[userID] {
		if id == productID {
			return ErrAlreadyListed
		}
	}
	r.items[userID] = append(r.items[userID], productID)
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.items[userID]
	for i, id := range list {
		if id == productID {
			r.items[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotListed
}

func (r *MemoryRepository) Contains(_ context.Context, userID, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.items[userID] {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}
