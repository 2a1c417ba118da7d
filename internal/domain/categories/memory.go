package categories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"prodexa/internal/catalog"
)

// MemoryRepository keeps categories in process memory. It enforces the same
// unique name keys as the database indexes. Used by tests and DB_DRIVER=memory.
type MemoryRepository struct {
	mu            sync.RWMutex
	categories    map[string]*Category
	subcategories map[string]*SubCategory
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		categories:    make(map[string]*Category),
		subcategories: make(map[string]*SubCategory),
	}
}

func (r *MemoryRepository) CreateCategory(_ context.Context, c *Category) (*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := catalog.NameKey(c.Name)
	for _, existing := range r.categories {
		if catalog.NameKey(existing.Name) == key {
			return nil, duplicateCategory(c.Name)
		}
	}

	now := time.Now().UTC()
	created := *c
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.categories[created.ID] = &created

	out := created
	return &out, nil
}

func (r *MemoryRepository) GetCategoryByID(_ context.Context, id string) (*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, categoryNotFound(id)
	}
	out := *c
	return &out, nil
}

func (r *MemoryRepository) ListCategories(_ context.Context, activeOnly bool) ([]*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Category, 0, len(r.categories))
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out := *c
		list = append(list, &out)
	}
	sort.Slice(list, func(i, j int) bool { return lessByName(list[i].Name, list[i].ID, list[j].Name, list[j].ID) })
	return list, nil
}

func (r *MemoryRepository) UpdateCategory(_ context.Context, c *Category) (*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.categories[c.ID]
	if !ok {
		return nil, categoryNotFound(c.ID)
	}
	key := catalog.NameKey(c.Name)
	for id, other := range r.categories {
		if id != c.ID && catalog.NameKey(other.Name) == key {
			return nil, duplicateCategory(c.Name)
		}
	}

	existing.Name = c.Name
	existing.Description = c.Description
	existing.IsActive = c.IsActive
	existing.UpdatedAt = time.Now().UTC()

	out := *existing
	return &out, nil
}

func (r *MemoryRepository) DeactivateCategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return categoryNotFound(id)
	}
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) CategoryNames(_ context.Context) ([]catalog.NamedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]catalog.NamedRecord, 0, len(r.categories))
	for _, c := range r.categories {
		names = append(names, catalog.NamedRecord{ID: c.ID, Name: c.Name})
	}
	return names, nil
}

func (r *MemoryRepository) CountActiveSubCategories(_ context.Context, categoryID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.subcategories {
		if s.CategoryID == categoryID && s.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CreateSubCategory(_ context.Context, s *SubCategory) (*SubCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[s.CategoryID]; !ok {
		return nil, categoryNotFound(s.CategoryID)
	}
	if r.subCategoryNameTaken(s.CategoryID, s.Name, "") {
		return nil, duplicateSubCategory(s.Name, s.CategoryID)
	}

	now := time.Now().UTC()
	created := *s
	created.ID = uuid.NewString()
	created.Category = nil
	created.CreatedAt = now
	created.UpdatedAt = now
	r.subcategories[created.ID] = &created

	return r.populated(&created), nil
}

func (r *MemoryRepository) GetSubCategoryByID(_ context.Context, id string) (*SubCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subcategories[id]
	if !ok {
		return nil, subCategoryNotFound(id)
	}
	return r.populated(s), nil
}

func (r *MemoryRepository) ListSubCategories(_ context.Context, categoryID string, activeOnly bool) ([]*SubCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []*SubCategory
	for _, s := range r.subcategories {
		if categoryID != "" && s.CategoryID != categoryID {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		list = append(list, r.populated(s))
	}
	sort.Slice(list, func(i, j int) bool { return lessByName(list[i].Name, list[i].ID, list[j].Name, list[j].ID) })
	return list, nil
}

func (r *MemoryRepository) UpdateSubCategory(_ context.Context, s *SubCategory) (*SubCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.subcategories[s.ID]
	if !ok {
		return nil, subCategoryNotFound(s.ID)
	}
	if _, ok := r.categories[s.CategoryID]; !ok {
		return nil, categoryNotFound(s.CategoryID)
	}
	if r.subCategoryNameTaken(s.CategoryID, s.Name, s.ID) {
		return nil, duplicateSubCategory(s.Name, s.CategoryID)
	}

	existing.Name = s.Name
	existing.Description = s.Description
	existing.CategoryID = s.CategoryID
	existing.IsActive = s.IsActive
	existing.UpdatedAt = time.Now().UTC()
	return r.populated(existing), nil
}

func (r *MemoryRepository) DeactivateSubCategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subcategories[id]
	if !ok {
		return subCategoryNotFound(id)
	}
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SubCategoryNames(_ context.Context, categoryID string) ([]catalog.NamedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []catalog.NamedRecord
	for _, s := range r.subcategories {
		if s.CategoryID == categoryID {
			names = append(names, catalog.NamedRecord{ID: s.ID, Name: s.Name})
		}
	}
	return names, nil
}

// caller holds r.mu
func (r *MemoryRepository) subCategoryNameTaken(categoryID, name, excludeID string) bool {
	key := catalog.NameKey(name)
	for id, other := range r.subcategories {
		if id != excludeID && other.CategoryID == categoryID && catalog.NameKey(other.Name) == key {
			return true
		}
	}
	return false
}

// caller holds r.mu
func (r *MemoryRepository) populated(s *SubCategory) *SubCategory {
	out := *s
	if c, ok := r.categories[s.CategoryID]; ok {
		out.Category = &Ref{ID: c.ID, Name: c.Name}
	}
	return &out
}

func lessByName(a, aID, b, bID string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return aID < bID
}
