package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/platinummonkey/bizauthz/pkg/errs"
)

// MemoryRepository is an in-process Repository. The uniqueness check and the
// insert run under the same lock.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*Permission
	byName map[string]string
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*Permission),
		byName: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, p *Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name]; exists {
		return &errs.AlreadyExistsError{Entity: EntityPermission, Name: p.Name}
	}
	if _, exists := r.byID[p.ID]; exists {
		return &errs.AlreadyExistsError{Entity: EntityPermission, Name: p.ID}
	}

	r.byID[p.ID] = p.clone()
	r.byName[p.Name] = p.ID
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byID[id].clone(), nil
}

func (r *MemoryRepository) FindByName(ctx context.Context, name string) (*Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, nil
	}
	return r.byID[id].clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[p.ID]
	if !ok {
		return &errs.NotFoundError{Entity: EntityPermission, Key: p.ID}
	}

	existing.DisplayName = p.DisplayName
	existing.Description = p.Description
	existing.IsActive = p.IsActive
	existing.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return &errs.NotFoundError{Entity: EntityPermission, Key: id}
	}

	delete(r.byName, existing.Name)
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, q ListQuery) ([]Permission, int, error) {
	r.mu.RLock()
	matched := make([]Permission, 0, len(r.byID))
	for _, p := range r.byID {
		if matchesFilter(p, q.Filter) {
			matched = append(matched, *p)
		}
	}
	r.mu.RUnlock()

	sortPermissions(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	start := q.Offset()
	if start >= total {
		return []Permission{}, total, nil
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepository) Stats(ctx context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s Stats
	for _, p := range r.byID {
		s.Total++
		if p.IsActive {
			s.Active++
		} else {
			s.Inactive++
		}
		if p.IsSystemPermission {
			s.System++
		} else {
			s.Custom++
		}
	}
	return s, nil
}

func matchesFilter(p *Permission, f Filter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.DisplayName), needle) {
			return false
		}
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.IsSystemPermission != nil && p.IsSystemPermission != *f.IsSystemPermission {
		return false
	}
	return true
}

// sortPermissions orders by field, breaking ties by name then id so pages are stable
func sortPermissions(items []Permission, field SortField, order SortOrder) {
	less := func(a, b *Permission) int {
		switch field {
		case SortByDisplayName:
			return strings.Compare(a.DisplayName, b.DisplayName)
		case SortByCategory:
			return strings.Compare(a.Category, b.Category)
		case SortByCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortByUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := less(&items[i], &items[j])
		if order == SortDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
}
