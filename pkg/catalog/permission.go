package catalog

import (
	"math"
	"time"

	"github.com/platinummonkey/bizauthz/pkg/errs"
)

// EntityPermission is the entity name reported by catalog errors
const EntityPermission = "permission"

// Status values derived from IsActive
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Permission is a named entry in the permission catalog
type Permission struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	DisplayName        string    `json:"display_name"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	IsSystemPermission bool      `json:"is_system_permission"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Status returns "active" or "inactive"
func (p *Permission) Status() string {
	if p.IsActive {
		return StatusActive
	}
	return StatusInactive
}

// CanDeactivate reports whether the entry may be switched to inactive
func (p *Permission) CanDeactivate() bool {
	return !p.IsSystemPermission
}

// CanDelete reports whether the entry may be removed from the catalog
func (p *Permission) CanDelete() bool {
	return !p.IsSystemPermission
}

// ApplyPatch mutates the whitelisted fields. Deactivating a system
// permission is refused and leaves p untouched.
func (p *Permission) ApplyPatch(patch Patch, now time.Time) error {
	if patch.IsActive != nil && !*patch.IsActive && !p.CanDeactivate() {
		return &errs.SystemPermissionModificationError{
			PermissionID: p.ID,
			Name:         p.Name,
			Operation:    errs.OperationDeactivation,
		}
	}

	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	p.UpdatedAt = now
	return nil
}

func (p *Permission) clone() *Permission {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// CreateInput carries the fields accepted when creating a permission
type CreateInput struct {
	Name               string `json:"name" validate:"required,max=100,permname"`
	DisplayName        string `json:"display_name" validate:"required,max=255"`
	Description        string `json:"description" validate:"max=1000"`
	Category           string `json:"category" validate:"required,max=100"`
	IsSystemPermission bool   `json:"is_system_permission"`
}

// Patch lists the only mutable fields of a permission. Nil fields are left unchanged.
type Patch struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.DisplayName == nil && p.Description == nil && p.IsActive == nil
}

// SortField is a column permissions can be ordered by
type SortField string

const (
	SortByName        SortField = "name"
	SortByDisplayName SortField = "display_name"
	SortByCategory    SortField = "category"
	SortByCreatedAt   SortField = "created_at"
	SortByUpdatedAt   SortField = "updated_at"
)

// Valid reports whether f is a known sort field
func (f SortField) Valid() bool {
	switch f {
	case SortByName, SortByDisplayName, SortByCategory, SortByCreatedAt, SortByUpdatedAt:
		return true
	}
	return false
}

// SortOrder is ascending or descending
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter narrows a listing. Zero values are ignored.
type Filter struct {
	// Search matches name or display name, case-insensitively
	Search             string `json:"search,omitempty"`
	Category           string `json:"category,omitempty"`
	IsActive           *bool  `json:"is_active,omitempty"`
	IsSystemPermission *bool  `json:"is_system_permission,omitempty"`
}

// ListQuery combines filtering, 1-indexed pagination and sorting
type ListQuery struct {
	Filter    Filter    `json:"filter"`
	Page      int       `json:"page"`
	Limit     int       `json:"limit"`
	SortBy    SortField `json:"sort_by,omitempty"`
	SortOrder SortOrder `json:"sort_order,omitempty"`
}

// Normalize fills defaults and clamps the limit to maxLimit
func (q ListQuery) Normalize(defaultLimit, maxLimit int) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if !q.SortBy.Valid() {
		q.SortBy = SortByName
	}
	if q.SortOrder != SortDesc {
		q.SortOrder = SortAsc
	}
	return q
}

// Offset returns (page-1)*limit
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Page is one page of a listing plus its metadata
type Page struct {
	Items        []Permission `json:"items"`
	CurrentPage  int          `json:"current_page"`
	TotalPages   int          `json:"total_pages"`
	TotalItems   int          `json:"total_items"`
	ItemsPerPage int          `json:"items_per_page"`
	HasNextPage  bool         `json:"has_next_page"`
	HasPrevPage  bool         `json:"has_prev_page"`
}

// NewPage computes page metadata for a normalized query
func NewPage(items []Permission, total int, q ListQuery) Page {
	if items == nil {
		items = []Permission{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return Page{
		Items:        items,
		CurrentPage:  q.Page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: q.Limit,
		HasNextPage:  q.Page < totalPages,
		HasPrevPage:  q.Page > 1,
	}
}

// Stats summarizes the catalog
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	System   int `json:"system"`
	Custom   int `json:"custom"`
}
