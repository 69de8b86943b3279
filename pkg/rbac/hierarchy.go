package rbac

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/platinummonkey/bizauthz/pkg/catalog"
)

// Grant declares that a role may perform Action on Resource. Scoped grants
// only apply when the request's tenant scope matches the actor's own.
type Grant struct {
	Action   Action   `json:"action" yaml:"action"`
	Resource Resource `json:"resource" yaml:"resource"`
	Scoped   bool     `json:"scoped" yaml:"scoped"`
}

// RoleDescriptor is one row of the role hierarchy table. Universal roles are
// granted every action on every resource, unscoped, and declare no grants.
type RoleDescriptor struct {
	Role      Role    `json:"role" yaml:"role"`
	Rank      int     `json:"rank" yaml:"rank"`
	Universal bool    `json:"universal" yaml:"universal"`
	Grants    []Grant `json:"grants,omitempty" yaml:"grants,omitempty"`
}

// GrantResult is the outcome of a table lookup
type GrantResult struct {
	Granted bool
	Scoped  bool
}

// GrantRow is one flattened (role, grant) pair, used for audit output.
// Universal roles produce a single row with empty Action and Resource.
type GrantRow struct {
	Role      Role     `json:"role" yaml:"role"`
	Rank      int      `json:"rank" yaml:"rank"`
	Universal bool     `json:"universal" yaml:"universal"`
	Action    Action   `json:"action,omitempty" yaml:"action,omitempty"`
	Resource  Resource `json:"resource,omitempty" yaml:"resource,omitempty"`
	Scoped    bool     `json:"scoped" yaml:"scoped"`
}

type grantKey struct {
	action   Action
	resource Resource
}

type roleEntry struct {
	descriptor RoleDescriptor
	grants     map[grantKey]bool // value is Scoped
}

// Hierarchy is the immutable role hierarchy table
type Hierarchy struct {
	roles map[Role]*roleEntry
	order []Role // by descending rank
}

// NewHierarchy builds a table from descriptors. Roles, ranks and grants must
// be unique; universal roles may not declare grants.
func NewHierarchy(descriptors []RoleDescriptor) (*Hierarchy, error) {
	h := &Hierarchy{roles: make(map[Role]*roleEntry, len(descriptors))}
	ranks := make(map[int]Role, len(descriptors))

	for _, d := range descriptors {
		if d.Role == "" {
			return nil, fmt.Errorf("role name cannot be empty")
		}
		if _, exists := h.roles[d.Role]; exists {
			return nil, fmt.Errorf("duplicate role %s", d.Role)
		}
		if other, exists := ranks[d.Rank]; exists {
			return nil, fmt.Errorf("roles %s and %s share rank %d", other, d.Role, d.Rank)
		}
		if d.Universal && len(d.Grants) > 0 {
			return nil, fmt.Errorf("universal role %s cannot declare grants", d.Role)
		}

		entry := &roleEntry{grants: make(map[grantKey]bool, len(d.Grants))}
		for _, g := range d.Grants {
			if g.Action == "" || g.Resource == "" {
				return nil, fmt.Errorf("role %s has an incomplete grant", d.Role)
			}
			key := grantKey{g.Action, g.Resource}
			if _, exists := entry.grants[key]; exists {
				return nil, fmt.Errorf("role %s grants %s %s twice", d.Role, g.Action, g.Resource)
			}
			entry.grants[key] = g.Scoped
		}

		entry.descriptor = copyDescriptor(d)
		h.roles[d.Role] = entry
		ranks[d.Rank] = d.Role
		h.order = append(h.order, d.Role)
	}

	sort.SliceStable(h.order, func(i, j int) bool {
		return h.roles[h.order[i]].descriptor.Rank > h.roles[h.order[j]].descriptor.Rank
	})

	return h, nil
}

var (
	defaultHierarchy     *Hierarchy
	defaultHierarchyOnce sync.Once
)

// DefaultHierarchy returns the built-in table. It is built once per process.
func DefaultHierarchy() *Hierarchy {
	defaultHierarchyOnce.Do(func() {
		h, err := NewHierarchy(BuiltInRoles())
		if err != nil {
			panic(fmt.Sprintf("built-in role table is invalid: %v", err))
		}
		defaultHierarchy = h
	})
	return defaultHierarchy
}

// Rank returns the rank of role. Unknown roles report false and rank 0,
// below every known role.
func (h *Hierarchy) Rank(role Role) (int, bool) {
	entry, ok := h.roles[role]
	if !ok {
		return 0, false
	}
	return entry.descriptor.Rank, true
}

// IsUniversal reports whether role bypasses the grant table
func (h *Hierarchy) IsUniversal(role Role) bool {
	entry, ok := h.roles[role]
	return ok && entry.descriptor.Universal
}

// Grants looks up (action, resource) for role. Only exact matches grant;
// anything not declared is denied. Universal roles are not answered here.
func (h *Hierarchy) Grants(role Role, action Action, resource Resource) GrantResult {
	entry, ok := h.roles[role]
	if !ok {
		return GrantResult{}
	}
	scoped, ok := entry.grants[grantKey{action, resource}]
	if !ok {
		return GrantResult{}
	}
	return GrantResult{Granted: true, Scoped: scoped}
}

// Roles returns all roles ordered by descending rank
func (h *Hierarchy) Roles() []Role {
	out := make([]Role, len(h.order))
	copy(out, h.order)
	return out
}

// Descriptor returns a copy of the descriptor for role
func (h *Hierarchy) Descriptor(role Role) (RoleDescriptor, bool) {
	entry, ok := h.roles[role]
	if !ok {
		return RoleDescriptor{}, false
	}
	return copyDescriptor(entry.descriptor), true
}

// Enumerate flattens the table into rows ordered by descending rank, then
// resource, then action.
func (h *Hierarchy) Enumerate() []GrantRow {
	var rows []GrantRow
	for _, role := range h.order {
		d := h.roles[role].descriptor
		if d.Universal {
			rows = append(rows, GrantRow{Role: d.Role, Rank: d.Rank, Universal: true})
			continue
		}

		grants := make([]Grant, len(d.Grants))
		copy(grants, d.Grants)
		sort.Slice(grants, func(i, j int) bool {
			if grants[i].Resource != grants[j].Resource {
				return grants[i].Resource < grants[j].Resource
			}
			return grants[i].Action < grants[j].Action
		})

		for _, g := range grants {
			rows = append(rows, GrantRow{
				Role:     d.Role,
				Rank:     d.Rank,
				Action:   g.Action,
				Resource: g.Resource,
				Scoped:   g.Scoped,
			})
		}
	}
	return rows
}

// SystemPermissionName is the catalog name for (action, resource), e.g.
// PROSPECT_READ.
func SystemPermissionName(action Action, resource Resource) string {
	return string(resource) + "_" + string(action)
}

// SystemPermissions returns a catalog seed for every distinct (action,
// resource) pair granted anywhere in the table, sorted by name.
func (h *Hierarchy) SystemPermissions() []catalog.CreateInput {
	seen := make(map[string]bool)
	var out []catalog.CreateInput

	for _, role := range h.order {
		for _, g := range h.roles[role].descriptor.Grants {
			name := SystemPermissionName(g.Action, g.Resource)
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, catalog.CreateInput{
				Name:               name,
				DisplayName:        titleCase(string(g.Action)) + " " + strings.ToLower(string(g.Resource)),
				Description:        fmt.Sprintf("%s access to %s records", strings.ToLower(string(g.Action)), strings.ToLower(string(g.Resource))),
				Category:           strings.ToLower(string(g.Resource)),
				IsSystemPermission: true,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func copyDescriptor(d RoleDescriptor) RoleDescriptor {
	grants := make([]Grant, len(d.Grants))
	copy(grants, d.Grants)
	d.Grants = grants
	return d
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
