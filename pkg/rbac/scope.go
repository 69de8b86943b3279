package rbac

// Scope is a tenant boundary at up to three nested levels. An empty string
// means the level is absent.
type Scope struct {
	BusinessID   string `json:"business_id,omitempty" yaml:"business_id,omitempty"`
	LocationID   string `json:"location_id,omitempty" yaml:"location_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty" yaml:"department_id,omitempty"`
}

// IsZero reports whether no level is set
func (s Scope) IsZero() bool {
	return s.BusinessID == "" && s.LocationID == "" && s.DepartmentID == ""
}

// InScope reports whether actor may act within request. Every level the
// request specifies must be present and equal in actor; levels the request
// omits are unconstrained. A match at a coarser level never compensates for
// a mismatch at a finer one.
func InScope(actor, request Scope) bool {
	return levelMatches(actor.BusinessID, request.BusinessID) &&
		levelMatches(actor.LocationID, request.LocationID) &&
		levelMatches(actor.DepartmentID, request.DepartmentID)
}

func levelMatches(actor, request string) bool {
	if request == "" {
		return true
	}
	return actor == request
}

// BusinessContext is the optional business/location/department triple some
// callers attach to a request.
type BusinessContext struct {
	BusinessID   *string `json:"business_id,omitempty"`
	LocationID   *string `json:"location_id,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// Scope converts the context into a Scope; nil fields become absent levels
func (bc BusinessContext) Scope() Scope {
	return Scope{
		BusinessID:   deref(bc.BusinessID),
		LocationID:   deref(bc.LocationID),
		DepartmentID: deref(bc.DepartmentID),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
