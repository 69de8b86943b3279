package rbac

import (
	"context"

	"github.com/platinummonkey/bizauthz/pkg/catalog"
	"github.com/platinummonkey/bizauthz/pkg/errs"
	"github.com/platinummonkey/bizauthz/pkg/observability"
)

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for denial diagnostics
func WithLogger(logger *observability.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics enables decision counters
func WithMetrics(metrics *observability.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = metrics }
}

// WithCatalogGate makes Evaluate consult the catalog: a table grant is
// withdrawn when the catalog entry for the pair exists and is inactive.
//
// Entries created by Manager.SeedSystemPermissions are system permissions,
// which can never be deactivated, so for seeded pairs the gate always lets
// the table decision stand. Only an operator-defined (non-system) entry
// created under the RESOURCE_ACTION name before seeding can switch a pair
// off.
func WithCatalogGate(reader catalog.Reader) ResolverOption {
	return func(r *Resolver) { r.catalog = reader }
}

// Resolver is the decision engine. It holds no mutable state and is safe
// for concurrent use.
type Resolver struct {
	hierarchy *Hierarchy
	logger    *observability.Logger
	metrics   *observability.Metrics
	catalog   catalog.Reader
}

// NewResolver creates a resolver over hierarchy (DefaultHierarchy when nil)
func NewResolver(hierarchy *Hierarchy, opts ...ResolverOption) *Resolver {
	if hierarchy == nil {
		hierarchy = DefaultHierarchy()
	}
	r := &Resolver{
		hierarchy: hierarchy,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hierarchy returns the table the resolver decides against
func (r *Resolver) Hierarchy() *Hierarchy {
	return r.hierarchy
}

// Decide evaluates the grant table and tenant scope for one query
func (r *Resolver) Decide(actor Actor, action Action, resource Resource, scope Scope) Decision {
	d := r.decide(actor, action, resource, scope)
	r.record(actor, action, resource, d)
	return d
}

func (r *Resolver) decide(actor Actor, action Action, resource Resource, scope Scope) Decision {
	if _, ok := r.hierarchy.Rank(actor.Role); !ok {
		return deny(ReasonUnknownRole)
	}
	if r.hierarchy.IsUniversal(actor.Role) {
		return allow(ReasonUniversalRole)
	}

	grant := r.hierarchy.Grants(actor.Role, action, resource)
	if !grant.Granted {
		return deny(ReasonNotGranted)
	}
	if !grant.Scoped {
		return allow(ReasonGranted)
	}
	if !InScope(actor.Scope, scope) {
		return deny(ReasonOutOfScope)
	}
	return allow(ReasonScopeGranted)
}

// Evaluate is Decide plus the catalog gate, when one is configured. Storage
// failures are returned with a denied decision.
func (r *Resolver) Evaluate(ctx context.Context, actor Actor, action Action, resource Resource, scope Scope) (Decision, error) {
	d := r.decide(actor, action, resource, scope)

	if d.Granted && d.Reason != ReasonUniversalRole && r.catalog != nil {
		p, err := r.catalog.FindByName(ctx, SystemPermissionName(action, resource))
		if err != nil {
			observability.FromContext(ctx, r.logger).
				WithError(err).
				WithField("permission", SystemPermissionName(action, resource)).
				Error("catalog lookup failed during decision")
			d = deny(ReasonNotGranted)
			r.record(actor, action, resource, d)
			return d, errs.Storage("catalog gate", err)
		}
		if p != nil && !p.IsActive {
			d = deny(ReasonPermissionInactive)
		}
	}

	r.record(actor, action, resource, d)
	return d, nil
}

// HasPermission reports whether actor may perform action on resource
// within scope. A zero scope places no tenant constraint on the request.
func (r *Resolver) HasPermission(actor Actor, action Action, resource Resource, scope Scope) bool {
	return r.Decide(actor, action, resource, scope).Granted
}

// HasBusinessPermission is HasPermission with the scope given as a
// BusinessContext.
func (r *Resolver) HasBusinessPermission(actor Actor, action Action, resource Resource, bc BusinessContext) bool {
	return r.HasPermission(actor, action, resource, bc.Scope())
}

// RequirePermission returns an AuthorizationError when HasPermission would
// return false.
func (r *Resolver) RequirePermission(actor Actor, action Action, resource Resource, scope Scope) error {
	d := r.Decide(actor, action, resource, scope)
	if d.Granted {
		return nil
	}
	return &errs.AuthorizationError{
		ActorID:  actor.ID,
		Role:     string(actor.Role),
		Action:   string(action),
		Resource: string(resource),
		Reason:   d.Reason,
	}
}

// CanActOnRole reports whether actor outranks target. Universal actors may
// act on any role; otherwise the actor's rank must be strictly greater.
// Unknown roles never qualify as actor or target.
func (r *Resolver) CanActOnRole(actor, target Role) bool {
	if r.hierarchy.IsUniversal(actor) {
		return true
	}
	actorRank, ok := r.hierarchy.Rank(actor)
	if !ok {
		return false
	}
	targetRank, ok := r.hierarchy.Rank(target)
	if !ok {
		return false
	}
	return actorRank > targetRank
}

// CanManageUser reports whether actor may perform op on target's user
// record. Destructive operations on one's own record are always denied;
// otherwise the answer is CanActOnRole. Tenant scope is not consulted, see
// CanManageUserInScope.
func (r *Resolver) CanManageUser(actor Actor, target TargetUser, op ManageOperation) bool {
	if !op.Valid() {
		return false
	}
	if op.Destructive() && actor.ID != "" && actor.ID == target.ID {
		return false
	}
	return r.CanActOnRole(actor.Role, target.Role)
}

// CanManageUserInScope is CanManageUser plus tenant containment: unless the
// actor is universal, the target must match every scope level the actor is
// pinned to. A target record without a business is outside any pinned actor.
func (r *Resolver) CanManageUserInScope(actor Actor, target TargetUser, op ManageOperation) bool {
	if !r.CanManageUser(actor, target, op) {
		return false
	}
	if r.hierarchy.IsUniversal(actor.Role) {
		return true
	}
	return InScope(target.Scope, actor.Scope)
}

func (r *Resolver) record(actor Actor, action Action, resource Resource, d Decision) {
	r.metrics.RecordDecision(d.Granted, d.Reason)
	if d.Granted {
		return
	}
	r.logger.WithFields(map[string]interface{}{
		"actor_id": actor.ID,
		"role":     string(actor.Role),
		"action":   string(action),
		"resource": string(resource),
		"reason":   d.Reason,
	}).Debug("permission denied")
}
