// Package rbac decides whether a staff member may perform an action on a
// resource inside a business.
//
// # Overview
//
// Authorization is computed from three inputs: the actor's role, the
// (action, resource) pair being attempted, and the tenant scope of the
// request. Roles live in a fixed, ranked hierarchy. Each non-universal role
// carries a grant table; universal roles (SUPER_ADMIN, PLATFORM_ADMIN) are
// granted everything and ignore scope.
//
// # Roles
//
//	Role                 Rank  Notes
//	SUPER_ADMIN          100   universal
//	PLATFORM_ADMIN        90   universal
//	BUSINESS_OWNER        80   may create businesses
//	BUSINESS_ADMIN        70
//	LOCATION_MANAGER      60
//	DEPARTMENT_MANAGER    50
//	PRACTITIONER          40
//	RECEPTIONIST          30
//	CLIENT                10   public directory reads are unscoped
//
// Rank orders who may act on whom: an actor may act on a target role only
// when its rank is strictly greater, unless the actor is universal.
//
// # Grants and Scope
//
// A grant is either unscoped, in which case the request's scope is
// irrelevant, or scoped. For a scoped grant every level named by the
// request (business, location, department) must equal the actor's value at
// that level. A level the request leaves empty imposes no constraint:
//
//	actor := rbac.Actor{Role: rbac.RoleBusinessOwner, Scope: rbac.Scope{BusinessID: "B1"}}
//
//	r := rbac.NewResolver(nil)
//	r.HasPermission(actor, rbac.ActionManage, rbac.ResourceProspect, rbac.Scope{BusinessID: "B1"}) // true
//	r.HasPermission(actor, rbac.ActionManage, rbac.ResourceProspect, rbac.Scope{BusinessID: "B2"}) // false
//
// Pairs absent from the table are denied. Matching is exact: there are no
// wildcards, and role, action and resource names are case-sensitive.
//
// # Decisions
//
// Decide returns a Decision carrying a machine-readable reason
// (universal_role, granted, scope_granted, not_granted, out_of_scope,
// unknown_role). RequirePermission turns a denial into an
// *errs.AuthorizationError.
//
// # Catalog Gate
//
// When constructed WithCatalogGate, Evaluate additionally looks up the
// catalog entry named RESOURCE_ACTION for a granted pair. An inactive entry
// withdraws the grant (reason permission_inactive); a missing entry leaves
// the table decision in place. A storage failure denies and returns the
// error.
//
// # Managing Users
//
// CanManageUser combines rank with a self-protection rule: demote,
// deactivate and delete may never target the actor's own record, even for
// universal actors. CanManageUserInScope additionally keeps a pinned actor
// inside its own business and location.
//
// # Manager
//
// Manager wires a catalog.Repository, the optional cache tiers, the catalog
// service and the resolver together:
//
//	m := rbac.NewManager(catalog.NewSQLRepository(db), rbac.DefaultConfig())
//	if err := m.Initialize(ctx, db); err != nil {
//		return err
//	}
//	resp, err := m.CheckPermission(ctx, rbac.CheckRequest{...})
//
// Initialize runs the catalog migrations and seeds one system permission per
// granted pair. Seeding is idempotent.
package rbac
