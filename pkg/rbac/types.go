package rbac

// Role is a member of the closed role enumeration
type Role string

const (
	RoleSuperAdmin        Role = "SUPER_ADMIN"
	RolePlatformAdmin     Role = "PLATFORM_ADMIN"
	RoleBusinessOwner     Role = "BUSINESS_OWNER"
	RoleBusinessAdmin     Role = "BUSINESS_ADMIN"
	RoleLocationManager   Role = "LOCATION_MANAGER"
	RoleDepartmentManager Role = "DEPARTMENT_MANAGER"
	RolePractitioner      Role = "PRACTITIONER"
	RoleReceptionist      Role = "RECEPTIONIST"
	RoleClient            Role = "CLIENT"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionManage Action = "MANAGE"
	ActionAssign Action = "ASSIGN"
	ActionExport Action = "EXPORT"
)

// Resource represents a resource type in the system
type Resource string

const (
	ResourceBusiness     Resource = "BUSINESS"
	ResourceLocation     Resource = "LOCATION"
	ResourceDepartment   Resource = "DEPARTMENT"
	ResourceStaff        Resource = "STAFF"
	ResourceProspect     Resource = "PROSPECT"
	ResourceClient       Resource = "CLIENT"
	ResourceAppointment  Resource = "APPOINTMENT"
	ResourceService      Resource = "SERVICE"
	ResourceCalendar     Resource = "CALENDAR"
	ResourceRole         Resource = "ROLE"
	ResourcePermission   Resource = "PERMISSION"
	ResourceReport       Resource = "REPORT"
	ResourceNotification Resource = "NOTIFICATION"
)

// AllActions returns every known action
func AllActions() []Action {
	return []Action{
		ActionCreate, ActionRead, ActionUpdate, ActionDelete,
		ActionManage, ActionAssign, ActionExport,
	}
}

// AllResources returns every known resource
func AllResources() []Resource {
	return []Resource{
		ResourceBusiness, ResourceLocation, ResourceDepartment, ResourceStaff,
		ResourceProspect, ResourceClient, ResourceAppointment, ResourceService,
		ResourceCalendar, ResourceRole, ResourcePermission, ResourceReport,
		ResourceNotification,
	}
}

// Actor is the principal a decision is made for
type Actor struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Scope Scope  `json:"scope"`
}

// TargetUser is the user record an actor wants to manage
type TargetUser struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Scope Scope  `json:"scope"`
}

// ManageOperation is an operation on another user's record
type ManageOperation string

const (
	ManageView       ManageOperation = "view"
	ManageUpdate     ManageOperation = "update"
	ManageDemote     ManageOperation = "demote"
	ManageDeactivate ManageOperation = "deactivate"
	ManageDelete     ManageOperation = "delete"
)

// Valid reports whether op is a known operation
func (op ManageOperation) Valid() bool {
	switch op {
	case ManageView, ManageUpdate, ManageDemote, ManageDeactivate, ManageDelete:
		return true
	}
	return false
}

// Destructive reports whether op may never target the actor's own record
func (op ManageOperation) Destructive() bool {
	switch op {
	case ManageDemote, ManageDeactivate, ManageDelete:
		return true
	}
	return false
}

// Decision reasons
const (
	ReasonUniversalRole      = "universal_role"
	ReasonGranted            = "granted"
	ReasonScopeGranted       = "scope_granted"
	ReasonNotGranted         = "not_granted"
	ReasonOutOfScope         = "out_of_scope"
	ReasonUnknownRole        = "unknown_role"
	ReasonPermissionInactive = "permission_inactive"
)

// Decision is the result of evaluating one authorization query. It is
// never persisted.
type Decision struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
}

func allow(reason string) Decision { return Decision{Granted: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Granted: false, Reason: reason} }
