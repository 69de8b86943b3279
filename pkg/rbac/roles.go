package rbac

// BuiltInRoles returns the static role hierarchy table
func BuiltInRoles() []RoleDescriptor {
	return []RoleDescriptor{
		{Role: RoleSuperAdmin, Rank: 100, Universal: true},
		{Role: RolePlatformAdmin, Rank: 90, Universal: true},
		{
			Role: RoleBusinessOwner,
			Rank: 80,
			Grants: grants(
				unscoped(ResourceBusiness, ActionCreate),
				scoped(ResourceBusiness, ActionRead, ActionUpdate, ActionManage, ActionExport),
				scoped(ResourceLocation, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceDepartment, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceStaff, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceProspect, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionExport),
				scoped(ResourceClient, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionExport),
				scoped(ResourceAppointment, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionExport),
				scoped(ResourceService, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceCalendar, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceRole, ActionRead, ActionAssign),
				scoped(ResourcePermission, ActionRead),
				scoped(ResourceReport, ActionRead, ActionExport),
				scoped(ResourceNotification, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
			),
		},
		{
			Role: RoleBusinessAdmin,
			Rank: 70,
			Grants: grants(
				scoped(ResourceBusiness, ActionRead, ActionUpdate),
				scoped(ResourceLocation, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceDepartment, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceStaff, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceProspect, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionExport),
				scoped(ResourceClient, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage, ActionExport),
				scoped(ResourceAppointment, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceService, ActionCreate, ActionRead, ActionUpdate, ActionDelete),
				scoped(ResourceCalendar, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceRole, ActionRead, ActionAssign),
				scoped(ResourcePermission, ActionRead),
				scoped(ResourceReport, ActionRead, ActionExport),
				scoped(ResourceNotification, ActionCreate, ActionRead, ActionUpdate),
			),
		},
		{
			Role: RoleLocationManager,
			Rank: 60,
			Grants: grants(
				scoped(ResourceBusiness, ActionRead),
				scoped(ResourceLocation, ActionRead, ActionUpdate),
				scoped(ResourceDepartment, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceStaff, ActionCreate, ActionRead, ActionUpdate, ActionManage),
				scoped(ResourceProspect, ActionCreate, ActionRead, ActionUpdate, ActionManage),
				scoped(ResourceClient, ActionCreate, ActionRead, ActionUpdate, ActionManage),
				scoped(ResourceAppointment, ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage),
				scoped(ResourceService, ActionRead),
				scoped(ResourceCalendar, ActionCreate, ActionRead, ActionUpdate, ActionManage),
				scoped(ResourceRole, ActionRead),
				scoped(ResourceReport, ActionRead),
				scoped(ResourceNotification, ActionCreate, ActionRead),
			),
		},
		{
			Role: RoleDepartmentManager,
			Rank: 50,
			Grants: grants(
				scoped(ResourceBusiness, ActionRead),
				scoped(ResourceLocation, ActionRead),
				scoped(ResourceDepartment, ActionRead, ActionUpdate),
				scoped(ResourceStaff, ActionRead, ActionUpdate),
				scoped(ResourceProspect, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceClient, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceAppointment, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceService, ActionRead),
				scoped(ResourceCalendar, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceReport, ActionRead),
				scoped(ResourceNotification, ActionRead),
			),
		},
		{
			Role: RolePractitioner,
			Rank: 40,
			Grants: grants(
				scoped(ResourceBusiness, ActionRead),
				scoped(ResourceLocation, ActionRead),
				scoped(ResourceClient, ActionRead, ActionUpdate),
				scoped(ResourceAppointment, ActionRead, ActionUpdate),
				scoped(ResourceService, ActionRead),
				scoped(ResourceCalendar, ActionRead, ActionUpdate),
				scoped(ResourceNotification, ActionRead),
			),
		},
		{
			Role: RoleReceptionist,
			Rank: 30,
			Grants: grants(
				scoped(ResourceBusiness, ActionRead),
				scoped(ResourceLocation, ActionRead),
				scoped(ResourceProspect, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceClient, ActionCreate, ActionRead, ActionUpdate),
				scoped(ResourceAppointment, ActionCreate, ActionRead, ActionUpdate, ActionDelete),
				scoped(ResourceService, ActionRead),
				scoped(ResourceCalendar, ActionRead),
				scoped(ResourceNotification, ActionCreate, ActionRead),
			),
		},
		{
			Role: RoleClient,
			Rank: 10,
			Grants: grants(
				// public business directory
				unscoped(ResourceBusiness, ActionRead),
				unscoped(ResourceService, ActionRead),
				scoped(ResourceAppointment, ActionCreate, ActionRead),
				scoped(ResourceNotification, ActionRead),
			),
		},
	}
}

func scoped(resource Resource, actions ...Action) []Grant {
	return grantsFor(resource, true, actions)
}

func unscoped(resource Resource, actions ...Action) []Grant {
	return grantsFor(resource, false, actions)
}

func grantsFor(resource Resource, isScoped bool, actions []Action) []Grant {
	out := make([]Grant, 0, len(actions))
	for _, action := range actions {
		out = append(out, Grant{Action: action, Resource: resource, Scoped: isScoped})
	}
	return out
}

func grants(groups ...[]Grant) []Grant {
	var out []Grant
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
