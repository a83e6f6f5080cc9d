package auth

const (
	RoleEmployee    = "Employee"
	RoleManager     = "Manager"
	RoleHR          = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	PermEmployeesRead   = "core.employees.read"
	PermEmployeesWrite  = "core.employees.write"
	PermDocumentsDelete = "core.documents.delete"
	PermOrgRead         = "core.org.read"
	PermOrgWrite        = "core.org.write"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermDocumentsDelete,
	PermOrgRead,
	PermOrgWrite,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermOrgRead,
	},
	RoleManager: {
		PermEmployeesRead,
		PermOrgRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermDocumentsDelete,
		PermOrgRead,
		PermOrgWrite,
	},
	RoleSystemAdmin: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermDocumentsDelete,
		PermOrgRead,
		PermOrgWrite,
	},
}

func HasPermission(role, permission string) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true
		}
	}
	return false
}
