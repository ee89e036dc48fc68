// File: internal/common/roles.go
package common

// Role is the access role attached to every user account.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleHeadManager  Role = "head_manager"
	RoleStoreManager Role = "store_manager"
	RoleCashier      Role = "cashier"
	RoleSupplier     Role = "supplier"
)

// AllRoles lists every role the system knows about.
var AllRoles = []Role{RoleAdmin, RoleHeadManager, RoleStoreManager, RoleCashier, RoleSupplier}

// PrivilegedRoles may run system-wide maintenance such as notification trigger checks.
var PrivilegedRoles = []Role{RoleAdmin, RoleHeadManager}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether r is allowed to run privileged operations.
func (r Role) IsPrivileged() bool {
	for _, p := range PrivilegedRoles {
		if r == p {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ManagerRoles may raise restock and transfer requests.
var ManagerRoles = []Role{RoleAdmin, RoleHeadManager, RoleStoreManager}

// StoreStaffRoles work inside stores and may record stock counts.
var StoreStaffRoles = []Role{RoleAdmin, RoleHeadManager, RoleStoreManager, RoleCashier}
