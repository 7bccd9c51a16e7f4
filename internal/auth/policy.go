package auth

import "github.com/yingmeanshard/yingshop/internal/user/domain"

// Action names a protected operation.
type Action string

const (
	ActionManageCatalog Action = "catalog:manage"
	ActionManageStock   Action = "stock:manage"
	ActionViewAllOrders Action = "orders:view-all"
	ActionUpdateStatus  Action = "orders:update-status"
	ActionManageUsers   Action = "users:manage"
)

// policy is the whole authorization model: which roles may perform which
// actions. Everything not listed here only needs authentication.
var policy = map[Action][]domain.Role{
	ActionManageCatalog: {domain.RoleAdmin},
	ActionManageStock:   {domain.RoleAdmin, domain.RoleStaff},
	ActionViewAllOrders: {domain.RoleAdmin, domain.RoleStaff},
	ActionUpdateStatus:  {domain.RoleAdmin, domain.RoleStaff},
	ActionManageUsers:   {domain.RoleAdmin},
}

// Allowed reports whether the role may perform the action. Unknown actions
// are denied.
func Allowed(role domain.Role, action Action) bool {
	for _, allowed := range policy[action] {
		if role == allowed {
			return true
		}
	}
	return false
}
