package services

import (
	"github.com/Legalistas/brixar-sub002/internal/models"
)

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID uint
	Role   models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// HasRole reports whether the caller holds any of roles.
func (p Principal) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// StaffRoles may manage sales.
var StaffRoles = []models.Role{models.RoleAdmin, models.RoleSeller}
