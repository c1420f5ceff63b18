package models

// Role controls which endpoints a principal may call.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleSeller    Role = "SELLER"
	RoleBuilders  Role = "BUILDERS"
	RoleInvestors Role = "INVESTORS"
	RoleCustomer  Role = "CUSTOMER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleBuilders, RoleInvestors, RoleCustomer:
		return true
	}
	return false
}

// User represents a user in the system.
type User struct {
	Base
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:191;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'CUSTOMER'" json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
