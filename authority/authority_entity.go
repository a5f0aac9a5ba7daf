package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

const (
	PermEditPublication   = "edit_publication"
	PermDeletePublication = "delete_publication"
)

type Role struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Description string `json:"description" gorm:"unique_index:uni_role_desc"`
	// Admin grants every permission, regardless of DetailPermission rows.
	Admin  bool   `json:"admin"`
	Status string `json:"status"`
}

type Permission struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Description string `json:"description" gorm:"unique_index:uni_perm_desc"`
	Status      string `json:"status"`
}

// UserRole is the join row "this user holds this role".
type UserRole struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Status string   `json:"status"`
	UserID types.ID `json:"userId" gorm:"unique_index:uni_user_role"`
	RoleID types.ID `json:"roleId" gorm:"unique_index:uni_user_role"`
}

// DetailPermission is the join row "this user has been granted this permission".
type DetailPermission struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Status       string   `json:"status"`
	UserID       types.ID `json:"userId" gorm:"unique_index:uni_user_perm"`
	PermissionID types.ID `json:"permissionId" gorm:"unique_index:uni_user_perm"`
}

type Permissions []string

func (c Permissions) HasPermission(desc string) bool {
	for _, v := range c {
		if strings.EqualFold(v, desc) {
			return true
		}
	}
	return false
}
