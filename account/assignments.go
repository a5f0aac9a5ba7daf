package account

import (
	"errors"

	"periodico/authority"
	"periodico/bizerror"
	"periodico/idgen"
	"periodico/misc"
	"periodico/persistence"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userRoleIdWorker   = sonyflake.NewSonyflake(sonyflake.Settings{})
	detailPermIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	AssignRoleFunc       = AssignRole
	UnassignRoleFunc     = UnassignRole
	GrantPermissionFunc  = GrantPermission
	RevokePermissionFunc = RevokePermission
)

type RoleAssignment struct {
	UserID types.ID `json:"userId" form:"userId" binding:"required"`
	RoleID types.ID `json:"roleId" form:"roleId" binding:"required"`
}

type PermissionGrant struct {
	UserID       types.ID `json:"userId" form:"userId" binding:"required"`
	PermissionID types.ID `json:"permissionId" form:"permissionId" binding:"required"`
}

func AssignRole(c RoleAssignment, sec *session.Context) (*authority.UserRole, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}

	r := authority.UserRole{ID: idgen.NextID(userRoleIdWorker), UserID: c.UserID,
		RoleID: c.RoleID, Status: misc.StatusActive}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := referencedRowsExist(tx, c.UserID, &authority.Role{ID: c.RoleID}); err != nil {
			return err
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	InvalidateUserPerms(c.UserID)
	return &r, nil
}

func UnassignRole(c RoleAssignment, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Delete(authority.UserRole{}, "user_id = ? AND role_id = ?", c.UserID, c.RoleID).Error; err != nil {
		return err
	}
	InvalidateUserPerms(c.UserID)
	return nil
}

func GrantPermission(c PermissionGrant, sec *session.Context) (*authority.DetailPermission, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}

	r := authority.DetailPermission{ID: idgen.NextID(detailPermIdWorker), UserID: c.UserID,
		PermissionID: c.PermissionID, Status: misc.StatusActive}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := referencedRowsExist(tx, c.UserID, &authority.Permission{ID: c.PermissionID}); err != nil {
			return err
		}
		return tx.Create(&r).Error
	})
	if err != nil {
		return nil, err
	}
	InvalidateUserPerms(c.UserID)
	return &r, nil
}

func RevokePermission(c PermissionGrant, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Delete(authority.DetailPermission{}, "user_id = ? AND permission_id = ?", c.UserID, c.PermissionID).Error; err != nil {
		return err
	}
	InvalidateUserPerms(c.UserID)
	return nil
}

// referencedRowsExist maps missing parents to a referential integrity error
// before the join row insert is attempted.
func referencedRowsExist(tx *gorm.DB, uid types.ID, parent interface{}) error {
	if err := tx.Where(&User{ID: uid}).First(&User{}).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrReferentialIntegrity
		}
		return err
	}
	if err := tx.Where(parent).First(parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrReferentialIntegrity
		}
		return err
	}
	return nil
}
