package account

import (
	"context"
	"errors"
	"os"
	"time"

	"periodico/authority"
	"periodico/bizerror"
	"periodico/idgen"
	"periodico/misc"
	"periodico/persistence"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
	"github.com/sony/sonyflake"
)

var (
	roleIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})
	permIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	LoadPermsFunc = loadPerms

	// permsCache keeps resolved permission sets briefly, one entry per user.
	permsCache = cache.New(1*time.Minute, 5*time.Minute)
)

const (
	seedAdminRoleID   = types.ID(1)
	seedAdminUserID   = types.ID(1)
	seedAdminBindID   = types.ID(1)
	seedEditPermID    = types.ID(2)
	seedDeletePermID  = types.ID(3)
	seedAdminUsername = "admin"
)

type loadedPerms struct {
	Perms authority.Permissions
	Admin bool
}

func LoadPermsFuncReset() {
	LoadPermsFunc = loadPerms
}

// loadPerms resolves the effective permission set of a user: the union of
// permission descriptions over active grant rows, and the admin capability
// over active role bindings.
func loadPerms(ctx context.Context, uid types.ID) (authority.Permissions, bool) {
	if cached, found := permsCache.Get(uid.String()); found {
		if lp, ok := cached.(*loadedPerms); ok {
			return lp.Perms, lp.Admin
		}
	}

	db := persistence.ActiveDataSourceManager.GormDB(ctx)

	var roles []authority.Role
	err := db.Model(&authority.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND user_roles.status = ? AND roles.status = ?",
			uid, misc.StatusActive, misc.StatusActive).
		Find(&roles).Error
	if err != nil {
		panic(err)
	}
	admin := false
	for _, r := range roles {
		if r.Admin {
			admin = true
			break
		}
	}

	perms := authority.Permissions{}
	err = db.Model(&authority.Permission{}).
		Joins("JOIN detail_permissions ON detail_permissions.permission_id = permissions.id").
		Where("detail_permissions.user_id = ? AND detail_permissions.status = ? AND permissions.status = ?",
			uid, misc.StatusActive, misc.StatusActive).
		Pluck("permissions.description", &perms).Error
	if err != nil {
		panic(err)
	}

	permsCache.Set(uid.String(), &loadedPerms{Perms: perms, Admin: admin}, cache.DefaultExpiration)
	return perms, admin
}

// HasPermission reports whether the user effectively holds the permission,
// either through an active grant or through an admin role.
func HasPermission(ctx context.Context, uid types.ID, desc string) bool {
	perms, admin := LoadPermsFunc(ctx, uid)
	return admin || perms.HasPermission(desc)
}

func InvalidateUserPerms(uid types.ID) {
	permsCache.Delete(uid.String())
}

func FlushPermsCache() {
	permsCache.Flush()
}

// DefaultSecurityConfiguration seeds the administrator role (admin is a
// capability column, not a distinguished name), the publication write
// permissions and the initial admin account.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())

	seeds := []interface{}{
		&authority.Role{ID: seedAdminRoleID, Description: "Administrator", Admin: true, Status: misc.StatusActive},
		&authority.Permission{ID: seedEditPermID, Description: authority.PermEditPublication, Status: misc.StatusActive},
		&authority.Permission{ID: seedDeletePermID, Description: authority.PermDeletePublication, Status: misc.StatusActive},
	}
	for _, seed := range seeds {
		if err := db.Save(seed).Error; err != nil {
			return err
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: seedAdminUserID}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			secret, err := HashSecret(initialAdminPassword)
			if err != nil {
				return err
			}
			if err := tx.Save(&User{ID: seedAdminUserID, Name: "Administrator", Username: seedAdminUsername,
				Secret: secret, Status: misc.StatusActive}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Save(&authority.UserRole{ID: seedAdminBindID, UserID: seedAdminUserID,
			RoleID: seedAdminRoleID, Status: misc.StatusActive}).Error
	})
}

type RoleCreation struct {
	Description string `json:"description" binding:"required,lte=64"`
	Admin       bool   `json:"admin"`
}

type RoleUpdation struct {
	Description string `json:"description" binding:"required,lte=64"`
	Admin       bool   `json:"admin"`
	Status      string `json:"status" binding:"required,oneof=Active Inactive"`
}

type PermissionCreation struct {
	Description string `json:"description" binding:"required,lte=64"`
}

type PermissionUpdation struct {
	Description string `json:"description" binding:"required,lte=64"`
	Status      string `json:"status" binding:"required,oneof=Active Inactive"`
}

var (
	CreateRoleFunc = CreateRole
	QueryRolesFunc = QueryRoles
	UpdateRoleFunc = UpdateRole
	DeleteRoleFunc = DeleteRole

	CreatePermissionFunc = CreatePermission
	QueryPermissionsFunc = QueryPermissions
	UpdatePermissionFunc = UpdatePermission
	DeletePermissionFunc = DeletePermission
)

func CreateRole(c *RoleCreation, sec *session.Context) (*authority.Role, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}
	r := authority.Role{ID: idgen.NextID(roleIdWorker), Description: c.Description,
		Admin: c.Admin, Status: misc.StatusActive}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryRoles(sec *session.Context) ([]authority.Role, error) {
	roles := []authority.Role{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func UpdateRole(id types.ID, u *RoleUpdation, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		role := authority.Role{ID: id}
		if err := tx.Where(&role).First(&role).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{"description": u.Description, "admin": u.Admin, "status": u.Status}
		return tx.Model(&authority.Role{ID: id}).Update(changes).Error
	})
	if err != nil {
		return err
	}
	FlushPermsCache()
	return nil
}

// DeleteRole removes the role and cascades over its user bindings.
func DeleteRole(id types.ID, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		role := authority.Role{ID: id}
		if err := tx.Where(&role).First(&role).Error; err != nil {
			return err
		}
		if err := tx.Delete(authority.UserRole{}, "role_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(authority.Role{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	FlushPermsCache()
	return nil
}

func CreatePermission(c *PermissionCreation, sec *session.Context) (*authority.Permission, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}
	p := authority.Permission{ID: idgen.NextID(permIdWorker), Description: c.Description, Status: misc.StatusActive}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func QueryPermissions(sec *session.Context) ([]authority.Permission, error) {
	perms := []authority.Permission{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Order("id ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func UpdatePermission(id types.ID, u *PermissionUpdation, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		perm := authority.Permission{ID: id}
		if err := tx.Where(&perm).First(&perm).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{"description": u.Description, "status": u.Status}
		return tx.Model(&authority.Permission{ID: id}).Update(changes).Error
	})
	if err != nil {
		return err
	}
	FlushPermsCache()
	return nil
}

// DeletePermission removes the permission and cascades over its grants.
func DeletePermission(id types.ID, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		perm := authority.Permission{ID: id}
		if err := tx.Where(&perm).First(&perm).Error; err != nil {
			return err
		}
		if err := tx.Delete(authority.DetailPermission{}, "permission_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(authority.Permission{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	FlushPermsCache()
	return nil
}
