package account_test

import (
	"context"
	"testing"

	"periodico/account"
	"periodico/authority"
	"periodico/bizerror"
	"periodico/misc"
	"periodico/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestLoadPerms(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should resolve permissions over active rows only", func(t *testing.T) {
		testDatabase := setupAccountTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())

		Expect(db.Save(&authority.Role{ID: 1, Description: "Editors", Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.Role{ID: 2, Description: "Retired", Admin: true, Status: misc.StatusInactive}).Error).To(BeNil())
		Expect(db.Save(&authority.Permission{ID: 10, Description: authority.PermEditPublication, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.Permission{ID: 11, Description: authority.PermDeletePublication, Status: misc.StatusInactive}).Error).To(BeNil())

		Expect(db.Save(&authority.UserRole{ID: 100, UserID: 7, RoleID: 1, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.UserRole{ID: 101, UserID: 7, RoleID: 2, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.DetailPermission{ID: 200, UserID: 7, PermissionID: 10, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.DetailPermission{ID: 201, UserID: 7, PermissionID: 11, Status: misc.StatusActive}).Error).To(BeNil())

		perms, admin := account.LoadPermsFunc(context.TODO(), 7)
		Expect(admin).To(BeFalse())
		Expect(perms).To(Equal(authority.Permissions{authority.PermEditPublication}))

		Expect(account.HasPermission(context.TODO(), 7, authority.PermEditPublication)).To(BeTrue())
		Expect(account.HasPermission(context.TODO(), 7, authority.PermDeletePublication)).To(BeFalse())
	})

	t.Run("admin role should grant everything", func(t *testing.T) {
		testDatabase := setupAccountTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())

		Expect(db.Save(&authority.Role{ID: 1, Description: "Administrator", Admin: true, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.UserRole{ID: 100, UserID: 7, RoleID: 1, Status: misc.StatusActive}).Error).To(BeNil())

		perms, admin := account.LoadPermsFunc(context.TODO(), 7)
		Expect(admin).To(BeTrue())
		Expect(perms).To(Equal(authority.Permissions{}))
		Expect(account.HasPermission(context.TODO(), 7, authority.PermDeletePublication)).To(BeTrue())
	})

	t.Run("should serve cached result until invalidated", func(t *testing.T) {
		testDatabase := setupAccountTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())

		Expect(db.Save(&authority.Permission{ID: 10, Description: authority.PermEditPublication, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(db.Save(&authority.DetailPermission{ID: 200, UserID: 7, PermissionID: 10, Status: misc.StatusActive}).Error).To(BeNil())

		perms, _ := account.LoadPermsFunc(context.TODO(), 7)
		Expect(perms).To(Equal(authority.Permissions{authority.PermEditPublication}))

		Expect(db.Delete(authority.DetailPermission{}, "id = ?", 200).Error).To(BeNil())
		perms, _ = account.LoadPermsFunc(context.TODO(), 7)
		Expect(perms).To(Equal(authority.Permissions{authority.PermEditPublication}))

		account.InvalidateUserPerms(7)
		perms, _ = account.LoadPermsFunc(context.TODO(), 7)
		Expect(perms).To(Equal(authority.Permissions{}))
	})
}

func TestDefaultSecurityConfiguration(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should seed admin role, permissions and initial admin account", func(t *testing.T) {
		testDatabase := setupAccountTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())

		Expect(account.DefaultSecurityConfiguration()).To(BeNil())
		// idempotent
		Expect(account.DefaultSecurityConfiguration()).To(BeNil())

		role := authority.Role{}
		Expect(db.Where(&authority.Role{ID: 1}).First(&role).Error).To(BeNil())
		Expect(role.Admin).To(BeTrue())
		Expect(role.Status).To(Equal(misc.StatusActive))

		var count int
		Expect(db.Model(&authority.Permission{}).Count(&count).Error).To(BeNil())
		Expect(count).To(Equal(2))

		admin := account.User{}
		Expect(db.Where(&account.User{ID: 1}).First(&admin).Error).To(BeNil())
		Expect(admin.Username).To(Equal("admin"))
		Expect(admin.Secret).ToNot(Equal("admin123"))

		_, err := account.AuthenticateUser("admin", "admin123", testinfra.BuildSecCtx(0, false))
		Expect(err).To(BeNil())

		perms, isAdmin := account.LoadPermsFunc(context.TODO(), 1)
		Expect(isAdmin).To(BeTrue())
		Expect(perms).To(Equal(authority.Permissions{}))
	})
}

func TestRoleManage(t *testing.T) {
	RegisterTestingT(t)

	t.Run("role CRUD should be admin gated", func(t *testing.T) {
		setupAccountTestDatabase(t)

		sec := testinfra.BuildSecCtx(1, false)
		_, err := account.CreateRole(&account.RoleCreation{Description: "Editors"}, sec)
		Expect(err).To(Equal(bizerror.ErrForbidden))
		Expect(account.UpdateRole(1, &account.RoleUpdation{Description: "Editors", Status: misc.StatusActive}, sec)).
			To(Equal(bizerror.ErrForbidden))
		Expect(account.DeleteRole(1, sec)).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should manage roles and cascade bindings on delete", func(t *testing.T) {
		testDatabase := setupAccountTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())
		sec := testinfra.BuildSecCtx(1, true)

		role, err := account.CreateRole(&account.RoleCreation{Description: "Editors"}, sec)
		Expect(err).To(BeNil())
		Expect(role.ID).ToNot(BeZero())
		Expect(role.Admin).To(BeFalse())
		Expect(role.Status).To(Equal(misc.StatusActive))

		roles, err := account.QueryRoles(sec)
		Expect(err).To(BeNil())
		Expect(len(roles)).To(Equal(1))

		Expect(account.UpdateRole(role.ID, &account.RoleUpdation{Description: "Chief Editors",
			Admin: true, Status: misc.StatusInactive}, sec)).To(BeNil())
		updated := authority.Role{}
		Expect(db.Where(&authority.Role{ID: role.ID}).First(&updated).Error).To(BeNil())
		Expect(updated.Description).To(Equal("Chief Editors"))
		Expect(updated.Admin).To(BeTrue())
		Expect(updated.Status).To(Equal(misc.StatusInactive))

		Expect(db.Save(&authority.UserRole{ID: 100, UserID: 7, RoleID: role.ID, Status: misc.StatusActive}).Error).To(BeNil())
		Expect(account.DeleteRole(role.ID, sec)).To(BeNil())

		var count int
		Expect(db.Model(&authority.Role{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
		Expect(db.Model(&authority.UserRole{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})
}

func TestPermissionManage(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should manage permissions and cascade grants on delete", func(t *testing.T) {
		testDatabase := setupAccountTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())
		sec := testinfra.BuildSecCtx(1, true)

		_, err := account.CreatePermission(&account.PermissionCreation{Description: "publish_now"},
			testinfra.BuildSecCtx(1, false))
		Expect(err).To(Equal(bizerror.ErrForbidden))

		perm, err := account.CreatePermission(&account.PermissionCreation{Description: "publish_now"}, sec)
		Expect(err).To(BeNil())
		Expect(perm.ID).ToNot(BeZero())

		perms, err := account.QueryPermissions(sec)
		Expect(err).To(BeNil())
		Expect(len(perms)).To(Equal(1))

		Expect(account.UpdatePermission(perm.ID, &account.PermissionUpdation{Description: "publish_later",
			Status: misc.StatusInactive}, sec)).To(BeNil())
		updated := authority.Permission{}
		Expect(db.Where(&authority.Permission{ID: perm.ID}).First(&updated).Error).To(BeNil())
		Expect(updated.Description).To(Equal("publish_later"))
		Expect(updated.Status).To(Equal(misc.StatusInactive))

		Expect(db.Save(&authority.DetailPermission{ID: 200, UserID: 7, PermissionID: perm.ID,
			Status: misc.StatusActive}).Error).To(BeNil())
		Expect(account.DeletePermission(perm.ID, sec)).To(BeNil())

		var count int
		Expect(db.Model(&authority.Permission{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
		Expect(db.Model(&authority.DetailPermission{}).Count(&count).Error).To(BeNil())
		Expect(count).To(BeZero())
	})
}

func TestRoleManageNotFound(t *testing.T) {
	RegisterTestingT(t)

	t.Run("update and delete of missing rows should fail with not found", func(t *testing.T) {
		setupAccountTestDatabase(t)
		sec := testinfra.BuildSecCtx(1, true)

		Expect(account.UpdateRole(types.ID(404), &account.RoleUpdation{Description: "x",
			Status: misc.StatusActive}, sec)).ToNot(BeNil())
		Expect(account.DeleteRole(types.ID(404), sec)).ToNot(BeNil())
	})
}
