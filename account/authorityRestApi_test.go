package account_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"periodico/account"
	"periodico/authority"
	"periodico/bizerror"
	"periodico/misc"
	"periodico/session"
	"periodico/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func buildAuthorityTestRouter() *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	account.RegisterAuthorityRestAPI(router)
	return router
}

func TestRolesRestAPI(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return 200 with created role", func(t *testing.T) {
		account.CreateRoleFunc = func(c *account.RoleCreation, sec *session.Context) (*authority.Role, error) {
			return &authority.Role{ID: 10, Description: c.Description, Admin: c.Admin, Status: misc.StatusActive}, nil
		}
		defer func() { account.CreateRoleFunc = account.CreateRole }()

		req := httptest.NewRequest(http.MethodPost, account.PathRoles, bytes.NewReader([]byte(
			`{"description":"Editors"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, buildAuthorityTestRouter())
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"10","description":"Editors","admin":false,"status":"Active"}`))
	})

	t.Run("should return 200 with role list", func(t *testing.T) {
		account.QueryRolesFunc = func(sec *session.Context) ([]authority.Role, error) {
			return []authority.Role{{ID: 1, Description: "Administrator", Admin: true, Status: misc.StatusActive}}, nil
		}
		defer func() { account.QueryRolesFunc = account.QueryRoles }()

		req := httptest.NewRequest(http.MethodGet, account.PathRoles, nil)
		status, body, _ := testinfra.ExecuteRequest(req, buildAuthorityTestRouter())
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[{"id":"1","description":"Administrator","admin":true,"status":"Active"}]`))
	})

	t.Run("should return 204 on role update and delete", func(t *testing.T) {
		account.UpdateRoleFunc = func(id types.ID, u *account.RoleUpdation, sec *session.Context) error {
			return nil
		}
		account.DeleteRoleFunc = func(id types.ID, sec *session.Context) error {
			return nil
		}
		defer func() {
			account.UpdateRoleFunc = account.UpdateRole
			account.DeleteRoleFunc = account.DeleteRole
		}()

		router := buildAuthorityTestRouter()
		req := httptest.NewRequest(http.MethodPut, account.PathRoles+"/10", bytes.NewReader([]byte(
			`{"description":"Editors","status":"Inactive"}`)))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))

		req = httptest.NewRequest(http.MethodDelete, account.PathRoles+"/10", nil)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
	})
}

func TestRoleAssignmentsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should assign role through body and unassign through query", func(t *testing.T) {
		var assigned account.RoleAssignment
		account.AssignRoleFunc = func(c account.RoleAssignment, sec *session.Context) (*authority.UserRole, error) {
			assigned = c
			return &authority.UserRole{ID: 100, UserID: c.UserID, RoleID: c.RoleID, Status: misc.StatusActive}, nil
		}
		var unassigned account.RoleAssignment
		account.UnassignRoleFunc = func(c account.RoleAssignment, sec *session.Context) error {
			unassigned = c
			return nil
		}
		defer func() {
			account.AssignRoleFunc = account.AssignRole
			account.UnassignRoleFunc = account.UnassignRole
		}()

		router := buildAuthorityTestRouter()
		req := httptest.NewRequest(http.MethodPost, account.PathRoleAssignments, bytes.NewReader([]byte(
			`{"userId":"7","roleId":"2"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"100","status":"Active","userId":"7","roleId":"2"}`))
		Expect(assigned).To(Equal(account.RoleAssignment{UserID: 7, RoleID: 2}))

		req = httptest.NewRequest(http.MethodDelete, account.PathRoleAssignments+"?userId=7&roleId=2", nil)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(unassigned).To(Equal(account.RoleAssignment{UserID: 7, RoleID: 2}))
	})

	t.Run("should return 409 when a parent row is missing", func(t *testing.T) {
		account.AssignRoleFunc = func(c account.RoleAssignment, sec *session.Context) (*authority.UserRole, error) {
			return nil, bizerror.ErrReferentialIntegrity
		}
		defer func() { account.AssignRoleFunc = account.AssignRole }()

		req := httptest.NewRequest(http.MethodPost, account.PathRoleAssignments, bytes.NewReader([]byte(
			`{"userId":"7","roleId":"404"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, buildAuthorityTestRouter())
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"common.referential_integrity","message":"referential integrity violated","data":null}`))
	})
}

func TestPermissionGrantsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should grant permission through body and revoke through query", func(t *testing.T) {
		account.GrantPermissionFunc = func(c account.PermissionGrant, sec *session.Context) (*authority.DetailPermission, error) {
			return &authority.DetailPermission{ID: 200, UserID: c.UserID, PermissionID: c.PermissionID,
				Status: misc.StatusActive}, nil
		}
		var revoked account.PermissionGrant
		account.RevokePermissionFunc = func(c account.PermissionGrant, sec *session.Context) error {
			revoked = c
			return nil
		}
		defer func() {
			account.GrantPermissionFunc = account.GrantPermission
			account.RevokePermissionFunc = account.RevokePermission
		}()

		router := buildAuthorityTestRouter()
		req := httptest.NewRequest(http.MethodPost, account.PathPermissionGrants, bytes.NewReader([]byte(
			`{"userId":"7","permissionId":"3"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"200","status":"Active","userId":"7","permissionId":"3"}`))

		req = httptest.NewRequest(http.MethodDelete, account.PathPermissionGrants+"?userId=7&permissionId=3", nil)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNoContent))
		Expect(revoked).To(Equal(account.PermissionGrant{UserID: 7, PermissionID: 3}))
	})
}
