package account

import (
	"net/http"
	"periodico/bizerror"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathRoles            = "/roles"
	PathPermissions      = "/permisos"
	PathRoleAssignments  = "/asignaciones/roles"
	PathPermissionGrants = "/asignaciones/permisos"
)

func RegisterAuthorityRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	roles := r.Group(PathRoles, middleWares...)
	roles.GET("", handleQueryRoles)
	roles.POST("", handleCreateRole)
	roles.PUT("/:id", handleUpdateRole)
	roles.DELETE("/:id", handleDeleteRole)

	assignments := r.Group(PathRoleAssignments, middleWares...)
	assignments.POST("", handleAssignRole)
	assignments.DELETE("", handleUnassignRole)

	perms := r.Group(PathPermissions, middleWares...)
	perms.GET("", handleQueryPermissions)
	perms.POST("", handleCreatePermission)
	perms.PUT("/:id", handleUpdatePermission)
	perms.DELETE("/:id", handleDeletePermission)

	grants := r.Group(PathPermissionGrants, middleWares...)
	grants.POST("", handleGrantPermission)
	grants.DELETE("", handleRevokePermission)
}

func handleQueryRoles(c *gin.Context) {
	records, err := QueryRolesFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreateRole(c *gin.Context) {
	creation := RoleCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateRoleFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateRole(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updation := RoleUpdation{}
	if err := c.ShouldBindBodyWith(&updation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateRoleFunc(id, &updation, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDeleteRole(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteRoleFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleAssignRole(c *gin.Context) {
	assignment := RoleAssignment{}
	if err := c.ShouldBindBodyWith(&assignment, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := AssignRoleFunc(assignment, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUnassignRole(c *gin.Context) {
	assignment := RoleAssignment{}
	if err := c.MustBindWith(&assignment, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UnassignRoleFunc(assignment, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleQueryPermissions(c *gin.Context) {
	records, err := QueryPermissionsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreatePermission(c *gin.Context) {
	creation := PermissionCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreatePermissionFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdatePermission(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updation := PermissionUpdation{}
	if err := c.ShouldBindBodyWith(&updation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdatePermissionFunc(id, &updation, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDeletePermission(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeletePermissionFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleGrantPermission(c *gin.Context) {
	grant := PermissionGrant{}
	if err := c.ShouldBindBodyWith(&grant, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := GrantPermissionFunc(grant, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleRevokePermission(c *gin.Context) {
	grant := PermissionGrant{}
	if err := c.MustBindWith(&grant, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := RevokePermissionFunc(grant, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
