package sessions

import (
	"net/http"
	"strings"

	"periodico/account"
	"periodico/bizerror"
	"periodico/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathLogin    = "/auth/login"
	PathLogout   = "/auth/logout"
	PathPassword = "/auth/password"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func RegisterSessionsRestAPI(r *gin.Engine) {
	r.POST(PathLogin, handleLogin)
	r.POST(PathLogout, handleLogout)
	r.PUT(PathPassword, JwtAuthFilter(), handleUpdatePassword)
}

func handleLogin(c *gin.Context) {
	login := LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	anonymous := session.Context{Context: c.Request.Context()}
	user, err := account.AuthenticateUserFunc(login.Username, login.Password, &anonymous)
	if err != nil {
		panic(err)
	}

	identity := session.Identity{ID: user.ID, Name: user.Name}
	perms, admin := account.LoadPermsFunc(c.Request.Context(), user.ID)
	token, err := session.IssueToken(identity, admin)
	if err != nil {
		panic(err)
	}

	c.JSON(http.StatusOK, &session.Context{Token: token, Identity: identity, Perms: perms, Admin: admin})
}

// handleLogout exists for symmetry with the original surface: the token is
// self-contained, so the client simply discards it.
func handleLogout(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

func handleUpdatePassword(c *gin.Context) {
	updating := account.BasicAuthUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := account.UpdateBasicAuthSecretFunc(&updating, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

// JwtAuthFilter validates the bearer token and injects the session context.
// The effective permission set is resolved from the store on every request,
// so revocations take effect without waiting for token expiry.
func JwtAuthFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			panic(bizerror.ErrUnauthenticated)
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		identity, _, err := session.ValidateToken(token)
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}

		perms, admin := account.LoadPermsFunc(ctx.Request.Context(), identity.ID)
		session.SaveSecurityContext(ctx, &session.Context{Token: token, Identity: *identity, Perms: perms, Admin: admin})
		ctx.Next()
	}
}
