package testinfra

import (
	"context"
	"net/http"
	"net/http/httptest"

	"periodico/authority"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// ExecuteRequest drives the router directly, no listening socket involved.
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code, w.Body.String(), w
}

// BuildSecCtx build security context
func BuildSecCtx(uid types.ID, admin bool, perms ...string) *session.Context {
	return &session.Context{
		Identity: session.Identity{ID: uid, Name: "user_" + uid.String()},
		Perms:    authority.Permissions(perms),
		Admin:    admin,
		Context:  context.Background(),
	}
}
