package session

import (
	"github.com/gin-gonic/gin"
)

const KeySecCtx = "SecCtx"

func FindSecurityContext(ctx *gin.Context) *Context {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Context{Context: ctx.Request.Context()}
	}
	secCtx, ok := value.(*Context)
	if !ok || secCtx.Token == "" {
		return &Context{Context: ctx.Request.Context()}
	}
	s := *secCtx
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func SaveSecurityContext(ctx *gin.Context, secCtx *Context) {
	if secCtx != nil && secCtx.Token != "" {
		ctx.Set(KeySecCtx, secCtx)
	}
}
