package session

import (
	"context"
	"periodico/authority"

	"github.com/fundwit/go-commons/types"
)

type Context struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`

	Perms authority.Permissions `json:"perms"`
	// Admin is true when an active role of the user carries the admin
	// capability; it bypasses per-permission checks.
	Admin bool `json:"admin"`

	Context context.Context `json:"-"`
}

type Identity struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

func (c *Context) HasPermission(desc string) bool {
	return c.Admin || c.Perms.HasPermission(desc)
}
