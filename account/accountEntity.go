package account

import "github.com/fundwit/go-commons/types"

type User struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Secret   string `json:"-"`
	Status   string `json:"status"`
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Username string   `json:"username"`
	Status   string   `json:"status"`
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=64"`
	Phone    string `json:"phone" binding:"omitempty,lte=32"`
	Username string `json:"username" binding:"required,lte=32"`
	Password string `json:"password" binding:"required,gte=6,lte=32"`
}

// UserUpdation is a full-record update, there are no partial patch semantics.
type UserUpdation struct {
	Name   string `json:"name" binding:"required,lte=64"`
	Phone  string `json:"phone" binding:"omitempty,lte=32"`
	Status string `json:"status" binding:"required,oneof=Active Inactive"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=32"`
}
