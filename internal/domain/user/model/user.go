package model

import (
	baseModel "backcheck_api/pkg/model"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User account. Password is bcrypt-hashed and never serialized.
type User struct {
	baseModel.BaseModel
	Username       string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email          string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string `gorm:"not null" json:"-"`
	Role           string `gorm:"type:varchar(20);default:'user'" json:"role"`
	ProfilePicture string `json:"profilePicture"`
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
