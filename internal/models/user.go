package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is a coarse permission level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:64;uniqueIndex"`
	Email       string    `json:"email" gorm:"size:255;uniqueIndex"`
	DisplayName string    `json:"display_name" gorm:"size:100"`
	Role        Role      `json:"role" gorm:"size:16;default:user"`
	Password    string    `json:"-"`                              // bcrypt hash
	FirebaseUID *string   `json:"-" gorm:"size:128;uniqueIndex"` // nil for local-only accounts
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public projection embedded in feeds and notifications
type UserCompact struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
}

type CreateLocalUserRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Login    string `json:"login" validate:"required"` // username or email
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken  string `json:"idToken" validate:"required"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=64,alphanum"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

// JwtCustomClaims carry the canonical session resolved at sign-in
type JwtCustomClaims struct {
	AccountID   uint   `json:"account_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	jwt.RegisteredClaims
}
