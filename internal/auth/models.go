// Package auth covers account registration, login, and JWT issuance.
package auth

import "time"

// User is an account row. PasswordHash never leaves this package.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// RegisterRequest carries the signup form. Location, income and family size
// are optional and seed the citizen's profile so scheme matching works before
// the profile page is ever visited.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	Location     string `json:"location" validate:"omitempty,max=100"`
	AnnualIncome *int64 `json:"annualIncome" validate:"omitempty,min=0"`
	FamilySize   *int   `json:"familySize" validate:"omitempty,min=1,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the response to a successful register or login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
