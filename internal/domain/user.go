package domain

import "time"

// User is an attendant account. Accounts live in their own table and have
// no coupling to parking state.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterUserDTO struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=4,max=100"`
	Role     string `json:"role,omitempty"`
}

type LoginUserDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
