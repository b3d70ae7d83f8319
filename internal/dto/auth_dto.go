package dto

import "github.com/silaschege/salescompass-sub004/internal/model"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,min=1,max=150"`
	FullName string  `json:"full_name" validate:"required,min=2,max=100"`
	Email    *string `json:"email"     validate:"omitempty,email"`
	Password string  `json:"password"  validate:"required,min=8"`
	Role     string  `json:"role"      validate:"required,oneof=cashier manager admin"`
	// TerminalID restricts a cashier to one register; empty = all registers.
	TerminalID *string `json:"terminal_id" validate:"omitempty,uuid"`
}

type UpdateUserRequest struct {
	FullName   string  `json:"full_name"   validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email"       validate:"omitempty,email"`
	Role       string  `json:"role"        validate:"omitempty,oneof=cashier manager admin"`
	TerminalID *string `json:"terminal_id" validate:"omitempty,uuid"`
	Password   string  `json:"password"    validate:"omitempty,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	FullName   string  `json:"full_name"`
	Email      *string `json:"email"`
	Role       string  `json:"role"`
	TerminalID *string `json:"terminal_id"`
	IsActive   bool    `json:"is_active"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
	User         UserResponse `json:"user"`
}

func FromUser(u *model.User) UserResponse {
	resp := UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
	if u.TerminalID != nil {
		id := u.TerminalID.String()
		resp.TerminalID = &id
	}
	return resp
}
