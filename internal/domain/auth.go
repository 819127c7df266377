package domain

import (
	"time"
)

// Identity - аутентифицированный пользователь, восстановленный из claims токена.
type Identity struct {
	UserID          int64    `json:"id"`
	Role            UserRole `json:"tipo_usuario"`
	EstablishmentID *int64   `json:"estabelecimento_id,omitempty"`
	ProfessionalID  *int64   `json:"funcionario_id,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == UserRoleAdmin
}

// AdministersEstablishment - администратор именно этого заведения.
func (i Identity) AdministersEstablishment(establishmentID int64) bool {
	return i.IsAdmin() && i.EstablishmentID != nil && *i.EstablishmentID == establishmentID
}

// IsProfessional - пользователь является указанным профессионалом.
func (i Identity) IsProfessional(professionalID int64) bool {
	return i.ProfessionalID != nil && *i.ProfessionalID == professionalID
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	IP           string    `json:"ip"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"nome" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"telefone" binding:"required"`
	Password string `json:"senha" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"nova_senha" binding:"required,min=6"`
}
