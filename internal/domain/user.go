package domain

import (
	"time"
)

type User struct {
	ID                     int64     `json:"id"`
	Name                   string    `json:"nome"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"telefone"`
	PasswordHash           string    `json:"-"`
	Role                   UserRole  `json:"tipo_usuario"`
	EstablishmentID        *int64    `json:"estabelecimento_id,omitempty"`
	IsActive               bool      `json:"ativo"`
	PaymentCustomerID      *string   `json:"-"`
	DefaultPaymentMethodID *string   `json:"-"`
	CreatedAt              time.Time `json:"criado_em"`
	UpdatedAt              time.Time `json:"atualizado_em"`
}

type UserRole string

const (
	UserRoleClient       UserRole = "cliente"
	UserRoleProfessional UserRole = "profissional"
	UserRoleAdmin        UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleClient || r == UserRoleProfessional || r == UserRoleAdmin
}

// HasSavedPayment - у клиента есть сохраненный плательщик для автоматического списания.
func (u User) HasSavedPayment() bool {
	return u.PaymentCustomerID != nil && *u.PaymentCustomerID != ""
}

type UpdateUserDTO struct {
	Name     *string `json:"nome"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"telefone"`
	IsActive *bool   `json:"ativo"`
}

type PasswordUpdateDTO struct {
	OldPassword string `json:"senha_atual" binding:"required"`
	NewPassword string `json:"nova_senha" binding:"required,min=6"`
}
