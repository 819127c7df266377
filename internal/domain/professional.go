package domain

import (
	"time"
)

// Professional - сотрудник заведения (funcionarios), ведущий собственную агенду.
type Professional struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"usuario_id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	Role            string    `json:"cargo"`
	Name            string    `json:"nome"`
	Email           string    `json:"email"`
	Phone           string    `json:"telefone"`
	CreatedAt       time.Time `json:"criado_em"`
	UpdatedAt       time.Time `json:"atualizado_em"`
}

type CreateProfessionalDTO struct {
	Name     string `json:"nome" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"telefone" binding:"required"`
	Password string `json:"senha" binding:"required,min=6"`
	Role     string `json:"cargo"`
}

type UpdateProfessionalDTO struct {
	Role *string `json:"cargo"`
}
