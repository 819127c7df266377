package domain

import (
	"time"
)

type Establishment struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nome"`
	CNPJ        string    `json:"cnpj"`
	ServiceType string    `json:"tipo_servico"`
	Phone       string    `json:"telefone"`
	CreatedAt   time.Time `json:"criado_em"`
	UpdatedAt   time.Time `json:"atualizado_em"`
}

type CreateEstablishmentDTO struct {
	Name        string `json:"nome" binding:"required"`
	CNPJ        string `json:"cnpj" binding:"required"`
	ServiceType string `json:"tipo_servico" binding:"required"`
	Phone       string `json:"telefone"`
}

type UpdateEstablishmentDTO struct {
	Name        *string `json:"nome"`
	ServiceType *string `json:"tipo_servico"`
	Phone       *string `json:"telefone"`
}
