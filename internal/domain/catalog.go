package domain

import (
	"time"
)

// CatalogService - услуга заведения (servicos). Duration - длительность в минутах (tempo).
type CatalogService struct {
	ID              int64     `json:"id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	Name            string    `json:"nome"`
	Description     string    `json:"descricao"`
	Price           float64   `json:"preco"`
	Duration        int       `json:"tempo"`
	CreatedAt       time.Time `json:"criado_em"`
	UpdatedAt       time.Time `json:"atualizado_em"`
}

type CreateCatalogServiceDTO struct {
	Name        string  `json:"nome" binding:"required"`
	Description string  `json:"descricao"`
	Price       float64 `json:"preco" binding:"gte=0"`
	Duration    int     `json:"tempo" binding:"required,min=1"`
}

type UpdateCatalogServiceDTO struct {
	Name        *string  `json:"nome"`
	Description *string  `json:"descricao"`
	Price       *float64 `json:"preco" binding:"omitempty,gte=0"`
	Duration    *int     `json:"tempo" binding:"omitempty,min=1"`
}
