package domain

import (
	"time"
)

// LoyaltyProgram - программа лояльности заведения.
type LoyaltyProgram struct {
	ID                int64     `json:"id"`
	EstablishmentID   int64     `json:"estabelecimento_id"`
	RewardDescription string    `json:"descricao_premio"`
	PointsRequired    int       `json:"pontos_necessarios"`
	Active            bool      `json:"ativo"`
	CreatedAt         time.Time `json:"criado_em"`
	UpdatedAt         time.Time `json:"atualizado_em"`
}

type LoyaltyBalance struct {
	ClientID        int64     `json:"cliente_id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	Points          int       `json:"pontos"`
	UpdatedAt       time.Time `json:"atualizado_em"`
}

type CreateLoyaltyProgramDTO struct {
	RewardDescription string `json:"descricao_premio" binding:"required"`
	PointsRequired    int    `json:"pontos_necessarios" binding:"required,min=1"`
	Active            *bool  `json:"ativo"`
}

type UpdateLoyaltyProgramDTO struct {
	RewardDescription *string `json:"descricao_premio"`
	PointsRequired    *int    `json:"pontos_necessarios" binding:"omitempty,min=1"`
	Active            *bool   `json:"ativo"`
}

// Redemption - погашение баллов: QR-код ваучера лежит в хранилище.
type Redemption struct {
	ProgramID       int64     `json:"programa_id"`
	ClientID        int64     `json:"cliente_id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	PointsSpent     int       `json:"pontos_utilizados"`
	RemainingPoints int       `json:"pontos_restantes"`
	QRCodeKey       string    `json:"qrcode_chave"`
	QRCodeURL       string    `json:"qrcode_url"`
	RedeemedAt      time.Time `json:"resgatado_em"`
}
