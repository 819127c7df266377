package domain

import (
	"time"
)

const (
	EstablishmentReviewsLimit = 10
	PublicReviewsLimit        = 5
)

type Review struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"cliente_id"`
	ProfessionalID  int64     `json:"profissional_id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	AppointmentID   int64     `json:"agendamento_id"`
	Score           int       `json:"nota"`
	Comment         string    `json:"comentario"`
	ClientName      string    `json:"cliente_nome,omitempty"`
	CreatedAt       time.Time `json:"criado_em"`
	UpdatedAt       time.Time `json:"atualizado_em"`
}

type CreateReviewDTO struct {
	AppointmentID int64  `json:"agendamento_id" binding:"required"`
	Score         int    `json:"nota" binding:"required,min=1,max=5"`
	Comment       string `json:"comentario"`
}

type UpdateReviewDTO struct {
	Score   *int    `json:"nota" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comentario"`
}
