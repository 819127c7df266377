package domain

import (
	"time"
)

// Slot - конкретный слот профессионала (agenda_disponivel). Уникален по (профессионал, время).
type Slot struct {
	ID              int64     `json:"id"`
	ProfessionalID  int64     `json:"profissional_id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	StartsAt        time.Time `json:"data_hora"`
	Occupied        bool      `json:"ocupado"`
	CreatedAt       time.Time `json:"criado_em"`
}

type SlotFilter struct {
	ProfessionalID *int64
	From           *time.Time
	To             *time.Time
	OnlyFree       bool
	Limit          int
	Offset         int
}

type CreateSlotDTO struct {
	ProfessionalID int64     `json:"profissional_id" binding:"required"`
	StartsAt       time.Time `json:"data_hora" binding:"required"`
}

// ExpandRulesDTO - генерация по правилам профессионала.
type ExpandRulesDTO struct {
	ProfessionalID int64  `json:"profissional_id" binding:"required"`
	StartDate      string `json:"data_inicio" binding:"required" example:"2025-03-03"`
	EndDate        string `json:"data_fim" binding:"required" example:"2025-03-09"`
}

// ExpandTimesDTO - генерация по явному списку времен.
type ExpandTimesDTO struct {
	ProfessionalID int64    `json:"profissional_id" binding:"required"`
	StartDate      string   `json:"data_inicio" binding:"required" example:"2025-03-03"`
	EndDate        string   `json:"data_fim" binding:"required" example:"2025-03-09"`
	Times          []string `json:"horarios" binding:"required,min=1" example:"09:00,10:30"`
}

// BulkExpandDTO - генерация для всех профессионалов заведения с общим окном.
type BulkExpandDTO struct {
	EstablishmentID int64     `json:"estabelecimento_id" binding:"required"`
	StartDate       string    `json:"data_inicio" binding:"required" example:"2025-03-03"`
	EndDate         string    `json:"data_fim" binding:"required" example:"2025-03-31"`
	Weekdays        []Weekday `json:"dias_semana" binding:"required,min=1" swaggertype:"array,string" example:"segunda,quarta"`
	StartTime       TimeOfDay `json:"hora_inicio" swaggertype:"string" example:"08:00"`
	EndTime         TimeOfDay `json:"hora_fim" binding:"required" swaggertype:"string" example:"18:00"`
	SlotDuration    int       `json:"duracao_slot"`
}

type ExpansionResult struct {
	Created    int         `json:"criados"`
	Timestamps []time.Time `json:"horarios"`
}

func (r *ExpansionResult) add(t time.Time) {
	r.Created++
	r.Timestamps = append(r.Timestamps, t)
}

// Merge добавляет созданные моменты другого результата.
func (r *ExpansionResult) Merge(other ExpansionResult) {
	for _, t := range other.Timestamps {
		r.add(t)
	}
}

// Record учитывает один созданный слот.
func (r *ExpansionResult) Record(t time.Time) {
	r.add(t)
}

type SlotEventType string

const (
	SlotEventCreated  SlotEventType = "slot_criado"
	SlotEventOccupied SlotEventType = "slot_ocupado"
	SlotEventReleased SlotEventType = "slot_liberado"
	SlotEventDeleted  SlotEventType = "slot_removido"
)

// SlotEvent рассылается подписчикам агенды после коммита.
type SlotEvent struct {
	Type           SlotEventType `json:"tipo"`
	ProfessionalID int64         `json:"profissional_id"`
	Timestamps     []time.Time   `json:"horarios"`
}
