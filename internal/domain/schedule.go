package domain

import (
	"time"
)

const DefaultSlotDurationMinutes = 30

// AvailabilityRule - недельный шаблон приема профессионала (configuracoes_agenda).
type AvailabilityRule struct {
	ID              int64     `json:"id"`
	ProfessionalID  int64     `json:"profissional_id"`
	EstablishmentID int64     `json:"estabelecimento_id"`
	Weekday         Weekday   `json:"dia_semana" swaggertype:"string" example:"segunda"`
	StartTime       TimeOfDay `json:"hora_inicio" swaggertype:"string" example:"08:00"`
	EndTime         TimeOfDay `json:"hora_fim" swaggertype:"string" example:"18:00"`
	SlotDuration    int       `json:"duracao_slot"`
	CreatedAt       time.Time `json:"criado_em"`
	UpdatedAt       time.Time `json:"atualizado_em"`
}

// Overlaps - пересечение полуинтервалов [start, end).
func (r AvailabilityRule) Overlaps(start, end TimeOfDay) bool {
	return r.StartTime < end && start < r.EndTime
}

func (r AvailabilityRule) Contains(t TimeOfDay) bool {
	return t >= r.StartTime && t < r.EndTime
}

// SlotStarts - начала слотов правила: шаг SlotDuration, пока step+duration <= end.
func (r AvailabilityRule) SlotStarts() []TimeOfDay {
	return SlotStarts(r.StartTime, r.EndTime, r.SlotDuration)
}

func SlotStarts(start, end TimeOfDay, duration int) []TimeOfDay {
	if duration <= 0 {
		return nil
	}

	var starts []TimeOfDay
	for step := start; step.Add(duration) <= end; step = step.Add(duration) {
		starts = append(starts, step)
	}
	return starts
}

// ValidateWindow проверяет окно и длительность слота.
func ValidateWindow(start, end TimeOfDay, duration int) error {
	if !start.Valid() || !end.Valid() {
		return NewValidationError("horario", "horário fora do intervalo 00:00-23:59")
	}
	if start >= end {
		return NewValidationError("hora_fim", "hora_inicio deve ser anterior a hora_fim")
	}
	if duration <= 0 {
		return NewValidationError("duracao_slot", "duracao_slot deve ser maior que zero")
	}
	if duration > int(end-start) {
		return NewValidationError("duracao_slot", "duracao_slot maior que a janela de atendimento")
	}
	return nil
}

type UpsertRuleDTO struct {
	ProfessionalID int64     `json:"profissional_id" binding:"required"`
	Weekday        Weekday   `json:"dia_semana" binding:"required" swaggertype:"string" example:"segunda"`
	StartTime      TimeOfDay `json:"hora_inicio" swaggertype:"string" example:"08:00"`
	EndTime        TimeOfDay `json:"hora_fim" binding:"required" swaggertype:"string" example:"12:00"`
	SlotDuration   int       `json:"duracao_slot"`
}

type UpdateRuleDTO struct {
	StartTime    *TimeOfDay `json:"hora_inicio" swaggertype:"string" example:"08:00"`
	EndTime      *TimeOfDay `json:"hora_fim" swaggertype:"string" example:"12:00"`
	SlotDuration *int       `json:"duracao_slot"`
}
