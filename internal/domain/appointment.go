package domain

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pendente"
	AppointmentStatusConfirmed AppointmentStatus = "confirmado"
	AppointmentStatusRejected  AppointmentStatus = "recusado"
	AppointmentStatusCompleted AppointmentStatus = "finalizado"
	AppointmentStatusCancelled AppointmentStatus = "cancelado"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusRejected, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsSlots - статусы, за которыми закреплены занятые слоты.
func (s AppointmentStatus) HoldsSlots() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusRejected,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID              int64             `json:"id"`
	ClientID        int64             `json:"cliente_id"`
	ProfessionalID  int64             `json:"profissional_id"`
	ServiceID       int64             `json:"servico_id"`
	EstablishmentID int64             `json:"estabelecimento_id"`
	StartsAt        time.Time         `json:"horario"`
	Status          AppointmentStatus `json:"status"`
	Notified1Day    bool              `json:"notificado_1_dia"`
	Notified1Hour   bool              `json:"notificado_1_hora"`
	CreatedAt       time.Time         `json:"criado_em"`
	UpdatedAt       time.Time         `json:"atualizado_em"`

	ServiceName       string  `json:"servico_nome,omitempty"`
	ServiceDuration   int     `json:"servico_tempo,omitempty"`
	ServicePrice      float64 `json:"servico_preco,omitempty"`
	ClientName        string  `json:"cliente_nome,omitempty"`
	ClientEmail       string  `json:"-"`
	ProfessionalName  string  `json:"profissional_nome,omitempty"`
	ProfessionalEmail string  `json:"-"`
}

// EndsAt - конец интервала, занятого услугой.
func (a Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(time.Duration(a.ServiceDuration) * time.Minute)
}

// CancelledAppointment - архивная копия отмененной записи (agendamentos_cancelados).
type CancelledAppointment struct {
	ID                    int64             `json:"id"`
	OriginalAppointmentID int64             `json:"agendamento_id"`
	ClientID              int64             `json:"cliente_id"`
	ProfessionalID        int64             `json:"profissional_id"`
	ServiceID             int64             `json:"servico_id"`
	EstablishmentID       int64             `json:"estabelecimento_id"`
	StartsAt              time.Time         `json:"horario"`
	PreviousStatus        AppointmentStatus `json:"status_anterior"`
	CreatedAt             time.Time         `json:"criado_em"`
	CancelledBy           UserRole          `json:"cancelado_por"`
	CancelledAt           time.Time         `json:"cancelado_em"`
	Reason                string            `json:"motivo,omitempty"`
}

func NewCancelledAppointment(a Appointment, by UserRole, at time.Time, reason string) CancelledAppointment {
	return CancelledAppointment{
		OriginalAppointmentID: a.ID,
		ClientID:              a.ClientID,
		ProfessionalID:        a.ProfessionalID,
		ServiceID:             a.ServiceID,
		EstablishmentID:       a.EstablishmentID,
		StartsAt:              a.StartsAt,
		PreviousStatus:        a.Status,
		CreatedAt:             a.CreatedAt,
		CancelledBy:           by,
		CancelledAt:           at,
		Reason:                reason,
	}
}

type CreateAppointmentDTO struct {
	ProfessionalID int64     `json:"profissional_id" binding:"required"`
	ServiceID      int64     `json:"servico_id" binding:"required"`
	StartsAt       time.Time `json:"horario" binding:"required"`
	ClientID       *int64    `json:"cliente_id,omitempty"`
}

type RescheduleAppointmentDTO struct {
	StartsAt       time.Time `json:"horario" binding:"required"`
	ProfessionalID *int64    `json:"profissional_id,omitempty"`
}

type CancelAppointmentDTO struct {
	Reason string `json:"motivo"`
}

type AppointmentFilter struct {
	ClientID        *int64             `json:"cliente_id"`
	ProfessionalID  *int64             `json:"profissional_id"`
	EstablishmentID *int64             `json:"estabelecimento_id"`
	Status          *AppointmentStatus `json:"status"`
	StartDate       *time.Time         `json:"data_inicio"`
	EndDate         *time.Time         `json:"data_fim"`
	Limit           int                `json:"limit"`
	Offset          int                `json:"offset"`
}

// Reservation - результат резервирования непрерывной серии слотов.
type Reservation struct {
	ProfessionalID int64     `json:"profissional_id"`
	Start          time.Time `json:"inicio"`
	SlotDuration   int       `json:"duracao_slot"`
	Slots          []Slot    `json:"slots"`
	Minutes        int       `json:"minutos"`
}

func (r Reservation) Timestamps() []time.Time {
	ts := make([]time.Time, 0, len(r.Slots))
	for _, s := range r.Slots {
		ts = append(ts, s.StartsAt)
	}
	return ts
}

// Rescheduling - итог переноса записи.
type Rescheduling struct {
	Previous    Appointment
	Released    []time.Time
	Reservation *Reservation
}

type ReminderKind string

const (
	ReminderOneDay  ReminderKind = "1_dia"
	ReminderOneHour ReminderKind = "1_hora"
)
