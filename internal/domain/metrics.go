package domain

import (
	"time"
)

// CompletedService - запись аналитики о выполненной услуге.
type CompletedService struct {
	ID              string    `json:"id"`
	AppointmentID   int64     `json:"id_agendamento"`
	ClientID        int64     `json:"cliente"`
	ProfessionalID  int64     `json:"profissional"`
	EstablishmentID int64     `json:"estabelecimento"`
	ServiceID       int64     `json:"servico"`
	ServiceName     string    `json:"servico_nome"`
	Duration        int       `json:"tempo"`
	Amount          float64   `json:"valor"`
	StartedAt       time.Time `json:"data_inicio"`
	FinishedAt      time.Time `json:"data_fim"`
}

// LoyaltyPoint - запись аналитики о начисленном балле.
type LoyaltyPoint struct {
	ID              string    `json:"id"`
	ClientID        int64     `json:"cliente"`
	EstablishmentID int64     `json:"estabelecimento"`
	AppointmentID   int64     `json:"id_agendamento"`
	Points          int       `json:"pontos"`
	CreatedAt       time.Time `json:"criado_em"`
}

type MonthlyRevenue struct {
	Month   string  `json:"mes"`
	Revenue float64 `json:"faturamento"`
	Count   int     `json:"atendimentos"`
}

type WeekdayCount struct {
	Weekday string `json:"dia"`
	Count   int    `json:"atendimentos"`
}

type ServiceCount struct {
	ServiceID   int64  `json:"servico_id"`
	ServiceName string `json:"servico_nome"`
	Count       int    `json:"atendimentos"`
}

type EstablishmentMetrics struct {
	EstablishmentID int64            `json:"estabelecimento_id"`
	Year            int              `json:"ano"`
	MonthlyRevenue  []MonthlyRevenue `json:"faturamento_mensal"`
	ByWeekday       []WeekdayCount   `json:"por_dia_semana"`
	ByService       []ServiceCount   `json:"por_servico"`
	TotalRevenue    float64          `json:"faturamento_total"`
}

type MetricsExport struct {
	Key string `json:"chave"`
	URL string `json:"url"`
}
