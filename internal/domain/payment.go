package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pendente"
	PaymentStatusApproved PaymentStatus = "aprovado"
	PaymentStatusRejected PaymentStatus = "recusado"
)

// ParsePaymentStatus переводит статус шлюза в статус платежа.
func ParsePaymentStatus(gatewayStatus string) PaymentStatus {
	switch gatewayStatus {
	case "approved", "authorized":
		return PaymentStatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return PaymentStatusRejected
	}
	return PaymentStatusPending
}

type Payment struct {
	ID            int64         `json:"id"`
	AppointmentID int64         `json:"agendamento_id"`
	ClientID      int64         `json:"cliente_id"`
	Amount        float64       `json:"valor"`
	Currency      string        `json:"moeda"`
	Status        PaymentStatus `json:"status"`
	GatewayID     string        `json:"gateway_id"`
	CreatedAt     time.Time     `json:"criado_em"`
}

type RegisterCustomerDTO struct {
	PaymentMethodID string `json:"metodo_pagamento_id"`
}

type ChargeDTO struct {
	AppointmentID   int64  `json:"agendamento_id" binding:"required"`
	PaymentMethodID string `json:"metodo_pagamento_id" binding:"required"`
	Token           string `json:"token"`
	Installments    int    `json:"parcelas"`
}

// ChargeRequest - запрос к платежному шлюзу.
type ChargeRequest struct {
	Amount          float64
	Description     string
	PaymentMethodID string
	Token           string
	Installments    int
	CustomerID      string
	PayerEmail      string
	Reference       string
}

type ChargeResult struct {
	GatewayID string
	Status    string
}
