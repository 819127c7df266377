package domain

import (
	"errors"
	"fmt"
	"time"
)

// Базовые виды ошибок. Конкретные типы ниже сопоставляются с ними через errors.Is,
// транспортный слой выбирает HTTP-статус только по виду.
var (
	ErrValidation               = errors.New("dados inválidos")
	ErrNotFound                 = errors.New("registro não encontrado")
	ErrForbidden                = errors.New("ação não permitida")
	ErrConfigurationMissing     = errors.New("configuração de agenda ausente")
	ErrInsufficientAvailability = errors.New("disponibilidade insuficiente")
	ErrConflict                 = errors.New("conflito de horário")
	ErrNotAvailable             = errors.New("horário não disponível")
	ErrUnauthorized             = errors.New("não autorizado")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Entity string
	ID     int64
}

func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s não encontrado", e.Entity)
	}
	return fmt.Sprintf("%s %d não encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return ErrForbidden.Error()
	}
	return e.Reason
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

type ConfigurationMissingError struct {
	ProfessionalID int64
	Weekday        Weekday
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("profissional %d não possui agenda configurada para %s", e.ProfessionalID, e.Weekday)
}

func (e *ConfigurationMissingError) Is(target error) bool { return target == ErrConfigurationMissing }

// InsufficientAvailabilityError: от Start подряд свободно только AvailableMinutes из RequiredMinutes.
type InsufficientAvailabilityError struct {
	ProfessionalID   int64
	Start            time.Time
	AvailableMinutes int
	RequiredMinutes  int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("apenas %d minutos livres a partir de %s, o serviço requer %d minutos",
		e.AvailableMinutes, e.Start.Format("02/01/2006 15:04"), e.RequiredMinutes)
}

func (e *InsufficientAvailabilityError) Is(target error) bool {
	return target == ErrInsufficientAvailability
}

type ConflictError struct {
	Message string
	At      time.Time
}

func NewConflictError(message string, at time.Time) *ConflictError {
	return &ConflictError{Message: message, At: at}
}

func (e *ConflictError) Error() string {
	if e.At.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.At.Format("02/01/2006 15:04"))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type NotAvailableError struct {
	ProfessionalID int64
	At             time.Time
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("horário %s não está disponível para o profissional %d",
		e.At.Format("02/01/2006 15:04"), e.ProfessionalID)
}

func (e *NotAvailableError) Is(target error) bool { return target == ErrNotAvailable }
