package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/metrics"
)

type BookingEngineImpl struct {
	tx           repository.TxManager
	rules        repository.ScheduleRepository
	slots        repository.SlotRepository
	appointments repository.AppointmentRepository
	loc          *time.Location
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewBookingEngine(
	tx repository.TxManager,
	rules repository.ScheduleRepository,
	slots repository.SlotRepository,
	appointments repository.AppointmentRepository,
	loc *time.Location,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BookingEngineImpl {
	return &BookingEngineImpl{
		tx:           tx,
		rules:        rules,
		slots:        slots,
		appointments: appointments,
		loc:          loc,
		metrics:      m,
		logger:       logger,
	}
}

// slotDuration - длительность слота для дня недели start: правило, содержащее время начала,
// иначе первое правило этого дня.
func (e *BookingEngineImpl) slotDuration(ctx context.Context, professionalID int64, start time.Time) (int, error) {
	local := start.In(e.loc)
	weekday := domain.WeekdayOf(local)

	rules, err := e.rules.ListByWeekday(ctx, professionalID, weekday)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения правил расписания: %w", err)
	}
	if len(rules) == 0 {
		return 0, &domain.ConfigurationMissingError{ProfessionalID: professionalID, Weekday: weekday}
	}

	tod := domain.TimeOfDayOf(local)
	for _, rule := range rules {
		if rule.Contains(tod) && rule.SlotDuration > 0 {
			return rule.SlotDuration, nil
		}
	}
	if rules[0].SlotDuration <= 0 {
		return domain.DefaultSlotDurationMinutes, nil
	}
	return rules[0].SlotDuration, nil
}

// runLength - число слотов длительностью d, покрывающих minutes.
func runLength(minutes, d int) int {
	return (minutes + d - 1) / d
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

func (e *BookingEngineImpl) Reserve(ctx context.Context, professionalID int64, start time.Time, serviceMinutes int) (*domain.Reservation, error) {
	if serviceMinutes <= 0 {
		return nil, domain.NewValidationError("tempo", "duração do serviço deve ser maior que zero")
	}

	var reservation *domain.Reservation
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		reservation, err = e.reserve(ctx, professionalID, start, serviceMinutes)
		return err
	})
	e.metrics.BookingOutcome("reserve", outcomeOf(err))
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (e *BookingEngineImpl) reserve(ctx context.Context, professionalID int64, start time.Time, serviceMinutes int) (*domain.Reservation, error) {
	d, err := e.slotDuration(ctx, professionalID, start)
	if err != nil {
		return nil, err
	}

	n := runLength(serviceMinutes, d)
	free, err := e.slots.ListFreeForUpdate(ctx, professionalID, start, start.Add(minutes(n*d)))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свободных слотов: %w", err)
	}

	byTime := make(map[int64]domain.Slot, len(free))
	for _, slot := range free {
		key := slot.StartsAt.Unix()
		if _, dup := byTime[key]; !dup {
			byTime[key] = slot
		}
	}

	run := make([]domain.Slot, 0, n)
	accumulated := 0
	for k := 0; accumulated < serviceMinutes; k++ {
		slot, ok := byTime[start.Add(minutes(k*d)).Unix()]
		if !ok {
			break
		}
		run = append(run, slot)
		accumulated += d
	}

	if accumulated < serviceMinutes {
		return nil, &domain.InsufficientAvailabilityError{
			ProfessionalID:   professionalID,
			Start:            start,
			AvailableMinutes: accumulated,
			RequiredMinutes:  serviceMinutes,
		}
	}

	ids := make([]int64, 0, len(run))
	for _, slot := range run {
		ids = append(ids, slot.ID)
	}

	changed, err := e.slots.Occupy(ctx, ids)
	if err != nil {
		return nil, err
	}
	if changed != int64(len(ids)) {
		return nil, domain.NewConflictError("horário ocupado por outra reserva", start)
	}

	for i := range run {
		run[i].Occupied = true
	}

	return &domain.Reservation{
		ProfessionalID: professionalID,
		Start:          start,
		SlotDuration:   d,
		Slots:          run,
		Minutes:        accumulated,
	}, nil
}

// Confirm повторно проверяет серию записи по текущей конфигурации и занимает недостающие слоты.
func (e *BookingEngineImpl) Confirm(ctx context.Context, appointment domain.Appointment) error {
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		return e.confirm(ctx, appointment)
	})
	e.metrics.BookingOutcome("confirm", outcomeOf(err))
	return err
}

func (e *BookingEngineImpl) confirm(ctx context.Context, a domain.Appointment) error {
	if a.ServiceDuration <= 0 {
		return domain.NewValidationError("tempo", "duração do serviço deve ser maior que zero")
	}

	d, err := e.slotDuration(ctx, a.ProfessionalID, a.StartsAt)
	if err != nil {
		return err
	}

	overlapping, err := e.appointments.ListOverlapping(ctx, a.ProfessionalID, a.StartsAt, a.EndsAt(), a.ID)
	if err != nil {
		return fmt.Errorf("ошибка проверки пересечений: %w", err)
	}
	if len(overlapping) > 0 {
		return domain.NewConflictError("horário já reservado por outro agendamento", overlapping[0].StartsAt)
	}

	n := runLength(a.ServiceDuration, d)
	existing, err := e.slots.ListRangeForUpdate(ctx, a.ProfessionalID, a.StartsAt, a.StartsAt.Add(minutes(n*d)))
	if err != nil {
		return fmt.Errorf("ошибка получения слотов: %w", err)
	}

	byTime := make(map[int64]domain.Slot, len(existing))
	for _, slot := range existing {
		byTime[slot.StartsAt.Unix()] = slot
	}

	var free []int64
	for k := 0; k < n; k++ {
		at := a.StartsAt.Add(minutes(k * d))
		slot, ok := byTime[at.Unix()]
		if !ok {
			return domain.NewConflictError("horário necessário não existe mais na agenda", at)
		}
		if !slot.Occupied {
			free = append(free, slot.ID)
		}
	}

	changed, err := e.slots.Occupy(ctx, free)
	if err != nil {
		return err
	}
	if changed != int64(len(free)) {
		return domain.NewConflictError("horário ocupado por outra reserva", a.StartsAt)
	}

	return nil
}

func (e *BookingEngineImpl) Release(ctx context.Context, professionalID int64, start time.Time, serviceMinutes int) ([]time.Time, error) {
	released, err := e.release(ctx, professionalID, start, serviceMinutes)
	e.metrics.BookingOutcome("release", outcomeOf(err))
	if err != nil {
		return nil, err
	}

	return released, nil
}

func (e *BookingEngineImpl) release(ctx context.Context, professionalID int64, start time.Time, serviceMinutes int) ([]time.Time, error) {
	if serviceMinutes <= 0 {
		return nil, domain.NewValidationError("tempo", "duração do serviço deve ser maior que zero")
	}

	return e.slots.ReleaseRange(ctx, professionalID, start, start.Add(minutes(serviceMinutes)))
}

func (e *BookingEngineImpl) Reschedule(ctx context.Context, appointmentID int64, start time.Time, professionalID *int64) (*domain.Rescheduling, error) {
	var result domain.Rescheduling

	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := e.appointments.GetByIDForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		if !a.Status.HoldsSlots() {
			return domain.NewValidationError("status", fmt.Sprintf("agendamento com status %s não pode ser remarcado", a.Status))
		}

		target := a.ProfessionalID
		if professionalID != nil {
			target = *professionalID
		}

		released, err := e.release(ctx, a.ProfessionalID, a.StartsAt, a.ServiceDuration)
		if err != nil {
			return err
		}

		free, err := e.slots.ListFreeForUpdate(ctx, target, start, start.Add(time.Second))
		if err != nil {
			return fmt.Errorf("ошибка проверки слота: %w", err)
		}
		if len(free) == 0 {
			return &domain.NotAvailableError{ProfessionalID: target, At: start}
		}

		reservation, err := e.reserve(ctx, target, start, a.ServiceDuration)
		if err != nil {
			return err
		}

		if err := e.appointments.Reschedule(ctx, a.ID, target, start); err != nil {
			return err
		}

		result = domain.Rescheduling{Previous: *a, Released: released, Reservation: reservation}
		return nil
	})
	e.metrics.BookingOutcome("reschedule", outcomeOf(err))
	if err != nil {
		return nil, err
	}

	e.logger.Info("запись перенесена",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("professional_id", result.Reservation.ProfessionalID),
		zap.Time("start", start),
	)

	return &result, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotAvailable):
		return "conflict"
	case errors.Is(err, domain.ErrInsufficientAvailability):
		return "insufficient"
	case errors.Is(err, domain.ErrConfigurationMissing):
		return "no_config"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		return "invalid"
	}
	return "error"
}
