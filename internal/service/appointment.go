package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendavip/internal/analytics"
	"agendavip/internal/domain"
	"agendavip/internal/repository"
)

type AppointmentDeps struct {
	Tx            repository.TxManager
	Appointments  repository.AppointmentRepository
	Professionals repository.ProfessionalRepository
	Catalog       repository.CatalogRepository
	Booking       BookingEngine
	Notifier      Notifier
	Analytics     analytics.Store
	Loyalty       LoyaltyService
	Payments      PaymentService
	Events        EventPublisher
	Location      *time.Location
	Logger        *zap.Logger
}

type AppointmentServiceImpl struct {
	tx               repository.TxManager
	repo             repository.AppointmentRepository
	professionalRepo repository.ProfessionalRepository
	catalogRepo      repository.CatalogRepository
	booking          BookingEngine
	notifier         Notifier
	analytics        analytics.Store
	loyalty          LoyaltyService
	payments         PaymentService
	events           EventPublisher
	loc              *time.Location
	now              func() time.Time
	logger           *zap.Logger
}

func NewAppointmentService(deps AppointmentDeps) *AppointmentServiceImpl {
	store := deps.Analytics
	if store == nil {
		store = analytics.NopStore{}
	}
	events := deps.Events
	if events == nil {
		events = nopPublisher{}
	}

	return &AppointmentServiceImpl{
		tx:               deps.Tx,
		repo:             deps.Appointments,
		professionalRepo: deps.Professionals,
		catalogRepo:      deps.Catalog,
		booking:          deps.Booking,
		notifier:         deps.Notifier,
		analytics:        store,
		loyalty:          deps.Loyalty,
		payments:         deps.Payments,
		events:           events,
		loc:              deps.Location,
		now:              time.Now,
		logger:           deps.Logger,
	}
}

func transitionError(from, to domain.AppointmentStatus) error {
	return domain.NewValidationError("status", fmt.Sprintf("não é possível alterar o status de %s para %s", from, to))
}

// canManage - профессионал записи или администратор ее заведения.
func canManage(identity domain.Identity, a domain.Appointment) bool {
	return identity.IsProfessional(a.ProfessionalID) || identity.AdministersEstablishment(a.EstablishmentID)
}

func canView(identity domain.Identity, a domain.Appointment) bool {
	return a.ClientID == identity.UserID || canManage(identity, a)
}

func (s *AppointmentServiceImpl) Create(ctx context.Context, identity domain.Identity, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	professional, err := s.professionalRepo.GetByID(ctx, dto.ProfessionalID)
	if err != nil {
		return nil, err
	}

	clientID := identity.UserID
	switch {
	case identity.Role == domain.UserRoleClient:
	case identity.AdministersEstablishment(professional.EstablishmentID) && dto.ClientID != nil:
		clientID = *dto.ClientID
	default:
		return nil, domain.NewForbiddenError("apenas clientes podem criar agendamentos")
	}

	catalogService, err := s.catalogRepo.GetByID(ctx, dto.ServiceID)
	if err != nil {
		return nil, err
	}
	if catalogService.EstablishmentID != professional.EstablishmentID {
		return nil, domain.NewValidationError("servico_id", "serviço não pertence ao estabelecimento do profissional")
	}

	start := dto.StartsAt.In(s.loc)
	if start.Before(s.now()) {
		return nil, domain.NewValidationError("horario", "não é possível agendar no passado")
	}

	var (
		id          int64
		reservation *domain.Reservation
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		reservation, err = s.booking.Reserve(ctx, professional.ID, start, catalogService.Duration)
		if err != nil {
			return err
		}

		id, err = s.repo.Create(ctx, domain.Appointment{
			ClientID:        clientID,
			ProfessionalID:  professional.ID,
			ServiceID:       catalogService.ID,
			EstablishmentID: professional.EstablishmentID,
			StartsAt:        start,
			Status:          domain.AppointmentStatusPending,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("не удалось создать запись",
			zap.Int64("professional_id", professional.ID),
			zap.Time("start", start),
			zap.Error(err),
		)
		return nil, err
	}

	s.events.Publish(domain.SlotEvent{
		Type:           domain.SlotEventOccupied,
		ProfessionalID: professional.ID,
		Timestamps:     reservation.Timestamps(),
	})
	s.logger.Info("запись создана", zap.Int64("appointment_id", id), zap.Int("slots", len(reservation.Slots)))

	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentServiceImpl) GetByID(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(identity, *a) {
		return nil, domain.NewForbiddenError("agendamento de outro usuário")
	}
	return a, nil
}

// scope ограничивает фильтр тем, что доступно identity.
func scope(identity domain.Identity, filter domain.AppointmentFilter) (domain.AppointmentFilter, error) {
	switch identity.Role {
	case domain.UserRoleClient:
		filter.ClientID = &identity.UserID
	case domain.UserRoleProfessional:
		if identity.ProfessionalID == nil {
			return filter, domain.NewForbiddenError("profissional sem cadastro de funcionário")
		}
		filter.ProfessionalID = identity.ProfessionalID
	case domain.UserRoleAdmin:
		if identity.EstablishmentID == nil {
			return filter, domain.NewForbiddenError("administrador sem estabelecimento")
		}
		filter.EstablishmentID = identity.EstablishmentID
	default:
		return filter, domain.NewForbiddenError("")
	}

	if filter.Status != nil && !filter.Status.Valid() {
		return filter, domain.NewValidationError("status", "status inválido")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}

func (s *AppointmentServiceImpl) List(ctx context.Context, identity domain.Identity, filter domain.AppointmentFilter) ([]domain.Appointment, int, error) {
	filter, err := scope(identity, filter)
	if err != nil {
		return nil, 0, err
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка записей: %w", err)
	}

	total, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return appointments, total, nil
}

func (s *AppointmentServiceImpl) ListCancelled(ctx context.Context, identity domain.Identity, filter domain.AppointmentFilter) ([]domain.CancelledAppointment, error) {
	filter, err := scope(identity, filter)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListCancelled(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отмененных записей: %w", err)
	}
	return records, nil
}

// transition блокирует запись, проверяет права и переход и выполняет apply в той же транзакции.
func (s *AppointmentServiceImpl) transition(
	ctx context.Context,
	identity domain.Identity,
	id int64,
	next domain.AppointmentStatus,
	apply func(ctx context.Context, a domain.Appointment) error,
) (*domain.Appointment, error) {
	var locked domain.Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(identity, *a) {
			return domain.NewForbiddenError("apenas o profissional ou o administrador pode alterar este agendamento")
		}
		if !a.Status.CanTransitionTo(next) {
			return transitionError(a.Status, next)
		}

		if apply != nil {
			if err := apply(ctx, *a); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateStatus(ctx, a.ID, next); err != nil {
			return err
		}

		locked = *a
		locked.Status = next
		return nil
	})
	if err != nil {
		s.logger.Warn("не удалось сменить статус записи",
			zap.Int64("appointment_id", id),
			zap.String("status", string(next)),
			zap.Error(err),
		)
		return nil, err
	}

	return &locked, nil
}

func (s *AppointmentServiceImpl) Confirm(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error) {
	a, err := s.transition(ctx, identity, id, domain.AppointmentStatusConfirmed, func(ctx context.Context, a domain.Appointment) error {
		return s.booking.Confirm(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.AppointmentConfirmed(ctx, *a); err != nil {
		s.logger.Warn("письмо о подтверждении не отправлено", zap.Int64("appointment_id", id), zap.Error(err))
	}

	return a, nil
}

// releaseRun освобождает серию записи и запоминает освобожденные моменты.
func (s *AppointmentServiceImpl) releaseRun(released *[]time.Time) func(ctx context.Context, a domain.Appointment) error {
	return func(ctx context.Context, a domain.Appointment) error {
		ts, err := s.booking.Release(ctx, a.ProfessionalID, a.StartsAt, a.ServiceDuration)
		*released = ts
		return err
	}
}

func (s *AppointmentServiceImpl) Reject(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error) {
	var released []time.Time
	a, err := s.transition(ctx, identity, id, domain.AppointmentStatusRejected, s.releaseRun(&released))
	if err != nil {
		return nil, err
	}

	s.publishReleased(a.ProfessionalID, released)
	if err := s.notifier.AppointmentRejected(ctx, *a); err != nil {
		s.logger.Warn("письмо об отказе не отправлено", zap.Int64("appointment_id", id), zap.Error(err))
	}

	return a, nil
}

func (s *AppointmentServiceImpl) Complete(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error) {
	var released []time.Time
	a, err := s.transition(ctx, identity, id, domain.AppointmentStatusCompleted, s.releaseRun(&released))
	if err != nil {
		return nil, err
	}

	s.publishReleased(a.ProfessionalID, released)
	s.afterCompletion(ctx, *a)
	return a, nil
}

// afterCompletion - побочные эффекты завершения после коммита. Ошибки только логируются.
func (s *AppointmentServiceImpl) afterCompletion(ctx context.Context, a domain.Appointment) {
	record := domain.CompletedService{
		ID:              uuid.NewString(),
		AppointmentID:   a.ID,
		ClientID:        a.ClientID,
		ProfessionalID:  a.ProfessionalID,
		EstablishmentID: a.EstablishmentID,
		ServiceID:       a.ServiceID,
		ServiceName:     a.ServiceName,
		Duration:        a.ServiceDuration,
		Amount:          a.ServicePrice,
		StartedAt:       a.StartsAt,
		FinishedAt:      s.now(),
	}
	if err := s.analytics.PutCompleted(ctx, record); err != nil {
		s.logger.Error("ошибка записи аналитики", zap.Int64("appointment_id", a.ID), zap.Error(err))
	}

	if s.loyalty != nil {
		if err := s.loyalty.AwardCompletion(ctx, a); err != nil {
			s.logger.Error("ошибка начисления балла лояльности", zap.Int64("appointment_id", a.ID), zap.Error(err))
		}
	}

	if s.payments != nil {
		p, err := s.payments.ChargeCompleted(ctx, a)
		if err != nil {
			s.logger.Error("ошибка автоматического списания", zap.Int64("appointment_id", a.ID), zap.Error(err))
		} else if p != nil {
			s.logger.Info("оплата списана", zap.Int64("appointment_id", a.ID), zap.String("status", string(p.Status)))
		}
	}
}

func (s *AppointmentServiceImpl) Cancel(ctx context.Context, identity domain.Identity, id int64, dto domain.CancelAppointmentDTO) error {
	var (
		cancelled domain.Appointment
		released  []time.Time
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canView(identity, *a) {
			return domain.NewForbiddenError("agendamento de outro usuário")
		}
		if !a.Status.CanTransitionTo(domain.AppointmentStatusCancelled) {
			return transitionError(a.Status, domain.AppointmentStatusCancelled)
		}

		released, err = s.booking.Release(ctx, a.ProfessionalID, a.StartsAt, a.ServiceDuration)
		if err != nil {
			return err
		}

		record := domain.NewCancelledAppointment(*a, identity.Role, s.now(), dto.Reason)
		if _, err := s.repo.Archive(ctx, record); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, a.ID); err != nil {
			return err
		}

		cancelled = *a
		return nil
	})
	if err != nil {
		s.logger.Warn("не удалось отменить запись", zap.Int64("appointment_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("запись отменена", zap.Int64("appointment_id", id), zap.String("cancelled_by", string(identity.Role)))
	s.publishReleased(cancelled.ProfessionalID, released)
	if err := s.notifier.AppointmentCancelled(ctx, cancelled, dto.Reason); err != nil {
		s.logger.Warn("письмо об отмене не отправлено", zap.Int64("appointment_id", id), zap.Error(err))
	}

	return nil
}

func (s *AppointmentServiceImpl) Reschedule(ctx context.Context, identity domain.Identity, id int64, dto domain.RescheduleAppointmentDTO) (*domain.Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ClientID != identity.UserID && !identity.AdministersEstablishment(current.EstablishmentID) {
		return nil, domain.NewForbiddenError("apenas o cliente ou o administrador pode remarcar")
	}

	if dto.ProfessionalID != nil && *dto.ProfessionalID != current.ProfessionalID {
		target, err := s.professionalRepo.GetByID(ctx, *dto.ProfessionalID)
		if err != nil {
			return nil, err
		}
		if target.EstablishmentID != current.EstablishmentID {
			return nil, domain.NewValidationError("profissional_id", "profissional de outro estabelecimento")
		}
	}

	start := dto.StartsAt.In(s.loc)
	if start.Before(s.now()) {
		return nil, domain.NewValidationError("horario", "não é possível remarcar para o passado")
	}

	result, err := s.booking.Reschedule(ctx, id, start, dto.ProfessionalID)
	if err != nil {
		s.logger.Warn("не удалось перенести запись", zap.Int64("appointment_id", id), zap.Error(err))
		return nil, err
	}

	after, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishReleased(result.Previous.ProfessionalID, result.Released)
	s.events.Publish(domain.SlotEvent{
		Type:           domain.SlotEventOccupied,
		ProfessionalID: result.Reservation.ProfessionalID,
		Timestamps:     result.Reservation.Timestamps(),
	})
	if err := s.notifier.AppointmentRescheduled(ctx, result.Previous, *after); err != nil {
		s.logger.Warn("письмо о переносе не отправлено", zap.Int64("appointment_id", id), zap.Error(err))
	}

	return after, nil
}

func (s *AppointmentServiceImpl) publishReleased(professionalID int64, released []time.Time) {
	if len(released) == 0 {
		return
	}
	s.events.Publish(domain.SlotEvent{
		Type:           domain.SlotEventReleased,
		ProfessionalID: professionalID,
		Timestamps:     released,
	})
}
