package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/metrics"
)

type SlotServiceImpl struct {
	tx               repository.TxManager
	repo             repository.SlotRepository
	rules            repository.ScheduleRepository
	professionalRepo repository.ProfessionalRepository
	loc              *time.Location
	maxDays          int
	events           EventPublisher
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

func NewSlotService(
	tx repository.TxManager,
	repo repository.SlotRepository,
	rules repository.ScheduleRepository,
	professionalRepo repository.ProfessionalRepository,
	cfg config.SchedulingConfig,
	events EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SlotServiceImpl {
	return &SlotServiceImpl{
		tx:               tx,
		repo:             repo,
		rules:            rules,
		professionalRepo: professionalRepo,
		loc:              cfg.Location(),
		maxDays:          cfg.MaxExpansionDays,
		events:           events,
		metrics:          m,
		logger:           logger,
	}
}

// dates разбирает диапазон дат [start, end] и проверяет его длину.
func (s *SlotServiceImpl) dates(start, end string) ([]time.Time, error) {
	from, err := domain.ParseDate(start, s.loc)
	if err != nil {
		return nil, err
	}
	to, err := domain.ParseDate(end, s.loc)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, domain.NewValidationError("data_fim", "data_fim deve ser igual ou posterior a data_inicio")
	}

	days := domain.DateRange(from, to)
	if s.maxDays > 0 && len(days) > s.maxDays {
		return nil, domain.NewValidationError("data_fim", fmt.Sprintf("intervalo máximo é de %d dias", s.maxDays))
	}

	return days, nil
}

// ownedProfessional - профессионал, которым identity может управлять: он сам или админ заведения.
func (s *SlotServiceImpl) ownedProfessional(ctx context.Context, identity domain.Identity, professionalID int64) (*domain.Professional, error) {
	professional, err := s.professionalRepo.GetByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if !identity.IsProfessional(professional.ID) && !identity.AdministersEstablishment(professional.EstablishmentID) {
		return nil, domain.NewForbiddenError("somente o próprio profissional ou o administrador pode gerenciar esta agenda")
	}
	return professional, nil
}

func (s *SlotServiceImpl) ExpandFromRules(ctx context.Context, identity domain.Identity, dto domain.ExpandRulesDTO) (*domain.ExpansionResult, error) {
	professional, err := s.ownedProfessional(ctx, identity, dto.ProfessionalID)
	if err != nil {
		return nil, err
	}

	days, err := s.dates(dto.StartDate, dto.EndDate)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListByProfessional(ctx, professional.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения правил расписания: %w", err)
	}

	byWeekday := make(map[domain.Weekday][]domain.AvailabilityRule)
	for _, rule := range rules {
		byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], rule)
	}

	var starts []time.Time
	for _, day := range days {
		for _, rule := range byWeekday[domain.WeekdayOf(day)] {
			for _, tod := range rule.SlotStarts() {
				starts = append(starts, tod.On(day))
			}
		}
	}

	return s.create(ctx, *professional, starts)
}

func (s *SlotServiceImpl) ExpandFromTimes(ctx context.Context, identity domain.Identity, dto domain.ExpandTimesDTO) (*domain.ExpansionResult, error) {
	professional, err := s.ownedProfessional(ctx, identity, dto.ProfessionalID)
	if err != nil {
		return nil, err
	}

	days, err := s.dates(dto.StartDate, dto.EndDate)
	if err != nil {
		return nil, err
	}

	if len(dto.Times) == 0 {
		return nil, domain.NewValidationError("horarios", "informe ao menos um horário")
	}
	times := make([]domain.TimeOfDay, 0, len(dto.Times))
	for _, raw := range dto.Times {
		tod, err := domain.ParseTimeOfDay(raw)
		if err != nil {
			return nil, err
		}
		times = append(times, tod)
	}

	var starts []time.Time
	for _, day := range days {
		for _, tod := range times {
			starts = append(starts, tod.On(day))
		}
	}

	return s.create(ctx, *professional, starts)
}

func (s *SlotServiceImpl) ExpandForEstablishment(ctx context.Context, identity domain.Identity, dto domain.BulkExpandDTO) (*domain.ExpansionResult, error) {
	if !identity.AdministersEstablishment(dto.EstablishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador do estabelecimento pode gerar a agenda")
	}

	days, err := s.dates(dto.StartDate, dto.EndDate)
	if err != nil {
		return nil, err
	}

	if dto.SlotDuration == 0 {
		dto.SlotDuration = domain.DefaultSlotDurationMinutes
	}
	if err := domain.ValidateWindow(dto.StartTime, dto.EndTime, dto.SlotDuration); err != nil {
		return nil, err
	}
	if len(dto.Weekdays) == 0 {
		return nil, domain.NewValidationError("dias_semana", "informe ao menos um dia da semana")
	}
	weekdays := domain.NewWeekdaySet(dto.Weekdays...)

	var starts []time.Time
	for _, day := range days {
		if !weekdays.Contains(domain.WeekdayOf(day)) {
			continue
		}
		for _, tod := range domain.SlotStarts(dto.StartTime, dto.EndTime, dto.SlotDuration) {
			starts = append(starts, tod.On(day))
		}
	}

	professionals, err := s.professionalRepo.ListByEstablishment(ctx, dto.EstablishmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профессионалов: %w", err)
	}

	result := &domain.ExpansionResult{Timestamps: []time.Time{}}
	var events []domain.SlotEvent
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, professional := range professionals {
			created, err := s.repo.CreateMany(ctx, professional.ID, professional.EstablishmentID, starts)
			if err != nil {
				return err
			}
			for _, t := range created {
				result.Record(t)
			}
			if len(created) > 0 {
				events = append(events, domain.SlotEvent{
					Type:           domain.SlotEventCreated,
					ProfessionalID: professional.ID,
					Timestamps:     created,
				})
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка массовой генерации слотов", zap.Int64("establishment_id", dto.EstablishmentID), zap.Error(err))
		return nil, err
	}

	for _, event := range events {
		s.events.Publish(event)
	}
	s.metrics.SlotsCreated(result.Created)
	s.logger.Info("слоты заведения сгенерированы",
		zap.Int64("establishment_id", dto.EstablishmentID),
		zap.Int("professionals", len(professionals)),
		zap.Int("created", result.Created),
	)

	return result, nil
}

func (s *SlotServiceImpl) create(ctx context.Context, professional domain.Professional, starts []time.Time) (*domain.ExpansionResult, error) {
	created, err := s.repo.CreateMany(ctx, professional.ID, professional.EstablishmentID, starts)
	if err != nil {
		s.logger.Error("ошибка генерации слотов", zap.Int64("professional_id", professional.ID), zap.Error(err))
		return nil, err
	}

	result := &domain.ExpansionResult{Timestamps: []time.Time{}}
	for _, t := range created {
		result.Record(t)
	}

	if result.Created > 0 {
		s.events.Publish(domain.SlotEvent{
			Type:           domain.SlotEventCreated,
			ProfessionalID: professional.ID,
			Timestamps:     created,
		})
	}
	s.metrics.SlotsCreated(result.Created)

	return result, nil
}

func (s *SlotServiceImpl) CreateSlot(ctx context.Context, identity domain.Identity, dto domain.CreateSlotDTO) (*domain.Slot, error) {
	professional, err := s.ownedProfessional(ctx, identity, dto.ProfessionalID)
	if err != nil {
		return nil, err
	}

	at := dto.StartsAt.In(s.loc)
	result, err := s.create(ctx, *professional, []time.Time{at})
	if err != nil {
		return nil, err
	}
	if result.Created == 0 {
		return nil, domain.NewConflictError("já existe um horário neste momento", at)
	}

	slots, err := s.repo.List(ctx, domain.SlotFilter{
		ProfessionalID: &professional.ID,
		From:           &at,
		To:             PointerTo(at.Add(time.Second)),
		Limit:          1,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения созданного слота: %w", err)
	}
	if len(slots) == 0 {
		return nil, domain.NewNotFoundError("horário", 0)
	}

	return &slots[0], nil
}

func (s *SlotServiceImpl) ListSlots(ctx context.Context, filter domain.SlotFilter) ([]domain.Slot, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.NewValidationError("data_fim", "data_fim deve ser posterior a data_inicio")
	}

	slots, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения слотов: %w", err)
	}

	return slots, nil
}

// DeleteSlot удаляет только свободный будущий слот.
func (s *SlotServiceImpl) DeleteSlot(ctx context.Context, identity domain.Identity, id int64) error {
	slot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !identity.IsProfessional(slot.ProfessionalID) && !identity.AdministersEstablishment(slot.EstablishmentID) {
		return domain.NewForbiddenError("somente o próprio profissional ou o administrador pode remover horários")
	}
	if slot.Occupied {
		return domain.NewConflictError("horário ocupado não pode ser removido", slot.StartsAt)
	}
	if slot.StartsAt.Before(time.Now()) {
		return domain.NewConflictError("horário passado não pode ser removido", slot.StartsAt)
	}

	deleted, err := s.repo.DeleteFree(ctx, id, time.Now())
	if err != nil {
		s.logger.Error("ошибка удаления слота", zap.Int64("slot_id", id), zap.Error(err))
		return err
	}
	if !deleted {
		return domain.NewConflictError("horário foi ocupado ou já passou", slot.StartsAt)
	}

	s.events.Publish(domain.SlotEvent{
		Type:           domain.SlotEventDeleted,
		ProfessionalID: slot.ProfessionalID,
		Timestamps:     []time.Time{slot.StartsAt},
	})

	return nil
}
