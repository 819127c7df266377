package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
)

type ScheduleServiceImpl struct {
	tx               repository.TxManager
	repo             repository.ScheduleRepository
	professionalRepo repository.ProfessionalRepository
	logger           *zap.Logger
}

func NewScheduleService(
	tx repository.TxManager,
	repo repository.ScheduleRepository,
	professionalRepo repository.ProfessionalRepository,
	logger *zap.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		tx:               tx,
		repo:             repo,
		professionalRepo: professionalRepo,
		logger:           logger,
	}
}

func (s *ScheduleServiceImpl) UpsertRule(ctx context.Context, identity domain.Identity, dto domain.UpsertRuleDTO) (*domain.AvailabilityRule, error) {
	professional, err := s.professionalRepo.GetByID(ctx, dto.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !identity.AdministersEstablishment(professional.EstablishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador do estabelecimento pode configurar a agenda")
	}

	if !dto.Weekday.Valid() {
		return nil, domain.NewValidationError("dia_semana", "dia da semana inválido")
	}
	if dto.SlotDuration == 0 {
		dto.SlotDuration = domain.DefaultSlotDurationMinutes
	}
	if err := domain.ValidateWindow(dto.StartTime, dto.EndTime, dto.SlotDuration); err != nil {
		return nil, err
	}

	var result domain.AvailabilityRule
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rules, err := s.repo.ListByWeekdayForUpdate(ctx, professional.ID, dto.Weekday)
		if err != nil {
			return fmt.Errorf("ошибка получения правил: %w", err)
		}

		var overlapping []domain.AvailabilityRule
		for _, rule := range rules {
			if rule.Overlaps(dto.StartTime, dto.EndTime) {
				overlapping = append(overlapping, rule)
			}
		}

		if len(overlapping) == 0 {
			result = domain.AvailabilityRule{
				ProfessionalID:  professional.ID,
				EstablishmentID: professional.EstablishmentID,
				Weekday:         dto.Weekday,
				StartTime:       dto.StartTime,
				EndTime:         dto.EndTime,
				SlotDuration:    dto.SlotDuration,
				CreatedAt:       time.Now(),
				UpdatedAt:       time.Now(),
			}
			id, err := s.repo.Create(ctx, result)
			if err != nil {
				return err
			}
			result.ID = id
			return nil
		}

		sort.Slice(overlapping, func(i, j int) bool {
			return overlapping[i].StartTime < overlapping[j].StartTime
		})

		result = overlapping[0]
		result.StartTime = dto.StartTime
		result.EndTime = dto.EndTime
		result.SlotDuration = dto.SlotDuration
		result.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, result); err != nil {
			return err
		}

		for _, rule := range overlapping[1:] {
			if err := s.repo.Delete(ctx, rule.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка сохранения правила расписания",
			zap.Int64("professional_id", dto.ProfessionalID),
			zap.Stringer("weekday", dto.Weekday),
			zap.Error(err),
		)
		return nil, err
	}

	return &result, nil
}

func (s *ScheduleServiceImpl) ListRules(ctx context.Context, professionalID int64) ([]domain.AvailabilityRule, error) {
	if _, err := s.professionalRepo.GetByID(ctx, professionalID); err != nil {
		return nil, err
	}

	rules, err := s.repo.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения правил расписания: %w", err)
	}

	return rules, nil
}

func (s *ScheduleServiceImpl) UpdateRule(ctx context.Context, identity domain.Identity, ruleID int64, dto domain.UpdateRuleDTO) (*domain.AvailabilityRule, error) {
	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !identity.AdministersEstablishment(rule.EstablishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador do estabelecimento pode configurar a agenda")
	}

	if dto.StartTime != nil {
		rule.StartTime = *dto.StartTime
	}
	if dto.EndTime != nil {
		rule.EndTime = *dto.EndTime
	}
	if dto.SlotDuration != nil {
		rule.SlotDuration = *dto.SlotDuration
	}
	if err := domain.ValidateWindow(rule.StartTime, rule.EndTime, rule.SlotDuration); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		siblings, err := s.repo.ListByWeekdayForUpdate(ctx, rule.ProfessionalID, rule.Weekday)
		if err != nil {
			return fmt.Errorf("ошибка получения правил: %w", err)
		}
		for _, sibling := range siblings {
			if sibling.ID != rule.ID && sibling.Overlaps(rule.StartTime, rule.EndTime) {
				return domain.NewConflictError(
					fmt.Sprintf("intervalo sobrepõe a regra %s-%s", sibling.StartTime, sibling.EndTime), time.Time{})
			}
		}

		rule.UpdatedAt = time.Now()
		return s.repo.Update(ctx, *rule)
	})
	if err != nil {
		s.logger.Error("ошибка обновления правила расписания", zap.Int64("rule_id", ruleID), zap.Error(err))
		return nil, err
	}

	return rule, nil
}

func (s *ScheduleServiceImpl) DeleteRule(ctx context.Context, identity domain.Identity, ruleID int64) error {
	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if !identity.AdministersEstablishment(rule.EstablishmentID) {
		return domain.NewForbiddenError("apenas o administrador do estabelecimento pode configurar a agenda")
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		s.logger.Error("ошибка удаления правила расписания", zap.Int64("rule_id", ruleID), zap.Error(err))
		return err
	}

	return nil
}
