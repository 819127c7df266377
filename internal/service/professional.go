package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/auth"
	"agendavip/pkg/validator"
)

type ProfessionalServiceImpl struct {
	tx       repository.TxManager
	repo     repository.ProfessionalRepository
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewProfessionalService(
	tx repository.TxManager,
	repo repository.ProfessionalRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *ProfessionalServiceImpl {
	return &ProfessionalServiceImpl{
		tx:       tx,
		repo:     repo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create заводит пользователя-профессионала и запись funcionarios одной транзакцией.
func (s *ProfessionalServiceImpl) Create(ctx context.Context, identity domain.Identity, establishmentID int64, dto domain.CreateProfessionalDTO) (*domain.Professional, error) {
	if !identity.AdministersEstablishment(establishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador pode cadastrar profissionais")
	}

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if !validator.ValidateEmail(email) {
		return nil, domain.NewValidationError("email", "e-mail inválido")
	}
	if !validator.ValidatePhone(dto.Phone) {
		return nil, domain.NewValidationError("telefone", "telefone inválido, use o formato +55DDDNUMERO")
	}
	if !validator.ValidatePassword(dto.Password) {
		return nil, domain.NewValidationError("senha", "a senha deve ter pelo menos 6 caracteres")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, domain.NewConflictError("e-mail já cadastrado", time.Time{})
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка при хешировании пароля: %w", err)
	}

	var id int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		userID, err := s.userRepo.Create(ctx, domain.User{
			Name:            validator.FormatName(dto.Name),
			Email:           email,
			Phone:           validator.FormatPhone(dto.Phone),
			PasswordHash:    hash,
			Role:            domain.UserRoleProfessional,
			EstablishmentID: &establishmentID,
			IsActive:        true,
		})
		if err != nil {
			return err
		}

		id, err = s.repo.Create(ctx, userID, establishmentID, strings.TrimSpace(dto.Role))
		return err
	})
	if err != nil {
		s.logger.Error("ошибка создания профессионала", zap.Int64("establishment_id", establishmentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("профессионал создан", zap.Int64("id", id), zap.Int64("establishment_id", establishmentID))
	return s.repo.GetByID(ctx, id)
}

func (s *ProfessionalServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Professional, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProfessionalServiceImpl) managed(ctx context.Context, identity domain.Identity, id int64) (*domain.Professional, error) {
	professional, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.AdministersEstablishment(professional.EstablishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador pode gerenciar profissionais")
	}
	return professional, nil
}

func (s *ProfessionalServiceImpl) Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateProfessionalDTO) error {
	if _, err := s.managed(ctx, identity, id); err != nil {
		return err
	}
	if dto.Role != nil {
		role := strings.TrimSpace(*dto.Role)
		dto.Role = &role
	}
	return s.repo.Update(ctx, id, dto)
}

func (s *ProfessionalServiceImpl) Delete(ctx context.Context, identity domain.Identity, id int64) error {
	if _, err := s.managed(ctx, identity, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("ошибка удаления профессионала", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *ProfessionalServiceImpl) ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.Professional, error) {
	return s.repo.ListByEstablishment(ctx, establishmentID)
}
