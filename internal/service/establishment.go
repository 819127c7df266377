package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/validator"
)

type EstablishmentServiceImpl struct {
	tx       repository.TxManager
	repo     repository.EstablishmentRepository
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewEstablishmentService(
	tx repository.TxManager,
	repo repository.EstablishmentRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *EstablishmentServiceImpl {
	return &EstablishmentServiceImpl{
		tx:       tx,
		repo:     repo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create регистрирует заведение; создатель становится его администратором.
func (s *EstablishmentServiceImpl) Create(ctx context.Context, identity domain.Identity, dto domain.CreateEstablishmentDTO) (*domain.Establishment, error) {
	if identity.Role == domain.UserRoleProfessional {
		return nil, domain.NewForbiddenError("profissionais não podem cadastrar estabelecimentos")
	}
	if identity.EstablishmentID != nil {
		return nil, domain.NewConflictError("usuário já administra um estabelecimento", time.Time{})
	}

	if err := normalizeEstablishment(&dto); err != nil {
		return nil, err
	}

	var id int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.repo.Create(ctx, dto)
		if err != nil {
			return err
		}
		return s.userRepo.SetEstablishment(ctx, identity.UserID, id, domain.UserRoleAdmin)
	})
	if err != nil {
		s.logger.Error("ошибка создания заведения", zap.Int64("user_id", identity.UserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("заведение создано", zap.Int64("id", id), zap.Int64("admin_id", identity.UserID))
	return s.repo.GetByID(ctx, id)
}

func normalizeEstablishment(dto *domain.CreateEstablishmentDTO) error {
	dto.Name = strings.TrimSpace(dto.Name)
	if dto.Name == "" {
		return domain.NewValidationError("nome", "nome não pode ser vazio")
	}
	if !validator.ValidateCNPJ(dto.CNPJ) {
		return domain.NewValidationError("cnpj", "CNPJ inválido")
	}
	dto.CNPJ = validator.FormatCNPJ(dto.CNPJ)
	dto.ServiceType = strings.TrimSpace(dto.ServiceType)

	if dto.Phone != "" {
		if !validator.ValidatePhone(dto.Phone) {
			return domain.NewValidationError("telefone", "telefone inválido, use o formato +55DDDNUMERO")
		}
		dto.Phone = validator.FormatPhone(dto.Phone)
	}
	return nil
}

func (s *EstablishmentServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Establishment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *EstablishmentServiceImpl) Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateEstablishmentDTO) error {
	if !identity.AdministersEstablishment(id) {
		return domain.NewForbiddenError("apenas o administrador pode alterar o estabelecimento")
	}

	if dto.Phone != nil && *dto.Phone != "" {
		if !validator.ValidatePhone(*dto.Phone) {
			return domain.NewValidationError("telefone", "telefone inválido, use o formato +55DDDNUMERO")
		}
		phone := validator.FormatPhone(*dto.Phone)
		dto.Phone = &phone
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления заведения", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *EstablishmentServiceImpl) List(ctx context.Context, limit, offset int) ([]domain.Establishment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, limit, max(offset, 0))
}
