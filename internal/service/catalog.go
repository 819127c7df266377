package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/validator"
)

type CatalogServiceImpl struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *zap.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *CatalogServiceImpl) Create(ctx context.Context, identity domain.Identity, establishmentID int64, dto domain.CreateCatalogServiceDTO) (*domain.CatalogService, error) {
	if !identity.AdministersEstablishment(establishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador pode cadastrar serviços")
	}

	dto.Name = strings.TrimSpace(dto.Name)
	dto.Description = validator.SanitizeString(dto.Description)
	if dto.Name == "" {
		return nil, domain.NewValidationError("nome", "nome não pode ser vazio")
	}
	if dto.Duration <= 0 {
		return nil, domain.NewValidationError("tempo", "tempo deve ser maior que zero")
	}
	if dto.Price < 0 {
		return nil, domain.NewValidationError("preco", "preço não pode ser negativo")
	}

	id, err := s.repo.Create(ctx, establishmentID, dto)
	if err != nil {
		s.logger.Error("ошибка создания услуги", zap.Int64("establishment_id", establishmentID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *CatalogServiceImpl) GetByID(ctx context.Context, id int64) (*domain.CatalogService, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CatalogServiceImpl) managed(ctx context.Context, identity domain.Identity, id int64) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !identity.AdministersEstablishment(item.EstablishmentID) {
		return domain.NewForbiddenError("apenas o administrador pode gerenciar serviços")
	}
	return nil
}

func (s *CatalogServiceImpl) Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateCatalogServiceDTO) error {
	if err := s.managed(ctx, identity, id); err != nil {
		return err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return domain.NewValidationError("nome", "nome não pode ser vazio")
		}
		dto.Name = &name
	}
	if dto.Description != nil {
		description := validator.SanitizeString(*dto.Description)
		dto.Description = &description
	}
	if dto.Duration != nil && *dto.Duration <= 0 {
		return domain.NewValidationError("tempo", "tempo deve ser maior que zero")
	}
	if dto.Price != nil && *dto.Price < 0 {
		return domain.NewValidationError("preco", "preço não pode ser negativo")
	}

	return s.repo.Update(ctx, id, dto)
}

func (s *CatalogServiceImpl) Delete(ctx context.Context, identity domain.Identity, id int64) error {
	if err := s.managed(ctx, identity, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *CatalogServiceImpl) ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.CatalogService, error) {
	return s.repo.ListByEstablishment(ctx, establishmentID)
}

// ListCompletedByProfessional - услуги, которые профессионал уже выполнял.
func (s *CatalogServiceImpl) ListCompletedByProfessional(ctx context.Context, professionalID int64) ([]domain.CatalogService, error) {
	return s.repo.ListCompletedByProfessional(ctx, professionalID)
}
