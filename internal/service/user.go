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

type UserServiceImpl struct {
	repo   repository.UserRepository
	logger *zap.Logger
}

func NewUserService(repo repository.UserRepository, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Debug("пользователь не найден", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return user, nil
}

func (s *UserServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if dto.Name != nil {
		name := validator.FormatName(*dto.Name)
		if name == "" {
			return domain.NewValidationError("nome", "nome não pode ser vazio")
		}
		dto.Name = &name
	}

	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if !validator.ValidateEmail(email) {
			return domain.NewValidationError("email", "e-mail inválido")
		}
		existing, err := s.repo.GetByEmail(ctx, email)
		if err == nil && existing != nil && existing.ID != id {
			return domain.NewConflictError("e-mail já cadastrado", time.Time{})
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		dto.Email = &email
	}

	if dto.Phone != nil {
		if !validator.ValidatePhone(*dto.Phone) {
			return domain.NewValidationError("telefone", "telefone inválido, use o formato +55DDDNUMERO")
		}
		phone := validator.FormatPhone(*dto.Phone)
		dto.Phone = &phone
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления пользователя", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *UserServiceImpl) UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(dto.OldPassword, user.PasswordHash)
	if err != nil || !ok {
		return domain.NewValidationError("senha_atual", "senha atual incorreta")
	}

	if !validator.ValidatePassword(dto.NewPassword) {
		return domain.NewValidationError("nova_senha", "a senha deve ter pelo menos 6 caracteres")
	}

	hash, err := auth.HashPassword(dto.NewPassword)
	if err != nil {
		s.logger.Error("ошибка при хешировании пароля", zap.Error(err))
		return fmt.Errorf("ошибка при обновлении пароля: %w", err)
	}

	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("ошибка удаления пользователя", zap.Int64("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *UserServiceImpl) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, limit, offset)
}
