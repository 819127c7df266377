package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/validator"
)

const maxCommentLength = 1000

type ReviewServiceImpl struct {
	repo            repository.ReviewRepository
	appointmentRepo repository.AppointmentRepository
	logger          *zap.Logger
}

func NewReviewService(repo repository.ReviewRepository, appointmentRepo repository.AppointmentRepository, logger *zap.Logger) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		logger:          logger,
	}
}

func validateScore(score int) error {
	if score < 1 || score > 5 {
		return domain.NewValidationError("nota", "nota deve estar entre 1 e 5")
	}
	return nil
}

func sanitizeComment(comment string) (string, error) {
	clean := validator.SanitizeString(comment)
	if len([]rune(clean)) > maxCommentLength {
		return "", domain.NewValidationError("comentario", fmt.Sprintf("comentário maior que %d caracteres", maxCommentLength))
	}
	return clean, nil
}

func (s *ReviewServiceImpl) Create(ctx context.Context, identity domain.Identity, dto domain.CreateReviewDTO) (*domain.Review, error) {
	if err := validateScore(dto.Score); err != nil {
		return nil, err
	}
	comment, err := sanitizeComment(dto.Comment)
	if err != nil {
		return nil, err
	}

	a, err := s.appointmentRepo.GetByID(ctx, dto.AppointmentID)
	if err != nil {
		return nil, err
	}
	if a.ClientID != identity.UserID {
		return nil, domain.NewForbiddenError("apenas o cliente do agendamento pode avaliá-lo")
	}
	if a.Status != domain.AppointmentStatusCompleted {
		return nil, domain.NewValidationError("agendamento_id", "apenas agendamentos finalizados podem ser avaliados")
	}

	exists, err := s.repo.ExistsForAppointment(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки отзыва: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("este agendamento já foi avaliado", time.Time{})
	}

	review := domain.Review{
		ClientID:        a.ClientID,
		ProfessionalID:  a.ProfessionalID,
		EstablishmentID: a.EstablishmentID,
		AppointmentID:   a.ID,
		Score:           dto.Score,
		Comment:         comment,
	}

	id, err := s.repo.Create(ctx, review)
	if err != nil {
		s.logger.Error("ошибка создания отзыва", zap.Int64("appointment_id", a.ID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *ReviewServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ReviewServiceImpl) Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateReviewDTO) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.ClientID != identity.UserID {
		return domain.NewForbiddenError("apenas o autor pode alterar a avaliação")
	}

	if dto.Score != nil {
		if err := validateScore(*dto.Score); err != nil {
			return err
		}
	}
	if dto.Comment != nil {
		comment, err := sanitizeComment(*dto.Comment)
		if err != nil {
			return err
		}
		dto.Comment = &comment
	}

	if err := s.repo.Update(ctx, id, dto); err != nil {
		s.logger.Error("ошибка обновления отзыва", zap.Int64("review_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *ReviewServiceImpl) Delete(ctx context.Context, identity domain.Identity, id int64) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.ClientID != identity.UserID && !identity.AdministersEstablishment(review.EstablishmentID) {
		return domain.NewForbiddenError("apenas o autor ou o administrador pode remover a avaliação")
	}

	return s.repo.Delete(ctx, id)
}

func (s *ReviewServiceImpl) ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.Review, error) {
	reviews, err := s.repo.ListByEstablishment(ctx, establishmentID, domain.EstablishmentReviewsLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отзывов: %w", err)
	}
	return reviews, nil
}

func (s *ReviewServiceImpl) ListLatest(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.repo.ListLatest(ctx, domain.PublicReviewsLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отзывов: %w", err)
	}
	return reviews, nil
}
