package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"agendavip/internal/analytics"
	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/internal/storage"
)

const (
	pointsPerCompletion = 1
	qrcodeFolder        = "qrcodes"
	qrcodeSize          = 256
)

type LoyaltyServiceImpl struct {
	tx          repository.TxManager
	repo        repository.LoyaltyRepository
	analytics   analytics.Store
	fileStorage storage.FileStorage
	logger      *zap.Logger
}

func NewLoyaltyService(
	tx repository.TxManager,
	repo repository.LoyaltyRepository,
	store analytics.Store,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
) *LoyaltyServiceImpl {
	if store == nil {
		store = analytics.NopStore{}
	}
	if fileStorage == nil {
		fileStorage = storage.DisabledStorage{}
	}
	return &LoyaltyServiceImpl{
		tx:          tx,
		repo:        repo,
		analytics:   store,
		fileStorage: fileStorage,
		logger:      logger,
	}
}

func (s *LoyaltyServiceImpl) CreateProgram(ctx context.Context, identity domain.Identity, establishmentID int64, dto domain.CreateLoyaltyProgramDTO) (*domain.LoyaltyProgram, error) {
	if !identity.AdministersEstablishment(establishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador do estabelecimento pode criar programas")
	}
	if dto.PointsRequired <= 0 {
		return nil, domain.NewValidationError("pontos_necessarios", "pontos_necessarios deve ser maior que zero")
	}

	id, err := s.repo.CreateProgram(ctx, establishmentID, dto)
	if err != nil {
		s.logger.Error("ошибка создания программы лояльности", zap.Int64("establishment_id", establishmentID), zap.Error(err))
		return nil, err
	}

	return s.repo.GetProgram(ctx, id)
}

func (s *LoyaltyServiceImpl) managedProgram(ctx context.Context, identity domain.Identity, id int64) (*domain.LoyaltyProgram, error) {
	program, err := s.repo.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.AdministersEstablishment(program.EstablishmentID) {
		return nil, domain.NewForbiddenError("programa de outro estabelecimento")
	}
	return program, nil
}

func (s *LoyaltyServiceImpl) UpdateProgram(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateLoyaltyProgramDTO) error {
	if _, err := s.managedProgram(ctx, identity, id); err != nil {
		return err
	}
	if dto.PointsRequired != nil && *dto.PointsRequired <= 0 {
		return domain.NewValidationError("pontos_necessarios", "pontos_necessarios deve ser maior que zero")
	}
	return s.repo.UpdateProgram(ctx, id, dto)
}

func (s *LoyaltyServiceImpl) DeleteProgram(ctx context.Context, identity domain.Identity, id int64) error {
	if _, err := s.managedProgram(ctx, identity, id); err != nil {
		return err
	}
	return s.repo.DeleteProgram(ctx, id)
}

func (s *LoyaltyServiceImpl) ListPrograms(ctx context.Context, establishmentID int64, onlyActive bool) ([]domain.LoyaltyProgram, error) {
	programs, err := s.repo.ListPrograms(ctx, establishmentID, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения программ лояльности: %w", err)
	}
	return programs, nil
}

func (s *LoyaltyServiceImpl) GetBalance(ctx context.Context, identity domain.Identity, establishmentID int64) (*domain.LoyaltyBalance, error) {
	return s.repo.GetBalance(ctx, identity.UserID, establishmentID)
}

// AwardCompletion начисляет балл за выполненную услугу и дублирует его в аналитику.
func (s *LoyaltyServiceImpl) AwardCompletion(ctx context.Context, a domain.Appointment) error {
	total, err := s.repo.AddPoints(ctx, a.ClientID, a.EstablishmentID, pointsPerCompletion)
	if err != nil {
		return fmt.Errorf("ошибка начисления баллов: %w", err)
	}

	point := domain.LoyaltyPoint{
		ID:              uuid.NewString(),
		ClientID:        a.ClientID,
		EstablishmentID: a.EstablishmentID,
		AppointmentID:   a.ID,
		Points:          pointsPerCompletion,
		CreatedAt:       time.Now(),
	}
	if err := s.analytics.PutLoyaltyPoint(ctx, point); err != nil {
		s.logger.Warn("балл не записан в аналитику", zap.Int64("appointment_id", a.ID), zap.Error(err))
	}

	s.logger.Info("балл лояльности начислен", zap.Int64("client_id", a.ClientID), zap.Int("total", total))
	return nil
}

func (s *LoyaltyServiceImpl) Redeem(ctx context.Context, identity domain.Identity, programID int64) (*domain.Redemption, error) {
	if identity.Role != domain.UserRoleClient {
		return nil, domain.NewForbiddenError("apenas clientes podem resgatar prêmios")
	}

	program, err := s.repo.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if !program.Active {
		return nil, domain.NewValidationError("programa_id", "programa de fidelidade inativo")
	}

	voucher := uuid.NewString()
	payload := fmt.Sprintf("agendavip:resgate:%s:programa=%d:cliente=%d", voucher, program.ID, identity.UserID)
	png, err := qrcode.Encode(payload, qrcode.Medium, qrcodeSize)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}

	key, err := s.fileStorage.UploadFile(ctx, qrcodeFolder, png, ".png", "image/png")
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки QR-кода: %w", err)
	}

	redemption := domain.Redemption{
		ProgramID:       program.ID,
		ClientID:        identity.UserID,
		EstablishmentID: program.EstablishmentID,
		PointsSpent:     program.PointsRequired,
		QRCodeKey:       key,
		RedeemedAt:      time.Now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		remaining, ok, err := s.repo.SpendPoints(ctx, identity.UserID, program.EstablishmentID, program.PointsRequired)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError("pontos", fmt.Sprintf("são necessários %d pontos para este prêmio", program.PointsRequired))
		}
		redemption.RemainingPoints = remaining

		_, err = s.repo.CreateRedemption(ctx, redemption)
		return err
	})
	if err != nil {
		if delErr := s.fileStorage.DeleteFile(ctx, key); delErr != nil {
			s.logger.Warn("не удалось удалить QR-код", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	url, err := s.fileStorage.GetPresignedURL(ctx, key, 0)
	if err != nil {
		s.logger.Warn("не удалось получить ссылку на QR-код", zap.String("key", key), zap.Error(err))
	}
	redemption.QRCodeURL = url

	return &redemption, nil
}
