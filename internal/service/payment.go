package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/payment"
	"agendavip/internal/repository"
)

type PaymentServiceImpl struct {
	repo            repository.PaymentRepository
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	gateway         payment.Gateway
	currency        string
	logger          *zap.Logger
}

func NewPaymentService(
	repo repository.PaymentRepository,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
	gateway payment.Gateway,
	currency string,
	logger *zap.Logger,
) *PaymentServiceImpl {
	if gateway == nil {
		gateway = payment.DisabledGateway{}
	}
	if currency == "" {
		currency = "BRL"
	}
	return &PaymentServiceImpl{
		repo:            repo,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		gateway:         gateway,
		currency:        currency,
		logger:          logger,
	}
}

// RegisterCustomer создает покупателя в шлюзе (один раз) и сохраняет способ оплаты по умолчанию.
func (s *PaymentServiceImpl) RegisterCustomer(ctx context.Context, identity domain.Identity, dto domain.RegisterCustomerDTO) error {
	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return err
	}

	var method *string
	if dto.PaymentMethodID != "" {
		method = &dto.PaymentMethodID
	}

	if user.HasSavedPayment() {
		return s.userRepo.SetPaymentCustomer(ctx, user.ID, *user.PaymentCustomerID, method)
	}

	customerID, err := s.gateway.CreateCustomer(ctx, user.Email, user.Name)
	if err != nil {
		s.logger.Error("ошибка регистрации покупателя", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	return s.userRepo.SetPaymentCustomer(ctx, user.ID, customerID, method)
}

func (s *PaymentServiceImpl) Charge(ctx context.Context, identity domain.Identity, dto domain.ChargeDTO) (*domain.Payment, error) {
	a, err := s.appointmentRepo.GetByID(ctx, dto.AppointmentID)
	if err != nil {
		return nil, err
	}
	if a.ClientID != identity.UserID {
		return nil, domain.NewForbiddenError("apenas o cliente do agendamento pode pagá-lo")
	}

	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	req := domain.ChargeRequest{
		PaymentMethodID: dto.PaymentMethodID,
		Token:           dto.Token,
		Installments:    dto.Installments,
		PayerEmail:      user.Email,
	}
	if user.HasSavedPayment() {
		req.CustomerID = *user.PaymentCustomerID
	}

	return s.charge(ctx, *a, req)
}

// ChargeCompleted списывает оплату с сохраненного способа клиента. Без него ничего не делает.
func (s *PaymentServiceImpl) ChargeCompleted(ctx context.Context, a domain.Appointment) (*domain.Payment, error) {
	user, err := s.userRepo.GetByID(ctx, a.ClientID)
	if err != nil {
		return nil, err
	}
	if !user.HasSavedPayment() || user.DefaultPaymentMethodID == nil {
		return nil, nil
	}

	return s.charge(ctx, a, domain.ChargeRequest{
		PaymentMethodID: *user.DefaultPaymentMethodID,
		CustomerID:      *user.PaymentCustomerID,
		PayerEmail:      user.Email,
	})
}

func (s *PaymentServiceImpl) charge(ctx context.Context, a domain.Appointment, req domain.ChargeRequest) (*domain.Payment, error) {
	if a.ServicePrice <= 0 {
		return nil, domain.NewValidationError("valor", "serviço sem preço definido")
	}

	req.Amount = a.ServicePrice
	req.Description = a.ServiceName
	req.Reference = "agendamento-" + strconv.FormatInt(a.ID, 10)

	result, err := s.gateway.Charge(ctx, req)
	if err != nil {
		s.logger.Error("ошибка списания", zap.Int64("appointment_id", a.ID), zap.Error(err))
		return nil, err
	}

	p := domain.Payment{
		AppointmentID: a.ID,
		ClientID:      a.ClientID,
		Amount:        a.ServicePrice,
		Currency:      s.currency,
		Status:        domain.ParsePaymentStatus(result.Status),
		GatewayID:     result.GatewayID,
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения платежа %s: %w", result.GatewayID, err)
	}
	p.ID = id

	return &p, nil
}

func (s *PaymentServiceImpl) ListByAppointment(ctx context.Context, identity domain.Identity, appointmentID int64) ([]domain.Payment, error) {
	a, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canView(identity, *a) {
		return nil, domain.NewForbiddenError("agendamento de outro usuário")
	}

	return s.repo.ListByAppointment(ctx, appointmentID)
}
