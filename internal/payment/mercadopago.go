package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/customer"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/domain"
)

var ErrGatewayDisabled = errors.New("gateway de pagamento não configurado")

// Gateway - платежный шлюз: регистрация покупателя и списание.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error)
}

type MercadoPagoGateway struct {
	customers customer.Client
	payments  payment.Client
	logger    *zap.Logger
}

func NewMercadoPagoGateway(cfg config.MercadoPagoConfig, logger *zap.Logger) (*MercadoPagoGateway, error) {
	mpCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации Mercado Pago: %w", err)
	}

	return &MercadoPagoGateway{
		customers: customer.NewClient(mpCfg),
		payments:  payment.NewClient(mpCfg),
		logger:    logger,
	}, nil
}

func (g *MercadoPagoGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	firstName, lastName, _ := strings.Cut(strings.TrimSpace(name), " ")

	resp, err := g.customers.Create(ctx, customer.Request{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка создания покупателя в Mercado Pago: %w", err)
	}

	g.logger.Info("покупатель Mercado Pago создан", zap.String("customer_id", resp.ID))
	return resp.ID, nil
}

func (g *MercadoPagoGateway) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}

	payer := &payment.PayerRequest{Email: req.PayerEmail}
	if req.CustomerID != "" {
		payer.Type = "customer"
		payer.ID = req.CustomerID
	}

	resp, err := g.payments.Create(ctx, payment.Request{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   req.PaymentMethodID,
		Token:             req.Token,
		Installments:      installments,
		ExternalReference: req.Reference,
		Payer:             payer,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания платежа в Mercado Pago: %w", err)
	}

	return &domain.ChargeResult{
		GatewayID: strconv.Itoa(resp.ID),
		Status:    resp.Status,
	}, nil
}

// DisabledGateway отвечает ошибкой, если токен Mercado Pago не задан.
type DisabledGateway struct{}

func (DisabledGateway) CreateCustomer(context.Context, string, string) (string, error) {
	return "", ErrGatewayDisabled
}

func (DisabledGateway) Charge(context.Context, domain.ChargeRequest) (*domain.ChargeResult, error) {
	return nil, ErrGatewayDisabled
}

func NewGateway(cfg config.MercadoPagoConfig, logger *zap.Logger) (Gateway, error) {
	if cfg.AccessToken == "" {
		logger.Warn("MERCADOPAGO_ACCESS_TOKEN не задан, платежи отключены")
		return DisabledGateway{}, nil
	}
	return NewMercadoPagoGateway(cfg, logger)
}
