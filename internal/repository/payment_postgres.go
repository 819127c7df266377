package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
)

type PaymentRepo struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) Create(ctx context.Context, p domain.Payment) (int64, error) {
	query := `
		INSERT INTO pagamentos (agendamento_id, cliente_id, valor, moeda, status, gateway_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		p.AppointmentID, p.ClientID, p.Amount, p.Currency, p.Status, p.GatewayID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения платежа: %w", err)
	}

	return id, nil
}

func (r *PaymentRepo) ListByAppointment(ctx context.Context, appointmentID int64) ([]domain.Payment, error) {
	query := `
		SELECT id, agendamento_id, cliente_id, valor, moeda, status, gateway_id, criado_em
		FROM pagamentos
		WHERE agendamento_id = $1
		ORDER BY criado_em DESC
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения платежей: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Payment, error) {
		var p domain.Payment
		err := row.Scan(&p.ID, &p.AppointmentID, &p.ClientID, &p.Amount, &p.Currency, &p.Status, &p.GatewayID, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования платежа: %w", err)
	}

	return list, nil
}
