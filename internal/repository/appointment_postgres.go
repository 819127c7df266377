package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
	"agendavip/pkg/psqlbuilder"
)

var appointmentColumns = []string{
	"a.id", "a.cliente_id", "a.profissional_id", "a.servico_id", "a.estabelecimento_id",
	"a.horario", "a.status", "a.notificado_1_dia", "a.notificado_1_hora", "a.criado_em", "a.atualizado_em",
	"s.nome", "s.tempo", "s.preco", "c.nome", "c.email", "pu.nome", "pu.email",
}

const appointmentJoins = `
	agendamentos a
	JOIN servicos s ON s.id = a.servico_id
	JOIN usuarios c ON c.id = a.cliente_id
	JOIN funcionarios f ON f.id = a.profissional_id
	JOIN usuarios pu ON pu.id = f.usuario_id
`

type AppointmentRepo struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{
		db: db,
	}
}

func scanAppointment(row pgx.Row) (domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ProfessionalID,
		&a.ServiceID,
		&a.EstablishmentID,
		&a.StartsAt,
		&a.Status,
		&a.Notified1Day,
		&a.Notified1Hour,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ServiceName,
		&a.ServiceDuration,
		&a.ServicePrice,
		&a.ClientName,
		&a.ClientEmail,
		&a.ProfessionalName,
		&a.ProfessionalEmail,
	)
	return a, err
}

func (r *AppointmentRepo) Create(ctx context.Context, a domain.Appointment) (int64, error) {
	query := `
		INSERT INTO agendamentos (cliente_id, profissional_id, servico_id, estabelecimento_id, horario, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		a.ClientID,
		a.ProfessionalID,
		a.ServiceID,
		a.EstablishmentID,
		a.StartsAt,
		a.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания записи: %w", err)
	}

	return id, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	return r.get(ctx, id, "")
}

func (r *AppointmentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Appointment, error) {
	return r.get(ctx, id, "FOR UPDATE OF a")
}

func (r *AppointmentRepo) get(ctx context.Context, id int64, lock string) (*domain.Appointment, error) {
	q := psqlbuilder.Select(appointmentColumns...).From(appointmentJoins).Where(squirrel.Eq{"a.id": id})
	if lock != "" {
		q = q.Suffix(lock)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса записи: %w", err)
	}

	a, err := scanAppointment(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("agendamento", id)
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}

	return &a, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	query := `UPDATE agendamentos SET status = $1, atualizado_em = NOW() WHERE id = $2`

	tag, err := conn(ctx, r.db).Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("agendamento", id)
	}

	return nil
}

func (r *AppointmentRepo) Reschedule(ctx context.Context, id, professionalID int64, startsAt time.Time) error {
	query := `
		UPDATE agendamentos
		SET profissional_id = $1, horario = $2, status = $3,
		    notificado_1_dia = FALSE, notificado_1_hora = FALSE, atualizado_em = NOW()
		WHERE id = $4
	`

	tag, err := conn(ctx, r.db).Exec(ctx, query, professionalID, startsAt, domain.AppointmentStatusPending, id)
	if err != nil {
		return fmt.Errorf("ошибка переноса записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("agendamento", id)
	}

	return nil
}

func (r *AppointmentRepo) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM agendamentos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("agendamento", id)
	}

	return nil
}

func applyAppointmentFilter(q squirrel.SelectBuilder, filter domain.AppointmentFilter) squirrel.SelectBuilder {
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"a.cliente_id": *filter.ClientID})
	}
	if filter.ProfessionalID != nil {
		q = q.Where(squirrel.Eq{"a.profissional_id": *filter.ProfessionalID})
	}
	if filter.EstablishmentID != nil {
		q = q.Where(squirrel.Eq{"a.estabelecimento_id": *filter.EstablishmentID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"a.status": *filter.Status})
	}
	if filter.StartDate != nil {
		q = q.Where(squirrel.GtOrEq{"a.horario": *filter.StartDate})
	}
	if filter.EndDate != nil {
		q = q.Where(squirrel.Lt{"a.horario": *filter.EndDate})
	}
	return q
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	q := psqlbuilder.Select(appointmentColumns...).From(appointmentJoins)
	q = applyAppointmentFilter(q, filter).OrderBy("a.horario DESC", "a.id DESC")
	q = psqlbuilder.Page(q, filter.Limit, filter.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса записей: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *AppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	q := applyAppointmentFilter(psqlbuilder.Select("COUNT(*)").From("agendamentos a"), filter)

	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка построения запроса количества записей: %w", err)
	}

	var count int
	if err := conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return count, nil
}

func (r *AppointmentRepo) ListOverlapping(ctx context.Context, professionalID int64, from, to time.Time, excludeID int64) ([]domain.Appointment, error) {
	q := psqlbuilder.Select(appointmentColumns...).From(appointmentJoins).
		Where(squirrel.Eq{"a.profissional_id": professionalID}).
		Where(squirrel.Eq{"a.status": []domain.AppointmentStatus{domain.AppointmentStatusPending, domain.AppointmentStatusConfirmed}}).
		Where(squirrel.NotEq{"a.id": excludeID}).
		Where(squirrel.Lt{"a.horario": to}).
		Where(squirrel.Expr("a.horario + make_interval(mins => s.tempo) > ?", from)).
		OrderBy("a.horario")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса пересечений: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *AppointmentRepo) Archive(ctx context.Context, rec domain.CancelledAppointment) (int64, error) {
	query := `
		INSERT INTO agendamentos_cancelados (
			agendamento_id, cliente_id, profissional_id, servico_id, estabelecimento_id,
			horario, status, criado_em, cancelado_em, cancelado_por, motivo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		rec.OriginalAppointmentID,
		rec.ClientID,
		rec.ProfessionalID,
		rec.ServiceID,
		rec.EstablishmentID,
		rec.StartsAt,
		rec.PreviousStatus,
		rec.CreatedAt,
		rec.CancelledAt,
		rec.CancelledBy,
		rec.Reason,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка архивации отмененной записи: %w", err)
	}

	return id, nil
}

func (r *AppointmentRepo) ListCancelled(ctx context.Context, filter domain.AppointmentFilter) ([]domain.CancelledAppointment, error) {
	q := psqlbuilder.Select(
		"id", "agendamento_id", "cliente_id", "profissional_id", "servico_id", "estabelecimento_id",
		"horario", "status", "criado_em", "cancelado_por", "cancelado_em", "motivo",
	).From("agendamentos_cancelados a").OrderBy("cancelado_em DESC")
	q = applyAppointmentFilter(q, domain.AppointmentFilter{
		ClientID:        filter.ClientID,
		ProfessionalID:  filter.ProfessionalID,
		EstablishmentID: filter.EstablishmentID,
		StartDate:       filter.StartDate,
		EndDate:         filter.EndDate,
	})
	q = psqlbuilder.Page(q, filter.Limit, filter.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса отмененных записей: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отмененных записей: %w", err)
	}
	defer rows.Close()

	var records []domain.CancelledAppointment
	for rows.Next() {
		var rec domain.CancelledAppointment
		err := rows.Scan(
			&rec.ID,
			&rec.OriginalAppointmentID,
			&rec.ClientID,
			&rec.ProfessionalID,
			&rec.ServiceID,
			&rec.EstablishmentID,
			&rec.StartsAt,
			&rec.PreviousStatus,
			&rec.CreatedAt,
			&rec.CancelledBy,
			&rec.CancelledAt,
			&rec.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования отмененной записи: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	return records, nil
}

func reminderColumn(kind domain.ReminderKind) (string, error) {
	switch kind {
	case domain.ReminderOneDay:
		return "notificado_1_dia", nil
	case domain.ReminderOneHour:
		return "notificado_1_hora", nil
	}
	return "", fmt.Errorf("неизвестный тип напоминания: %s", kind)
}

func (r *AppointmentRepo) ListDueReminders(ctx context.Context, kind domain.ReminderKind, from, to time.Time) ([]domain.Appointment, error) {
	column, err := reminderColumn(kind)
	if err != nil {
		return nil, err
	}

	q := psqlbuilder.Select(appointmentColumns...).From(appointmentJoins).
		Where(squirrel.Eq{"a.status": domain.AppointmentStatusConfirmed}).
		Where(squirrel.Eq{"a." + column: false}).
		Where(squirrel.Gt{"a.horario": from}).
		Where(squirrel.LtOrEq{"a.horario": to}).
		OrderBy("a.horario")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса напоминаний: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *AppointmentRepo) MarkNotified(ctx context.Context, id int64, kind domain.ReminderKind) error {
	column, err := reminderColumn(kind)
	if err != nil {
		return err
	}

	query := `UPDATE agendamentos SET ` + column + ` = TRUE WHERE id = $1`
	if _, err := conn(ctx, r.db).Exec(ctx, query, id); err != nil {
		return fmt.Errorf("ошибка отметки напоминания: %w", err)
	}

	return nil
}

func (r *AppointmentRepo) query(ctx context.Context, query string, args ...any) ([]domain.Appointment, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей: %w", err)
	}
	defer rows.Close()

	var appointments []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	return appointments, nil
}
