package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
)

const ruleColumns = `id, profissional_id, estabelecimento_id, dia_semana, hora_inicio, hora_fim, duracao_slot, criado_em, atualizado_em`

type ScheduleRepo struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) ScheduleRepository {
	return &ScheduleRepo{db: db}
}

func toPgTime(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) domain.TimeOfDay {
	return domain.TimeOfDay(t.Microseconds / int64(time.Minute/time.Microsecond))
}

func scanRule(row pgx.Row) (domain.AvailabilityRule, error) {
	var (
		rule       domain.AvailabilityRule
		weekday    string
		start, end pgtype.Time
	)

	err := row.Scan(
		&rule.ID,
		&rule.ProfessionalID,
		&rule.EstablishmentID,
		&weekday,
		&start,
		&end,
		&rule.SlotDuration,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return rule, err
	}

	rule.Weekday, err = domain.ParseWeekday(weekday)
	if err != nil {
		return rule, fmt.Errorf("некорректный dia_semana %q у правила %d: %w", weekday, rule.ID, err)
	}
	rule.StartTime = fromPgTime(start)
	rule.EndTime = fromPgTime(end)

	return rule, nil
}

func (r *ScheduleRepo) Create(ctx context.Context, rule domain.AvailabilityRule) (int64, error) {
	var id int64

	query := `
		INSERT INTO configuracoes_agenda (
			profissional_id, estabelecimento_id, dia_semana, hora_inicio, hora_fim, duracao_slot
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := conn(ctx, r.db).QueryRow(ctx, query,
		rule.ProfessionalID,
		rule.EstablishmentID,
		rule.Weekday.String(),
		toPgTime(rule.StartTime),
		toPgTime(rule.EndTime),
		rule.SlotDuration,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания правила расписания: %w", err)
	}

	return id, nil
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id int64) (*domain.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM configuracoes_agenda WHERE id = $1`

	rule, err := scanRule(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("configuração de agenda", id)
		}
		return nil, fmt.Errorf("ошибка получения правила расписания: %w", err)
	}

	return &rule, nil
}

func (r *ScheduleRepo) Update(ctx context.Context, rule domain.AvailabilityRule) error {
	query := `
		UPDATE configuracoes_agenda
		SET hora_inicio = $1, hora_fim = $2, duracao_slot = $3, atualizado_em = NOW()
		WHERE id = $4
	`

	tag, err := conn(ctx, r.db).Exec(ctx, query,
		toPgTime(rule.StartTime),
		toPgTime(rule.EndTime),
		rule.SlotDuration,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления правила расписания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("configuração de agenda", rule.ID)
	}

	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM configuracoes_agenda WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления правила расписания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("configuração de agenda", id)
	}

	return nil
}

func (r *ScheduleRepo) ListByProfessional(ctx context.Context, professionalID int64) ([]domain.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM configuracoes_agenda WHERE profissional_id = $1`

	rules, err := r.query(ctx, query, professionalID)
	if err != nil {
		return nil, err
	}

	// dia_semana хранится строкой, поэтому порядок с понедельника задается здесь
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Weekday != rules[j].Weekday {
			return rules[i].Weekday < rules[j].Weekday
		}
		return rules[i].StartTime < rules[j].StartTime
	})

	return rules, nil
}

func (r *ScheduleRepo) ListByWeekday(ctx context.Context, professionalID int64, weekday domain.Weekday) ([]domain.AvailabilityRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM configuracoes_agenda
		WHERE profissional_id = $1 AND dia_semana = $2
		ORDER BY hora_inicio, id
	`

	return r.query(ctx, query, professionalID, weekday.String())
}

func (r *ScheduleRepo) ListByWeekdayForUpdate(ctx context.Context, professionalID int64, weekday domain.Weekday) ([]domain.AvailabilityRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM configuracoes_agenda
		WHERE profissional_id = $1 AND dia_semana = $2
		ORDER BY hora_inicio, id
		FOR UPDATE
	`

	return r.query(ctx, query, professionalID, weekday.String())
}

func (r *ScheduleRepo) query(ctx context.Context, query string, args ...any) ([]domain.AvailabilityRule, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения правил расписания: %w", err)
	}
	defer rows.Close()

	var rules []domain.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования правила расписания: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	return rules, nil
}
