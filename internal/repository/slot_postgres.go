package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
	"agendavip/pkg/psqlbuilder"
)

const slotColumns = `id, profissional_id, estabelecimento_id, data_hora, ocupado, criado_em`

type SlotRepo struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) SlotRepository {
	return &SlotRepo{db: db}
}

func scanSlot(row pgx.Row) (domain.Slot, error) {
	var slot domain.Slot
	err := row.Scan(
		&slot.ID,
		&slot.ProfessionalID,
		&slot.EstablishmentID,
		&slot.StartsAt,
		&slot.Occupied,
		&slot.CreatedAt,
	)
	return slot, err
}

func (r *SlotRepo) CreateMany(ctx context.Context, professionalID, establishmentID int64, startsAt []time.Time) ([]time.Time, error) {
	if len(startsAt) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO agenda_disponivel (profissional_id, estabelecimento_id, data_hora)
		SELECT $1, $2, t FROM unnest($3::timestamptz[]) AS t
		ON CONFLICT (profissional_id, data_hora) DO NOTHING
		RETURNING data_hora
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, professionalID, establishmentID, startsAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания слотов: %w", err)
	}

	created, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения созданных слотов: %w", err)
	}

	return created, nil
}

func (r *SlotRepo) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM agenda_disponivel WHERE id = $1`

	slot, err := scanSlot(conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("horário", id)
		}
		return nil, fmt.Errorf("ошибка получения слота: %w", err)
	}

	return &slot, nil
}

func (r *SlotRepo) List(ctx context.Context, filter domain.SlotFilter) ([]domain.Slot, error) {
	q := psqlbuilder.Select(slotColumns).From("agenda_disponivel").OrderBy("data_hora", "id")

	if filter.ProfessionalID != nil {
		q = q.Where(squirrel.Eq{"profissional_id": *filter.ProfessionalID})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"data_hora": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"data_hora": *filter.To})
	}
	if filter.OnlyFree {
		q = q.Where(squirrel.Eq{"ocupado": false})
	}
	q = psqlbuilder.Page(q, filter.Limit, filter.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса слотов: %w", err)
	}

	return r.query(ctx, query, args...)
}

func (r *SlotRepo) ListFreeForUpdate(ctx context.Context, professionalID int64, from, to time.Time) ([]domain.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM agenda_disponivel
		WHERE profissional_id = $1 AND data_hora >= $2 AND data_hora < $3 AND ocupado = FALSE
		ORDER BY data_hora, id
		FOR UPDATE
	`

	return r.query(ctx, query, professionalID, from, to)
}

func (r *SlotRepo) ListRangeForUpdate(ctx context.Context, professionalID int64, from, to time.Time) ([]domain.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM agenda_disponivel
		WHERE profissional_id = $1 AND data_hora >= $2 AND data_hora < $3
		ORDER BY data_hora, id
		FOR UPDATE
	`

	return r.query(ctx, query, professionalID, from, to)
}

func (r *SlotRepo) Occupy(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE agenda_disponivel SET ocupado = TRUE WHERE id = ANY($1) AND ocupado = FALSE`

	tag, err := conn(ctx, r.db).Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("ошибка занятия слотов: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *SlotRepo) ReleaseRange(ctx context.Context, professionalID int64, from, to time.Time) ([]time.Time, error) {
	query := `
		UPDATE agenda_disponivel SET ocupado = FALSE
		WHERE profissional_id = $1 AND data_hora >= $2 AND data_hora < $3 AND ocupado = TRUE
		RETURNING data_hora
	`

	rows, err := conn(ctx, r.db).Query(ctx, query, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка освобождения слотов: %w", err)
	}

	released, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("ошибка освобождения слотов: %w", err)
	}
	sort.Slice(released, func(i, j int) bool { return released[i].Before(released[j]) })

	return released, nil
}

func (r *SlotRepo) DeleteFree(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `DELETE FROM agenda_disponivel WHERE id = $1 AND ocupado = FALSE AND data_hora > $2`

	tag, err := conn(ctx, r.db).Exec(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления слота: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *SlotRepo) query(ctx context.Context, query string, args ...any) ([]domain.Slot, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения слотов: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования слота: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	return slots, nil
}
