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
	"agendavip/pkg/database"
	"agendavip/pkg/psqlbuilder"
)

const reviewSelect = `
	SELECT r.id, r.cliente_id, r.profissional_id, r.estabelecimento_id, r.agendamento_id,
	       r.nota, r.comentario, u.nome, r.criado_em, r.atualizado_em
	FROM avaliacoes r
	JOIN usuarios u ON u.id = r.cliente_id
`

type ReviewRepo struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{
		db: db,
	}
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.ClientID,
		&rv.ProfessionalID,
		&rv.EstablishmentID,
		&rv.AppointmentID,
		&rv.Score,
		&rv.Comment,
		&rv.ClientName,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	return rv, err
}

func (r *ReviewRepo) Create(ctx context.Context, review domain.Review) (int64, error) {
	query := `
		INSERT INTO avaliacoes (agendamento_id, cliente_id, profissional_id, estabelecimento_id, nota, comentario)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		review.AppointmentID,
		review.ClientID,
		review.ProfessionalID,
		review.EstablishmentID,
		review.Score,
		review.Comment,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, domain.NewConflictError("agendamento já avaliado", time.Time{})
		}
		return 0, fmt.Errorf("ошибка создания отзыва: %w", err)
	}

	return id, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	rv, err := scanReview(conn(ctx, r.db).QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("avaliação", id)
		}
		return nil, fmt.Errorf("ошибка получения отзыва: %w", err)
	}

	return &rv, nil
}

func (r *ReviewRepo) ExistsForAppointment(ctx context.Context, appointmentID int64) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM avaliacoes WHERE agendamento_id = $1)`, appointmentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки отзыва: %w", err)
	}

	return exists, nil
}

func (r *ReviewRepo) Update(ctx context.Context, id int64, dto domain.UpdateReviewDTO) error {
	set := map[string]interface{}{}
	if dto.Score != nil {
		set["nota"] = *dto.Score
	}
	if dto.Comment != nil {
		set["comentario"] = *dto.Comment
	}
	if len(set) == 0 {
		return nil
	}
	set["atualizado_em"] = squirrel.Expr("NOW()")

	query, args, err := psqlbuilder.Update("avaliacoes").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления отзыва: %w", err)
	}

	tag, err := conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления отзыва: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("avaliação", id)
	}

	return nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM avaliacoes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления отзыва: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("avaliação", id)
	}

	return nil
}

func (r *ReviewRepo) ListByEstablishment(ctx context.Context, establishmentID int64, limit int) ([]domain.Review, error) {
	return r.query(ctx, reviewSelect+` WHERE r.estabelecimento_id = $1 ORDER BY r.criado_em DESC, r.id DESC LIMIT $2`,
		establishmentID, limit)
}

func (r *ReviewRepo) ListLatest(ctx context.Context, limit int) ([]domain.Review, error) {
	return r.query(ctx, reviewSelect+` ORDER BY r.criado_em DESC, r.id DESC LIMIT $1`, limit)
}

func (r *ReviewRepo) query(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отзывов: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Review, error) {
		return scanReview(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования отзыва: %w", err)
	}

	return list, nil
}
