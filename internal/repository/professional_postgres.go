package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
)

const professionalSelect = `
	SELECT f.id, f.usuario_id, f.estabelecimento_id, f.cargo, u.nome, u.email, u.telefone, f.criado_em, f.atualizado_em
	FROM funcionarios f
	JOIN usuarios u ON u.id = f.usuario_id
`

type ProfessionalRepo struct {
	db *pgxpool.Pool
}

func NewProfessionalRepository(db *pgxpool.Pool) *ProfessionalRepo {
	return &ProfessionalRepo{db: db}
}

func scanProfessional(row pgx.Row) (domain.Professional, error) {
	var p domain.Professional
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.EstablishmentID,
		&p.Role,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *ProfessionalRepo) Create(ctx context.Context, userID, establishmentID int64, role string) (int64, error) {
	query := `
		INSERT INTO funcionarios (usuario_id, estabelecimento_id, cargo)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := conn(ctx, r.db).QueryRow(ctx, query, userID, establishmentID, role).Scan(&id); err != nil {
		return 0, fmt.Errorf("ошибка создания профессионала: %w", err)
	}

	return id, nil
}

func (r *ProfessionalRepo) GetByID(ctx context.Context, id int64) (*domain.Professional, error) {
	p, err := scanProfessional(conn(ctx, r.db).QueryRow(ctx, professionalSelect+` WHERE f.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("profissional", id)
		}
		return nil, fmt.Errorf("ошибка получения профессионала: %w", err)
	}

	return &p, nil
}

func (r *ProfessionalRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error) {
	p, err := scanProfessional(conn(ctx, r.db).QueryRow(ctx, professionalSelect+` WHERE f.usuario_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("profissional", 0)
		}
		return nil, fmt.Errorf("ошибка получения профессионала по пользователю: %w", err)
	}

	return &p, nil
}

func (r *ProfessionalRepo) Update(ctx context.Context, id int64, dto domain.UpdateProfessionalDTO) error {
	if dto.Role == nil {
		return nil
	}

	tag, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE funcionarios SET cargo = $1, atualizado_em = NOW() WHERE id = $2`, *dto.Role, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления профессионала: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("profissional", id)
	}

	return nil
}

func (r *ProfessionalRepo) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM funcionarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления профессионала: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("profissional", id)
	}

	return nil
}

func (r *ProfessionalRepo) ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.Professional, error) {
	rows, err := conn(ctx, r.db).Query(ctx, professionalSelect+` WHERE f.estabelecimento_id = $1 ORDER BY u.nome, f.id`, establishmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профессионалов: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Professional, error) {
		return scanProfessional(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования профессионала: %w", err)
	}

	return list, nil
}
