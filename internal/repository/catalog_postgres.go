package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
	"agendavip/pkg/psqlbuilder"
)

const catalogColumns = `id, estabelecimento_id, nome, descricao, preco, tempo, criado_em, atualizado_em`

type CatalogRepo struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func scanCatalogService(row pgx.Row) (domain.CatalogService, error) {
	var s domain.CatalogService
	err := row.Scan(
		&s.ID,
		&s.EstablishmentID,
		&s.Name,
		&s.Description,
		&s.Price,
		&s.Duration,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *CatalogRepo) Create(ctx context.Context, establishmentID int64, dto domain.CreateCatalogServiceDTO) (int64, error) {
	query := `
		INSERT INTO servicos (estabelecimento_id, nome, descricao, preco, tempo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		establishmentID, dto.Name, dto.Description, dto.Price, dto.Duration,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания услуги: %w", err)
	}

	return id, nil
}

func (r *CatalogRepo) GetByID(ctx context.Context, id int64) (*domain.CatalogService, error) {
	s, err := scanCatalogService(conn(ctx, r.db).QueryRow(ctx, `SELECT `+catalogColumns+` FROM servicos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("serviço", id)
		}
		return nil, fmt.Errorf("ошибка получения услуги: %w", err)
	}

	return &s, nil
}

func (r *CatalogRepo) Update(ctx context.Context, id int64, dto domain.UpdateCatalogServiceDTO) error {
	set := map[string]interface{}{}
	if dto.Name != nil {
		set["nome"] = *dto.Name
	}
	if dto.Description != nil {
		set["descricao"] = *dto.Description
	}
	if dto.Price != nil {
		set["preco"] = *dto.Price
	}
	if dto.Duration != nil {
		set["tempo"] = *dto.Duration
	}
	if len(set) == 0 {
		return nil
	}
	set["atualizado_em"] = squirrel.Expr("NOW()")

	query, args, err := psqlbuilder.Update("servicos").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления услуги: %w", err)
	}

	tag, err := conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления услуги: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("serviço", id)
	}

	return nil
}

func (r *CatalogRepo) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM servicos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления услуги: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("serviço", id)
	}

	return nil
}

func (r *CatalogRepo) ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.CatalogService, error) {
	return r.query(ctx, `SELECT `+catalogColumns+` FROM servicos WHERE estabelecimento_id = $1 ORDER BY nome, id`, establishmentID)
}

// ListCompletedByProfessional - услуги, которые профессионал уже выполнял (finalizado).
func (r *CatalogRepo) ListCompletedByProfessional(ctx context.Context, professionalID int64) ([]domain.CatalogService, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM servicos
		WHERE id IN (
			SELECT servico_id FROM agendamentos WHERE profissional_id = $1 AND status = $2
		)
		ORDER BY nome, id
	`

	return r.query(ctx, query, professionalID, domain.AppointmentStatusCompleted)
}

func (r *CatalogRepo) query(ctx context.Context, query string, args ...any) ([]domain.CatalogService, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения услуг: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CatalogService, error) {
		return scanCatalogService(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования услуги: %w", err)
	}

	return list, nil
}
