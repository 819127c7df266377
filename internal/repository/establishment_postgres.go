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

const establishmentColumns = `id, nome, cnpj, tipo_servico, telefone, criado_em, atualizado_em`

type EstablishmentRepo struct {
	db *pgxpool.Pool
}

func NewEstablishmentRepository(db *pgxpool.Pool) *EstablishmentRepo {
	return &EstablishmentRepo{db: db}
}

func scanEstablishment(row pgx.Row) (domain.Establishment, error) {
	var e domain.Establishment
	err := row.Scan(&e.ID, &e.Name, &e.CNPJ, &e.ServiceType, &e.Phone, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EstablishmentRepo) Create(ctx context.Context, dto domain.CreateEstablishmentDTO) (int64, error) {
	query := `
		INSERT INTO estabelecimentos (nome, cnpj, tipo_servico, telefone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query, dto.Name, dto.CNPJ, dto.ServiceType, dto.Phone).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, domain.NewConflictError("CNPJ já cadastrado", time.Time{})
		}
		return 0, fmt.Errorf("ошибка создания заведения: %w", err)
	}

	return id, nil
}

func (r *EstablishmentRepo) GetByID(ctx context.Context, id int64) (*domain.Establishment, error) {
	e, err := scanEstablishment(conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+establishmentColumns+` FROM estabelecimentos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("estabelecimento", id)
		}
		return nil, fmt.Errorf("ошибка получения заведения: %w", err)
	}

	return &e, nil
}

func (r *EstablishmentRepo) Update(ctx context.Context, id int64, dto domain.UpdateEstablishmentDTO) error {
	set := map[string]interface{}{}
	if dto.Name != nil {
		set["nome"] = *dto.Name
	}
	if dto.ServiceType != nil {
		set["tipo_servico"] = *dto.ServiceType
	}
	if dto.Phone != nil {
		set["telefone"] = *dto.Phone
	}
	if len(set) == 0 {
		return nil
	}
	set["atualizado_em"] = squirrel.Expr("NOW()")

	query, args, err := psqlbuilder.Update("estabelecimentos").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления заведения: %w", err)
	}

	tag, err := conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления заведения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("estabelecimento", id)
	}

	return nil
}

func (r *EstablishmentRepo) List(ctx context.Context, limit, offset int) ([]domain.Establishment, error) {
	query, args, err := psqlbuilder.Page(
		psqlbuilder.Select(establishmentColumns).From("estabelecimentos").OrderBy("nome", "id"), limit, offset,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса заведений: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заведений: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Establishment, error) {
		return scanEstablishment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования заведения: %w", err)
	}

	return list, nil
}
