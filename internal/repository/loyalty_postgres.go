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

const programColumns = `id, estabelecimento_id, descricao_premio, pontos_necessarios, ativo, criado_em, atualizado_em`

type LoyaltyRepo struct {
	db *pgxpool.Pool
}

func NewLoyaltyRepository(db *pgxpool.Pool) *LoyaltyRepo {
	return &LoyaltyRepo{db: db}
}

func scanProgram(row pgx.Row) (domain.LoyaltyProgram, error) {
	var p domain.LoyaltyProgram
	err := row.Scan(
		&p.ID,
		&p.EstablishmentID,
		&p.RewardDescription,
		&p.PointsRequired,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *LoyaltyRepo) CreateProgram(ctx context.Context, establishmentID int64, dto domain.CreateLoyaltyProgramDTO) (int64, error) {
	active := true
	if dto.Active != nil {
		active = *dto.Active
	}

	query := `
		INSERT INTO programa_fidelidade (estabelecimento_id, descricao_premio, pontos_necessarios, ativo)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query, establishmentID, dto.RewardDescription, dto.PointsRequired, active).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания программы лояльности: %w", err)
	}

	return id, nil
}

func (r *LoyaltyRepo) GetProgram(ctx context.Context, id int64) (*domain.LoyaltyProgram, error) {
	p, err := scanProgram(conn(ctx, r.db).QueryRow(ctx, `SELECT `+programColumns+` FROM programa_fidelidade WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("programa de fidelidade", id)
		}
		return nil, fmt.Errorf("ошибка получения программы лояльности: %w", err)
	}

	return &p, nil
}

func (r *LoyaltyRepo) UpdateProgram(ctx context.Context, id int64, dto domain.UpdateLoyaltyProgramDTO) error {
	set := map[string]interface{}{}
	if dto.RewardDescription != nil {
		set["descricao_premio"] = *dto.RewardDescription
	}
	if dto.PointsRequired != nil {
		set["pontos_necessarios"] = *dto.PointsRequired
	}
	if dto.Active != nil {
		set["ativo"] = *dto.Active
	}
	if len(set) == 0 {
		return nil
	}
	set["atualizado_em"] = squirrel.Expr("NOW()")

	query, args, err := psqlbuilder.Update("programa_fidelidade").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления программы: %w", err)
	}

	tag, err := conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления программы лояльности: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("programa de fidelidade", id)
	}

	return nil
}

func (r *LoyaltyRepo) DeleteProgram(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM programa_fidelidade WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления программы лояльности: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("programa de fidelidade", id)
	}

	return nil
}

func (r *LoyaltyRepo) ListPrograms(ctx context.Context, establishmentID int64, onlyActive bool) ([]domain.LoyaltyProgram, error) {
	q := psqlbuilder.Select(programColumns).From("programa_fidelidade").
		Where(squirrel.Eq{"estabelecimento_id": establishmentID}).
		OrderBy("pontos_necessarios", "id")
	if onlyActive {
		q = q.Where(squirrel.Eq{"ativo": true})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса программ: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения программ лояльности: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LoyaltyProgram, error) {
		return scanProgram(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования программы лояльности: %w", err)
	}

	return list, nil
}

func (r *LoyaltyRepo) AddPoints(ctx context.Context, clientID, establishmentID int64, points int) (int, error) {
	query := `
		INSERT INTO pontos_fidelidade_cliente (cliente_id, estabelecimento_id, pontos_acumulados)
		VALUES ($1, $2, $3)
		ON CONFLICT (cliente_id, estabelecimento_id)
		DO UPDATE SET pontos_acumulados = pontos_fidelidade_cliente.pontos_acumulados + EXCLUDED.pontos_acumulados,
		              atualizado_em = NOW()
		RETURNING pontos_acumulados
	`

	var balance int
	if err := conn(ctx, r.db).QueryRow(ctx, query, clientID, establishmentID, points).Scan(&balance); err != nil {
		return 0, fmt.Errorf("ошибка начисления баллов: %w", err)
	}

	return balance, nil
}

func (r *LoyaltyRepo) GetBalance(ctx context.Context, clientID, establishmentID int64) (*domain.LoyaltyBalance, error) {
	query := `
		SELECT cliente_id, estabelecimento_id, pontos_acumulados, atualizado_em
		FROM pontos_fidelidade_cliente
		WHERE cliente_id = $1 AND estabelecimento_id = $2
	`

	var b domain.LoyaltyBalance
	err := conn(ctx, r.db).QueryRow(ctx, query, clientID, establishmentID).Scan(
		&b.ClientID, &b.EstablishmentID, &b.Points, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.LoyaltyBalance{ClientID: clientID, EstablishmentID: establishmentID}, nil
		}
		return nil, fmt.Errorf("ошибка получения баллов: %w", err)
	}

	return &b, nil
}

func (r *LoyaltyRepo) SpendPoints(ctx context.Context, clientID, establishmentID int64, points int) (int, bool, error) {
	query := `
		UPDATE pontos_fidelidade_cliente
		SET pontos_acumulados = pontos_acumulados - $3, atualizado_em = NOW()
		WHERE cliente_id = $1 AND estabelecimento_id = $2 AND pontos_acumulados >= $3
		RETURNING pontos_acumulados
	`

	var remaining int
	err := conn(ctx, r.db).QueryRow(ctx, query, clientID, establishmentID, points).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ошибка списания баллов: %w", err)
	}

	return remaining, true, nil
}

func (r *LoyaltyRepo) CreateRedemption(ctx context.Context, red domain.Redemption) (int64, error) {
	query := `
		INSERT INTO resgates_fidelidade (cliente_id, programa_fidelidade_id, pontos_utilizados, qrcode_chave, data_resgate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		red.ClientID, red.ProgramID, red.PointsSpent, red.QRCodeKey, red.RedeemedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка сохранения погашения: %w", err)
	}

	return id, nil
}
