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

const userColumns = `id, nome, email, telefone, senha, tipo_usuario, estabelecimento_id, ativo,
	pagamento_cliente_id, pagamento_metodo_id, criado_em, atualizado_em`

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.EstablishmentID,
		&user.IsActive,
		&user.PaymentCustomerID,
		&user.DefaultPaymentMethodID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) (int64, error) {
	query := `
		INSERT INTO usuarios (nome, email, telefone, senha, tipo_usuario, estabelecimento_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := conn(ctx, r.db).QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.EstablishmentID,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, domain.NewConflictError("e-mail já cadastrado", time.Time{})
		}
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return id, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("usuário", id)
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("usuário", 0)
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	set := map[string]interface{}{}
	if dto.Name != nil {
		set["nome"] = *dto.Name
	}
	if dto.Email != nil {
		set["email"] = *dto.Email
	}
	if dto.Phone != nil {
		set["telefone"] = *dto.Phone
	}
	if dto.IsActive != nil {
		set["ativo"] = *dto.IsActive
	}
	if len(set) == 0 {
		return nil
	}
	set["atualizado_em"] = squirrel.Expr("NOW()")

	query, args, err := psqlbuilder.Update("usuarios").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса обновления пользователя: %w", err)
	}

	tag, err := conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.NewConflictError("e-mail já cadastrado", time.Time{})
		}
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("usuário", id)
	}

	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE usuarios SET senha = $1, atualizado_em = NOW() WHERE id = $2`

	if _, err := conn(ctx, r.db).Exec(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("ошибка обновления пароля: %w", err)
	}

	return nil
}

// SetEstablishment привязывает пользователя к заведению с указанной ролью.
func (r *UserRepo) SetEstablishment(ctx context.Context, id, establishmentID int64, role domain.UserRole) error {
	query := `UPDATE usuarios SET estabelecimento_id = $1, tipo_usuario = $2, atualizado_em = NOW() WHERE id = $3`

	if _, err := conn(ctx, r.db).Exec(ctx, query, establishmentID, role, id); err != nil {
		return fmt.Errorf("ошибка привязки пользователя к заведению: %w", err)
	}

	return nil
}

func (r *UserRepo) SetPaymentCustomer(ctx context.Context, id int64, customerID string, paymentMethodID *string) error {
	query := `
		UPDATE usuarios
		SET pagamento_cliente_id = $1, pagamento_metodo_id = COALESCE($2, pagamento_metodo_id), atualizado_em = NOW()
		WHERE id = $3
	`

	if _, err := conn(ctx, r.db).Exec(ctx, query, customerID, paymentMethodID, id); err != nil {
		return fmt.Errorf("ошибка сохранения платежного клиента: %w", err)
	}

	return nil
}

// Delete деактивирует пользователя, записи и история остаются.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE usuarios SET ativo = FALSE, atualizado_em = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("usuário", id)
	}

	return nil
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	query, args, err := psqlbuilder.Page(
		psqlbuilder.Select(userColumns).From("usuarios").OrderBy("id"), limit, offset,
	).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса пользователей: %w", err)
	}

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка пользователей: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса: %w", err)
	}

	return users, nil
}
