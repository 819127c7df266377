package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
	"agendavip/pkg/psqlbuilder"
)

const sessionColumns = "id, user_id, refresh_token, user_agent, ip, expires_at, created_at"

// AuthRepo хранит refresh-сессии. Каждый refresh-токен используется один раз.
type AuthRepo struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepo {
	return &AuthRepo{db: db}
}

func (r *AuthRepo) CreateSession(ctx context.Context, session domain.Session) error {
	query, args, err := psqlbuilder.Insert("sessions").
		Columns("id", "user_id", "refresh_token", "user_agent", "ip", "expires_at", "created_at").
		Values(session.ID, session.UserID, session.RefreshToken, session.UserAgent, session.IP,
			session.ExpiresAt, session.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка построения запроса сессии: %w", err)
	}

	if _, err := conn(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}

	return nil
}

// ConsumeSession удаляет сессию по refresh-токену и возвращает ее.
// Повторное или просроченное использование дает ErrUnauthorized.
func (r *AuthRepo) ConsumeSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	row := conn(ctx, r.db).QueryRow(ctx,
		`DELETE FROM sessions WHERE refresh_token = $1 RETURNING `+sessionColumns, refreshToken)

	var session domain.Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&session.UserAgent,
		&session.IP,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: sessão inválida", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сессии: %w", err)
	}

	if !session.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: sessão expirada", domain.ErrUnauthorized)
	}

	return &session, nil
}

func (r *AuthRepo) DeleteSessionsByUserID(ctx context.Context, userID int64) error {
	if _, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка удаления сессий пользователя: %w", err)
	}
	return nil
}
