package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/domain"
	"agendavip/internal/repository"
	"agendavip/pkg/auth"
	"agendavip/pkg/validator"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	resetTokenLength = 32
)

var errInvalidCredentials = fmt.Errorf("%w: e-mail ou senha inválidos", domain.ErrUnauthorized)

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID          int64           `json:"id"`
	Role            domain.UserRole `json:"tipo_usuario"`
	EstablishmentID *int64          `json:"estabelecimento_id,omitempty"`
	ProfessionalID  *int64          `json:"funcionario_id,omitempty"`
	TokenType       string          `json:"tipo_token"`
}

// AccessToken - разобранный access-токен: identity и данные для отзыва.
type AccessToken struct {
	Identity  domain.Identity
	ID        string
	ExpiresAt time.Time
}

type AuthServiceImpl struct {
	authRepo         repository.AuthRepository
	userRepo         repository.UserRepository
	professionalRepo repository.ProfessionalRepository
	tokens           TokenStore
	notifier         Notifier
	jwtConfig        config.JWTConfig
	logger           *zap.Logger
}

func NewAuthService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	professionalRepo repository.ProfessionalRepository,
	tokens TokenStore,
	notifier Notifier,
	jwtConfig config.JWTConfig,
	logger *zap.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		authRepo:         authRepo,
		userRepo:         userRepo,
		professionalRepo: professionalRepo,
		tokens:           tokens,
		notifier:         notifier,
		jwtConfig:        jwtConfig,
		logger:           logger,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if !validator.ValidateEmail(email) {
		return 0, domain.NewValidationError("email", "e-mail inválido")
	}
	if !validator.ValidatePhone(dto.Phone) {
		return 0, domain.NewValidationError("telefone", "telefone inválido, use o formato +55DDDNUMERO")
	}
	if !validator.ValidatePassword(dto.Password) {
		return 0, domain.NewValidationError("senha", "a senha deve ter pelo menos 6 caracteres")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return 0, domain.NewConflictError("e-mail já cadastrado", time.Time{})
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	hash, err := auth.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("ошибка при хешировании пароля", zap.Error(err))
		return 0, fmt.Errorf("ошибка при регистрации пользователя: %w", err)
	}

	id, err := s.userRepo.Create(ctx, domain.User{
		Name:         validator.FormatName(dto.Name),
		Email:        email,
		Phone:        validator.FormatPhone(dto.Phone),
		PasswordHash: hash,
		Role:         domain.UserRoleClient,
		IsActive:     true,
	})
	if err != nil {
		s.logger.Error("ошибка при создании пользователя", zap.Error(err))
		return 0, err
	}

	return id, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(dto.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("ошибка проверки пароля", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, errInvalidCredentials
	}
	if !ok {
		return nil, errInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.NewForbiddenError("conta desativada")
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, dto.Password)
	}

	return s.issue(ctx, user, userAgent, ip)
}

// upgradeHash перехеширует пароль текущими параметрами argon2id после успешного входа.
func (s *AuthServiceImpl) upgradeHash(ctx context.Context, userID int64, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		s.logger.Warn("не удалось обновить устаревший хеш пароля", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *AuthServiceImpl) identityOf(ctx context.Context, user *domain.User) (domain.Identity, error) {
	identity := domain.Identity{
		UserID:          user.ID,
		Role:            user.Role,
		EstablishmentID: user.EstablishmentID,
	}

	if user.Role == domain.UserRoleProfessional {
		professional, err := s.professionalRepo.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return identity, err
		}
		if professional != nil {
			identity.ProfessionalID = &professional.ID
			identity.EstablishmentID = &professional.EstablishmentID
		}
	}

	return identity, nil
}

func (s *AuthServiceImpl) issue(ctx context.Context, user *domain.User, userAgent, ip string) (*domain.Tokens, error) {
	identity, err := s.identityOf(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(identity)
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Error(err))
		return nil, fmt.Errorf("ошибка при аутентификации: %w", err)
	}

	session := domain.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: tokens.RefreshToken,
		UserAgent:    userAgent,
		IP:           ip,
		ExpiresAt:    time.Now().Add(s.jwtConfig.RefreshTokenTTL),
		CreatedAt:    time.Now(),
	}

	if err := s.authRepo.CreateSession(ctx, session); err != nil {
		s.logger.Error("ошибка сохранения сессии", zap.Error(err))
		return nil, fmt.Errorf("ошибка при аутентификации: %w", err)
	}

	return tokens, nil
}

func (s *AuthServiceImpl) RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error) {
	if _, err := s.parse(refreshToken, tokenTypeRefresh); err != nil {
		return nil, err
	}

	session, err := s.authRepo.ConsumeSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.NewForbiddenError("conta desativada")
	}

	return s.issue(ctx, user, userAgent, ip)
}

// Logout отзывает access-токен до его истечения и удаляет сессию refresh-токена.
func (s *AuthServiceImpl) Logout(ctx context.Context, access *AccessToken, refreshToken string) error {
	if access != nil && s.tokens != nil {
		ttl := time.Until(access.ExpiresAt)
		if ttl > 0 {
			if err := s.tokens.Blacklist(ctx, access.ID, ttl); err != nil {
				s.logger.Error("ошибка отзыва токена", zap.Error(err))
				return fmt.Errorf("ошибка при выходе: %w", err)
			}
		}
	}

	if refreshToken == "" {
		return nil
	}

	if _, err := s.authRepo.ConsumeSession(ctx, refreshToken); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			s.logger.Debug("сессия уже закрыта", zap.Error(err))
			return nil
		}
		s.logger.Error("ошибка удаления сессии", zap.Error(err))
		return fmt.Errorf("ошибка при выходе: %w", err)
	}

	return nil
}

func (s *AuthServiceImpl) ParseToken(ctx context.Context, tokenString string) (*AccessToken, error) {
	claims, err := s.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки отзыва токена: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revogado", domain.ErrUnauthorized)
		}
	}

	token := &AccessToken{
		Identity: domain.Identity{
			UserID:          claims.UserID,
			Role:            claims.Role,
			EstablishmentID: claims.EstablishmentID,
			ProfessionalID:  claims.ProfessionalID,
		},
		ID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		token.ExpiresAt = claims.ExpiresAt.Time
	}

	return token, nil
}

func (s *AuthServiceImpl) parse(tokenString, tokenType string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.SigningKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: token inválido", domain.ErrUnauthorized)
	}

	return claims, nil
}

func (s *AuthServiceImpl) generateTokens(identity domain.Identity) (*domain.Tokens, error) {
	access, err := s.sign(identity, tokenTypeAccess, s.jwtConfig.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи access token: %w", err)
	}

	refresh, err := s.sign(identity, tokenTypeRefresh, s.jwtConfig.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи refresh token: %w", err)
	}

	return &domain.Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *AuthServiceImpl) sign(identity domain.Identity, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:          identity.UserID,
		Role:            identity.Role,
		EstablishmentID: identity.EstablishmentID,
		ProfessionalID:  identity.ProfessionalID,
		TokenType:       tokenType,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtConfig.SigningKey))
}

// ForgotPassword не раскрывает, существует ли e-mail.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := auth.GenerateRandomToken(resetTokenLength)
	if err != nil {
		return fmt.Errorf("ошибка генерации токена сброса: %w", err)
	}

	if err := s.tokens.SaveResetToken(ctx, token, user.ID, s.jwtConfig.PasswordResetTTL); err != nil {
		return fmt.Errorf("ошибка сохранения токена сброса: %w", err)
	}

	if err := s.notifier.PasswordReset(ctx, *user, token); err != nil {
		s.logger.Error("письмо для сброса пароля не отправлено", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, dto domain.ResetPasswordRequest) error {
	if !validator.ValidatePassword(dto.NewPassword) {
		return domain.NewValidationError("nova_senha", "a senha deve ter pelo menos 6 caracteres")
	}

	userID, err := s.tokens.ConsumeResetToken(ctx, dto.Token)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(dto.NewPassword)
	if err != nil {
		return fmt.Errorf("ошибка при хешировании пароля: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	if err := s.authRepo.DeleteSessionsByUserID(ctx, userID); err != nil {
		s.logger.Warn("ошибка удаления сессий после сброса пароля", zap.Int64("user_id", userID), zap.Error(err))
	}

	s.logger.Info("пароль сброшен", zap.Int64("user_id", userID))
	return nil
}
