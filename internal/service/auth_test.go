package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agendavip/config"
	"agendavip/internal/domain"
	"agendavip/internal/mailer"
)

type authEnv struct {
	store    *memStore
	tokens   *fakeTokenStore
	notifier *fakeNotifier
	auth     *AuthServiceImpl
	users    *UserServiceImpl
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	store := newMemStore()
	seed(store)
	tokens := newFakeTokenStore()
	notifier := &fakeNotifier{}

	users := fakeUserRepo{s: store}
	return &authEnv{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		auth: NewAuthService(fakeAuthRepo{s: store}, users, fakeProfessionalRepo{s: store}, tokens, notifier,
			config.JWTConfig{
				SigningKey:       "segredo-de-teste",
				AccessTokenTTL:   15 * time.Minute,
				RefreshTokenTTL:  24 * time.Hour,
				PasswordResetTTL: time.Hour,
			}, zap.NewNop()),
		users: NewUserService(users, zap.NewNop()),
	}
}

func register(t *testing.T, env *authEnv, email string) int64 {
	t.Helper()
	id, err := env.auth.Register(t.Context(), domain.RegisterRequest{
		Name: "maria  da silva", Email: email, Phone: "+5511987654321", Password: "senha123",
	})
	require.NoError(t, err)
	return id
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newAuthEnv(t)
	id := register(t, env, "Maria@Email.com")

	user := env.store.users[id]
	assert.Equal(t, "maria@email.com", user.Email)
	assert.Equal(t, domain.UserRoleClient, user.Role)
	assert.NotEqual(t, "senha123", user.PasswordHash)

	_, err := env.auth.Register(t.Context(), domain.RegisterRequest{
		Name: "Outra", Email: "maria@email.com", Phone: "+5511987654321", Password: "senha123",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = env.auth.Login(t.Context(), domain.LoginRequest{Email: "maria@email.com", Password: "errada"}, "test", "127.0.0.1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	tokens, err := env.auth.Login(t.Context(), domain.LoginRequest{Email: "maria@email.com", Password: "senha123"}, "test", "127.0.0.1")
	require.NoError(t, err)

	access, err := env.auth.ParseToken(t.Context(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, access.Identity.UserID)
	assert.Equal(t, domain.UserRoleClient, access.Identity.Role)

	_, err = env.auth.ParseToken(t.Context(), tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newAuthEnv(t)

	_, err := env.auth.Register(t.Context(), domain.RegisterRequest{
		Name: "Ana", Email: "ana@email.com", Phone: "123", Password: "senha123",
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "telefone", validation.Field)
}

func TestAuthService_ProfessionalClaims(t *testing.T) {
	env := newAuthEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("antiga123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := env.store.users[testProfessionalUserID]
	user.PasswordHash = string(hash)
	env.store.users[testProfessionalUserID] = user

	tokens, err := env.auth.Login(t.Context(), domain.LoginRequest{Email: "bruno@salao.com.br", Password: "antiga123"}, "", "")
	require.NoError(t, err)

	access, err := env.auth.ParseToken(t.Context(), tokens.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, access.Identity.ProfessionalID)
	assert.Equal(t, testProfessionalID, *access.Identity.ProfessionalID)
	assert.Equal(t, testEstablishmentID, *access.Identity.EstablishmentID)

	// bcrypt перехеширован в argon2id
	assert.Contains(t, env.store.users[testProfessionalUserID].PasswordHash, "$argon2id$")
}

func TestAuthService_InactiveUser(t *testing.T) {
	env := newAuthEnv(t)
	id := register(t, env, "inativa@email.com")

	user := env.store.users[id]
	user.IsActive = false
	env.store.users[id] = user

	_, err := env.auth.Login(t.Context(), domain.LoginRequest{Email: "inativa@email.com", Password: "senha123"}, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthService_RefreshRotatesSession(t *testing.T) {
	env := newAuthEnv(t)
	register(t, env, "maria@email.com")

	tokens, err := env.auth.Login(t.Context(), domain.LoginRequest{Email: "maria@email.com", Password: "senha123"}, "", "")
	require.NoError(t, err)

	rotated, err := env.auth.RefreshTokens(t.Context(), tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = env.auth.RefreshTokens(t.Context(), tokens.RefreshToken, "", "")
	assert.Error(t, err)
	assert.Len(t, env.store.sessions, 1)
}

func TestAuthService_LogoutRevokesAccessToken(t *testing.T) {
	env := newAuthEnv(t)
	register(t, env, "maria@email.com")

	tokens, err := env.auth.Login(t.Context(), domain.LoginRequest{Email: "maria@email.com", Password: "senha123"}, "", "")
	require.NoError(t, err)
	access, err := env.auth.ParseToken(t.Context(), tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(t.Context(), access, tokens.RefreshToken))

	_, err = env.auth.ParseToken(t.Context(), tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, env.store.sessions)
}

func TestAuthService_PasswordReset(t *testing.T) {
	env := newAuthEnv(t)
	id := register(t, env, "maria@email.com")

	require.NoError(t, env.auth.ForgotPassword(t.Context(), "ninguem@email.com"))
	assert.Empty(t, env.notifier.templates())

	require.NoError(t, env.auth.ForgotPassword(t.Context(), "maria@email.com"))
	assert.Equal(t, []string{mailer.TemplatePasswordReset}, env.notifier.templates())
	require.Len(t, env.tokens.resets, 1)

	var token string
	for k := range env.tokens.resets {
		token = k
	}

	require.NoError(t, env.auth.ResetPassword(t.Context(), domain.ResetPasswordRequest{Token: token, NewPassword: "nova1234"}))
	err := env.auth.ResetPassword(t.Context(), domain.ResetPasswordRequest{Token: token, NewPassword: "outra123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = env.auth.Login(t.Context(), domain.LoginRequest{Email: "maria@email.com", Password: "nova1234"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, id, env.store.users[id].ID)
}

func TestUserService_UpdatePassword(t *testing.T) {
	env := newAuthEnv(t)
	id := register(t, env, "maria@email.com")

	err := env.users.UpdatePassword(t.Context(), id, domain.PasswordUpdateDTO{OldPassword: "errada", NewPassword: "nova1234"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, env.users.UpdatePassword(t.Context(), id, domain.PasswordUpdateDTO{OldPassword: "senha123", NewPassword: "nova1234"}))

	_, err = env.auth.Login(t.Context(), domain.LoginRequest{Email: "maria@email.com", Password: "nova1234"}, "", "")
	assert.NoError(t, err)
}

func TestUserService_UpdateEmailConflict(t *testing.T) {
	env := newAuthEnv(t)
	id := register(t, env, "maria@email.com")

	err := env.users.Update(t.Context(), id, domain.UpdateUserDTO{Email: PointerTo("carla@email.com")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, env.users.Update(t.Context(), id, domain.UpdateUserDTO{Phone: PointerTo("(11) 98765-4321")}))
}
