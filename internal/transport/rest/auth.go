package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Регистрация клиента
// @Description Регистрирует нового клиента в системе
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RegisterRequest true "Данные для регистрации"
// @Success 201 {object} map[string]interface{} "ID созданного пользователя"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "E-mail уже используется"
// @Failure 500 {object} errorResponseBody "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input domain.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	id, err := h.services.Auth.Register(c.Request.Context(), input)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка при регистрации")
		return
	}

	createdResponse(c, gin.H{"id": id})
}

// @Summary Вход в систему
// @Description Авторизует пользователя и возвращает пару токенов
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Данные для входа"
// @Success 200 {object} domain.Tokens "Токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверные учетные данные"
// @Failure 403 {object} errorResponseBody "Пользователь деактивирован"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input domain.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	tokens, err := h.services.Auth.Login(c.Request.Context(), input, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка при входе")
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Обновление токенов
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RefreshTokenRequest true "Токен обновления"
// @Success 200 {object} domain.Tokens "Новая пара токенов"
// @Failure 401 {object} errorResponseBody "Неверный токен обновления"
// @Router /auth/refresh [post]
func (h *Handler) refreshTokens(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	tokens, err := h.services.Auth.RefreshTokens(c.Request.Context(), input.RefreshToken, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка при обновлении токенов")
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Выход из системы
// @Description Отзывает access-токен и завершает сессию
// @Tags Авторизация
// @Accept json
// @Param input body domain.RefreshTokenRequest false "Токен обновления"
// @Success 204 "Успешный выход"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	var input domain.RefreshTokenRequest
	// тело необязательно: без него отзывается только access-токен
	_ = c.ShouldBindJSON(&input)

	if err := h.services.Auth.Logout(c.Request.Context(), getAccessToken(c), input.RefreshToken); err != nil {
		h.serviceErrorResponse(c, err, "ошибка при выходе")
		return
	}

	noContentResponse(c)
}

// @Summary Запрос сброса пароля
// @Description Отправляет письмо со ссылкой сброса. Ответ одинаков для известных и неизвестных адресов
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.ForgotPasswordRequest true "E-mail"
// @Success 200 {object} messageResponseType
// @Router /auth/forgot-password [post]
func (h *Handler) forgotPassword(c *gin.Context) {
	var input domain.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Auth.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		h.serviceErrorResponse(c, err, "ошибка запроса сброса пароля")
		return
	}

	messageResponse(c, http.StatusOK, "se o e-mail estiver cadastrado, você receberá as instruções")
}

// @Summary Сброс пароля
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.ResetPasswordRequest true "Токен и новый пароль"
// @Success 200 {object} messageResponseType
// @Failure 401 {object} errorResponseBody "Токен недействителен"
// @Router /auth/reset-password [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var input domain.ResetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Auth.ResetPassword(c.Request.Context(), input); err != nil {
		h.serviceErrorResponse(c, err, "ошибка сброса пароля")
		return
	}

	messageResponse(c, http.StatusOK, "senha alterada com sucesso")
}
