package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Текущий пользователь
// @Tags Пользователи
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /users/me [get]
func (h *Handler) getCurrentUser(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка при получении пользователя")
		return
	}

	successResponse(c, http.StatusOK, user)
}

// @Summary Обновить профиль
// @Tags Пользователи
// @Accept json
// @Produce json
// @Param input body domain.UpdateUserDTO true "Новые данные"
// @Success 200 {object} domain.User
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "E-mail уже используется"
// @Security ApiKeyAuth
// @Router /users/me [put]
func (h *Handler) updateCurrentUser(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.UpdateUserDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}
	// активность меняет только администратор
	req.IsActive = nil

	if err := h.services.User.Update(c.Request.Context(), identity.UserID, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка при обновлении пользователя")
		return
	}

	h.getCurrentUser(c)
}

// @Summary Сменить пароль
// @Tags Пользователи
// @Accept json
// @Param input body domain.PasswordUpdateDTO true "Текущий и новый пароль"
// @Success 204 "Пароль изменен"
// @Failure 400 {object} errorResponseBody "Неверный текущий пароль"
// @Security ApiKeyAuth
// @Router /users/me/password [put]
func (h *Handler) updatePassword(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.PasswordUpdateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.User.UpdatePassword(c.Request.Context(), identity.UserID, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка при смене пароля")
		return
	}

	noContentResponse(c)
}

// @Summary Удалить свой аккаунт
// @Tags Пользователи
// @Success 204 "Аккаунт удален"
// @Security ApiKeyAuth
// @Router /users/me [delete]
func (h *Handler) deleteCurrentUser(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	if err := h.services.User.Delete(c.Request.Context(), identity.UserID); err != nil {
		h.serviceErrorResponse(c, err, "ошибка при удалении пользователя")
		return
	}

	if err := h.services.Auth.Logout(c.Request.Context(), getAccessToken(c), ""); err != nil {
		h.logger.Warn("не удалось отозвать токен удаленного пользователя", zap.Error(err))
	}

	noContentResponse(c)
}

// @Summary Пользователь по ID
// @Tags Пользователи
// @Produce json
// @Param id path int true "ID пользователя"
// @Success 200 {object} domain.User
// @Failure 404 {object} errorResponseBody "Пользователь не найден"
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *Handler) getUserByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка при получении пользователя")
		return
	}

	successResponse(c, http.StatusOK, user)
}

// @Summary Список пользователей
// @Tags Пользователи
// @Produce json
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {array} domain.User
// @Security ApiKeyAuth
// @Router /users [get]
func (h *Handler) getUsers(c *gin.Context) {
	limit, offset := pagination(c)

	users, err := h.services.User.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка при получении списка пользователей")
		return
	}

	successResponse(c, http.StatusOK, users)
}
