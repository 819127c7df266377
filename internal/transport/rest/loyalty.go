package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agendavip/internal/domain"
)

// @Summary Программы лояльности заведения
// @Tags Лояльность
// @Produce json
// @Param id path int true "ID заведения"
// @Param ativos query bool false "Только активные"
// @Success 200 {array} domain.LoyaltyProgram
// @Router /establishments/{id}/loyalty-programs [get]
func (h *Handler) getLoyaltyPrograms(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("ativos", "true"))

	programs, err := h.services.Loyalty.ListPrograms(c.Request.Context(), id, onlyActive)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения программ лояльности")
		return
	}

	successResponse(c, http.StatusOK, programs)
}

// @Summary Создать программу лояльности
// @Tags Лояльность
// @Accept json
// @Produce json
// @Param id path int true "ID заведения"
// @Param input body domain.CreateLoyaltyProgramDTO true "Программа"
// @Success 201 {object} domain.LoyaltyProgram
// @Security ApiKeyAuth
// @Router /establishments/{id}/loyalty-programs [post]
func (h *Handler) createLoyaltyProgram(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	establishmentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.CreateLoyaltyProgramDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	program, err := h.services.Loyalty.CreateProgram(c.Request.Context(), identity, establishmentID, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания программы лояльности")
		return
	}

	createdResponse(c, program)
}

// @Summary Изменить программу лояльности
// @Tags Лояльность
// @Accept json
// @Param id path int true "ID программы"
// @Param input body domain.UpdateLoyaltyProgramDTO true "Новые данные"
// @Success 204 "Обновлено"
// @Security ApiKeyAuth
// @Router /loyalty-programs/{id} [put]
func (h *Handler) updateLoyaltyProgram(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateLoyaltyProgramDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Loyalty.UpdateProgram(c.Request.Context(), identity, id, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка обновления программы лояльности")
		return
	}

	noContentResponse(c)
}

// @Summary Удалить программу лояльности
// @Tags Лояльность
// @Param id path int true "ID программы"
// @Success 204 "Удалено"
// @Security ApiKeyAuth
// @Router /loyalty-programs/{id} [delete]
func (h *Handler) deleteLoyaltyProgram(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Loyalty.DeleteProgram(c.Request.Context(), identity, id); err != nil {
		h.serviceErrorResponse(c, err, "ошибка удаления программы лояльности")
		return
	}

	noContentResponse(c)
}

// @Summary Баланс баллов клиента
// @Tags Лояльность
// @Produce json
// @Param id path int true "ID заведения"
// @Success 200 {object} domain.LoyaltyBalance
// @Security ApiKeyAuth
// @Router /establishments/{id}/loyalty/balance [get]
func (h *Handler) getLoyaltyBalance(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	establishmentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	balance, err := h.services.Loyalty.GetBalance(c.Request.Context(), identity, establishmentID)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения баланса")
		return
	}

	successResponse(c, http.StatusOK, balance)
}

// @Summary Погасить баллы
// @Description Списывает баллы и возвращает ссылку на QR-код ваучера
// @Tags Лояльность
// @Produce json
// @Param id path int true "ID программы"
// @Success 201 {object} domain.Redemption
// @Failure 400 {object} errorResponseBody "Недостаточно баллов"
// @Security ApiKeyAuth
// @Router /loyalty-programs/{id}/redeem [post]
func (h *Handler) redeemLoyaltyProgram(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	redemption, err := h.services.Loyalty.Redeem(c.Request.Context(), identity, id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка погашения баллов")
		return
	}

	createdResponse(c, redemption)
}
