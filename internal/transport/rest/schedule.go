package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Создать или расширить правило расписания
// @Description Пересекающиеся правила того же дня объединяются в одно
// @Tags Расписание
// @Accept json
// @Produce json
// @Param input body domain.UpsertRuleDTO true "Правило"
// @Success 200 {object} domain.AvailabilityRule
// @Failure 400 {object} errorResponseBody "Ошибка валидации данных"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /rules [post]
func (h *Handler) upsertRule(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.UpsertRuleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	rule, err := h.services.Schedule.UpsertRule(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка сохранения правила")
		return
	}

	successResponse(c, http.StatusOK, rule)
}

// @Summary Изменить правило расписания
// @Tags Расписание
// @Accept json
// @Produce json
// @Param id path int true "ID правила"
// @Param input body domain.UpdateRuleDTO true "Новые границы"
// @Success 200 {object} domain.AvailabilityRule
// @Failure 409 {object} errorResponseBody "Пересечение с другим правилом"
// @Security ApiKeyAuth
// @Router /rules/{id} [put]
func (h *Handler) updateRule(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateRuleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	rule, err := h.services.Schedule.UpdateRule(c.Request.Context(), identity, id, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка обновления правила")
		return
	}

	successResponse(c, http.StatusOK, rule)
}

// @Summary Удалить правило расписания
// @Tags Расписание
// @Param id path int true "ID правила"
// @Success 204 "Удалено"
// @Security ApiKeyAuth
// @Router /rules/{id} [delete]
func (h *Handler) deleteRule(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Schedule.DeleteRule(c.Request.Context(), identity, id); err != nil {
		h.serviceErrorResponse(c, err, "ошибка удаления правила")
		return
	}

	noContentResponse(c)
}

// @Summary Правила профессионала
// @Tags Расписание
// @Produce json
// @Param id path int true "ID профессионала"
// @Success 200 {array} domain.AvailabilityRule
// @Router /professionals/{id}/rules [get]
func (h *Handler) getProfessionalRules(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	rules, err := h.services.Schedule.ListRules(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения правил")
		return
	}

	successResponse(c, http.StatusOK, rules)
}

// @Summary Слоты
// @Tags Слоты
// @Produce json
// @Param profissional_id query int false "ID профессионала"
// @Param data_inicio query string false "Дата начала (YYYY-MM-DD)"
// @Param data_fim query string false "Дата окончания включительно (YYYY-MM-DD)"
// @Param livres query bool false "Только свободные"
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {array} domain.Slot
// @Router /slots [get]
func (h *Handler) getSlots(c *gin.Context) {
	professionalID, err := optionalInt64Query(c, "profissional_id")
	if err != nil {
		h.serviceErrorResponse(c, err, "неверный ID профессионала")
		return
	}
	h.listSlots(c, professionalID)
}

// @Summary Слоты профессионала
// @Tags Слоты
// @Produce json
// @Param id path int true "ID профессионала"
// @Param data_inicio query string false "Дата начала (YYYY-MM-DD)"
// @Param data_fim query string false "Дата окончания включительно (YYYY-MM-DD)"
// @Param livres query bool false "Только свободные"
// @Success 200 {array} domain.Slot
// @Router /professionals/{id}/slots [get]
func (h *Handler) getProfessionalSlots(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.listSlots(c, &id)
}

func (h *Handler) listSlots(c *gin.Context, professionalID *int64) {
	from, to, err := h.periodQuery(c)
	if err != nil {
		h.serviceErrorResponse(c, err, "неверный период")
		return
	}

	onlyFree, _ := strconv.ParseBool(c.DefaultQuery("livres", "false"))
	limit, offset := pagination(c)

	slots, err := h.services.Slot.ListSlots(c.Request.Context(), domain.SlotFilter{
		ProfessionalID: professionalID,
		From:           from,
		To:             to,
		OnlyFree:       onlyFree,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения слотов")
		return
	}

	successResponse(c, http.StatusOK, slots)
}

// @Summary Создать слот вручную
// @Tags Слоты
// @Accept json
// @Produce json
// @Param input body domain.CreateSlotDTO true "Слот"
// @Success 201 {object} domain.Slot
// @Failure 409 {object} errorResponseBody "Слот уже существует"
// @Security ApiKeyAuth
// @Router /slots [post]
func (h *Handler) createSlot(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateSlotDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	slot, err := h.services.Slot.CreateSlot(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания слота")
		return
	}

	createdResponse(c, slot)
}

// @Summary Развернуть слоты по правилам
// @Description Создает слоты на каждую дату периода по недельным правилам профессионала. Существующие слоты пропускаются
// @Tags Слоты
// @Accept json
// @Produce json
// @Param input body domain.ExpandRulesDTO true "Период"
// @Success 201 {object} domain.ExpansionResult
// @Failure 400 {object} errorResponseBody "Ошибка валидации данных"
// @Security ApiKeyAuth
// @Router /slots/expand [post]
func (h *Handler) expandSlotsFromRules(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.ExpandRulesDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	result, err := h.services.Slot.ExpandFromRules(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка генерации слотов")
		return
	}

	createdResponse(c, result)
}

// @Summary Развернуть слоты по списку времени
// @Tags Слоты
// @Accept json
// @Produce json
// @Param input body domain.ExpandTimesDTO true "Период и время"
// @Success 201 {object} domain.ExpansionResult
// @Security ApiKeyAuth
// @Router /slots/expand-times [post]
func (h *Handler) expandSlotsFromTimes(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.ExpandTimesDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	result, err := h.services.Slot.ExpandFromTimes(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка генерации слотов")
		return
	}

	createdResponse(c, result)
}

// @Summary Развернуть слоты для всего заведения
// @Tags Слоты
// @Accept json
// @Produce json
// @Param id path int true "ID заведения"
// @Param input body domain.BulkExpandDTO true "Общее окно"
// @Success 201 {object} domain.ExpansionResult
// @Security ApiKeyAuth
// @Router /establishments/{id}/slots/expand [post]
func (h *Handler) expandEstablishmentSlots(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	establishmentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.BulkExpandDTO
	req.EstablishmentID = establishmentID
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}
	req.EstablishmentID = establishmentID

	result, err := h.services.Slot.ExpandForEstablishment(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка генерации слотов заведения")
		return
	}

	createdResponse(c, result)
}

// @Summary Удалить свободный слот
// @Tags Слоты
// @Param id path int true "ID слота"
// @Success 204 "Удалено"
// @Failure 409 {object} errorResponseBody "Слот занят"
// @Security ApiKeyAuth
// @Router /slots/{id} [delete]
func (h *Handler) deleteSlot(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Slot.DeleteSlot(c.Request.Context(), identity, id); err != nil {
		h.serviceErrorResponse(c, err, "ошибка удаления слота")
		return
	}

	noContentResponse(c)
}
