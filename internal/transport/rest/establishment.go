package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Создать заведение
// @Description Создает заведение, автор становится его администратором
// @Tags Заведения
// @Accept json
// @Produce json
// @Param input body domain.CreateEstablishmentDTO true "Данные заведения"
// @Success 201 {object} domain.Establishment
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Пользователь уже администрирует заведение"
// @Security ApiKeyAuth
// @Router /establishments [post]
func (h *Handler) createEstablishment(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateEstablishmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	establishment, err := h.services.Establishment.Create(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания заведения")
		return
	}

	createdResponse(c, establishment)
}

// @Summary Заведение по ID
// @Tags Заведения
// @Produce json
// @Param id path int true "ID заведения"
// @Success 200 {object} domain.Establishment
// @Failure 404 {object} errorResponseBody "Заведение не найдено"
// @Router /establishments/{id} [get]
func (h *Handler) getEstablishmentByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	establishment, err := h.services.Establishment.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения заведения")
		return
	}

	successResponse(c, http.StatusOK, establishment)
}

// @Summary Обновить заведение
// @Tags Заведения
// @Accept json
// @Param id path int true "ID заведения"
// @Param input body domain.UpdateEstablishmentDTO true "Новые данные"
// @Success 204 "Обновлено"
// @Failure 403 {object} errorResponseBody "Чужое заведение"
// @Security ApiKeyAuth
// @Router /establishments/{id} [put]
func (h *Handler) updateEstablishment(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateEstablishmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Establishment.Update(c.Request.Context(), identity, id, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка обновления заведения")
		return
	}

	noContentResponse(c)
}

// @Summary Список заведений
// @Tags Заведения
// @Produce json
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {array} domain.Establishment
// @Router /establishments [get]
func (h *Handler) getEstablishments(c *gin.Context) {
	limit, offset := pagination(c)

	establishments, err := h.services.Establishment.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения списка заведений")
		return
	}

	successResponse(c, http.StatusOK, establishments)
}

// @Summary Профессионалы заведения
// @Tags Профессионалы
// @Produce json
// @Param id path int true "ID заведения"
// @Success 200 {array} domain.Professional
// @Router /establishments/{id}/professionals [get]
func (h *Handler) getEstablishmentProfessionals(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	professionals, err := h.services.Professional.ListByEstablishment(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения профессионалов")
		return
	}

	successResponse(c, http.StatusOK, professionals)
}

// @Summary Добавить профессионала
// @Description Создает пользователя с ролью profissional и привязывает его к заведению
// @Tags Профессионалы
// @Accept json
// @Produce json
// @Param id path int true "ID заведения"
// @Param input body domain.CreateProfessionalDTO true "Данные профессионала"
// @Success 201 {object} domain.Professional
// @Failure 409 {object} errorResponseBody "E-mail уже используется"
// @Security ApiKeyAuth
// @Router /establishments/{id}/professionals [post]
func (h *Handler) createProfessional(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	establishmentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.CreateProfessionalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	professional, err := h.services.Professional.Create(c.Request.Context(), identity, establishmentID, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания профессионала")
		return
	}

	createdResponse(c, professional)
}

// @Summary Профессионал по ID
// @Tags Профессионалы
// @Produce json
// @Param id path int true "ID профессионала"
// @Success 200 {object} domain.Professional
// @Failure 404 {object} errorResponseBody "Профессионал не найден"
// @Router /professionals/{id} [get]
func (h *Handler) getProfessionalByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	professional, err := h.services.Professional.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения профессионала")
		return
	}

	successResponse(c, http.StatusOK, professional)
}

// @Summary Обновить профессионала
// @Tags Профессионалы
// @Accept json
// @Param id path int true "ID профессионала"
// @Param input body domain.UpdateProfessionalDTO true "Новые данные"
// @Success 204 "Обновлено"
// @Security ApiKeyAuth
// @Router /professionals/{id} [put]
func (h *Handler) updateProfessional(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateProfessionalDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Professional.Update(c.Request.Context(), identity, id, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка обновления профессионала")
		return
	}

	noContentResponse(c)
}

// @Summary Удалить профессионала
// @Tags Профессионалы
// @Param id path int true "ID профессионала"
// @Success 204 "Удалено"
// @Security ApiKeyAuth
// @Router /professionals/{id} [delete]
func (h *Handler) deleteProfessional(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Professional.Delete(c.Request.Context(), identity, id); err != nil {
		h.serviceErrorResponse(c, err, "ошибка удаления профессионала")
		return
	}

	noContentResponse(c)
}

// @Summary Услуги, выполненные профессионалом
// @Tags Услуги
// @Produce json
// @Param id path int true "ID профессионала"
// @Success 200 {array} domain.CatalogService
// @Router /professionals/{id}/completed-services [get]
func (h *Handler) getCompletedServices(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	services, err := h.services.Catalog.ListCompletedByProfessional(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения выполненных услуг")
		return
	}

	successResponse(c, http.StatusOK, services)
}

// @Summary Услуги заведения
// @Tags Услуги
// @Produce json
// @Param id path int true "ID заведения"
// @Success 200 {array} domain.CatalogService
// @Router /establishments/{id}/services [get]
func (h *Handler) getEstablishmentServices(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	services, err := h.services.Catalog.ListByEstablishment(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения услуг")
		return
	}

	successResponse(c, http.StatusOK, services)
}

// @Summary Добавить услугу
// @Tags Услуги
// @Accept json
// @Produce json
// @Param id path int true "ID заведения"
// @Param input body domain.CreateCatalogServiceDTO true "Данные услуги"
// @Success 201 {object} domain.CatalogService
// @Security ApiKeyAuth
// @Router /establishments/{id}/services [post]
func (h *Handler) createCatalogService(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	establishmentID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.CreateCatalogServiceDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	item, err := h.services.Catalog.Create(c.Request.Context(), identity, establishmentID, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания услуги")
		return
	}

	createdResponse(c, item)
}

// @Summary Услуга по ID
// @Tags Услуги
// @Produce json
// @Param id path int true "ID услуги"
// @Success 200 {object} domain.CatalogService
// @Router /services/{id} [get]
func (h *Handler) getCatalogServiceByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	item, err := h.services.Catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения услуги")
		return
	}

	successResponse(c, http.StatusOK, item)
}

// @Summary Обновить услугу
// @Tags Услуги
// @Accept json
// @Param id path int true "ID услуги"
// @Param input body domain.UpdateCatalogServiceDTO true "Новые данные"
// @Success 204 "Обновлено"
// @Security ApiKeyAuth
// @Router /services/{id} [put]
func (h *Handler) updateCatalogService(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateCatalogServiceDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Catalog.Update(c.Request.Context(), identity, id, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка обновления услуги")
		return
	}

	noContentResponse(c)
}

// @Summary Удалить услугу
// @Tags Услуги
// @Param id path int true "ID услуги"
// @Success 204 "Удалено"
// @Security ApiKeyAuth
// @Router /services/{id} [delete]
func (h *Handler) deleteCatalogService(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Catalog.Delete(c.Request.Context(), identity, id); err != nil {
		h.serviceErrorResponse(c, err, "ошибка удаления услуги")
		return
	}

	noContentResponse(c)
}
