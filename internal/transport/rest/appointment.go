package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Создать запись
// @Description Резервирует непрерывную серию слотов профессионала под длительность услуги
// @Tags Записи
// @Accept json
// @Produce json
// @Param input body domain.CreateAppointmentDTO true "Данные записи"
// @Success 201 {object} domain.Appointment
// @Failure 400 {object} errorResponseBody "Ошибка валидации или нет расписания на этот день"
// @Failure 409 {object} errorResponseBody "Конфликт времени"
// @Failure 422 {object} insufficientResponseBody "Недостаточно свободного времени подряд"
// @Security ApiKeyAuth
// @Router /appointments [post]
func (h *Handler) createAppointment(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateAppointmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	appointment, err := h.services.Appointment.Create(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания записи")
		return
	}

	createdResponse(c, appointment)
}

// @Summary Запись по ID
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment
// @Failure 403 {object} errorResponseBody "Чужая запись"
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Security ApiKeyAuth
// @Router /appointments/{id} [get]
func (h *Handler) getAppointmentByID(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	appointment, err := h.services.Appointment.GetByID(c.Request.Context(), identity, id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения записи")
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Список записей
// @Description Клиент видит свои записи, профессионал свою агенду, администратор записи заведения
// @Tags Записи
// @Produce json
// @Param status query string false "Статус"
// @Param profissional_id query int false "ID профессионала"
// @Param data_inicio query string false "Дата начала (YYYY-MM-DD)"
// @Param data_fim query string false "Дата окончания включительно (YYYY-MM-DD)"
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} paginatedResponse
// @Security ApiKeyAuth
// @Router /appointments [get]
func (h *Handler) getAppointments(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	filter, ok := h.appointmentFilter(c)
	if !ok {
		return
	}

	appointments, total, err := h.services.Appointment.List(c.Request.Context(), identity, filter)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения записей")
		return
	}

	paginatedSuccessResponse(c, appointments, total, filter.Offset/filter.Limit+1, filter.Limit)
}

// @Summary Отмененные записи
// @Tags Записи
// @Produce json
// @Param data_inicio query string false "Дата начала (YYYY-MM-DD)"
// @Param data_fim query string false "Дата окончания включительно (YYYY-MM-DD)"
// @Success 200 {array} domain.CancelledAppointment
// @Security ApiKeyAuth
// @Router /appointments/cancelled [get]
func (h *Handler) getCancelledAppointments(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	filter, ok := h.appointmentFilter(c)
	if !ok {
		return
	}

	cancelled, err := h.services.Appointment.ListCancelled(c.Request.Context(), identity, filter)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения отмененных записей")
		return
	}

	successResponse(c, http.StatusOK, cancelled)
}

func (h *Handler) appointmentFilter(c *gin.Context) (domain.AppointmentFilter, bool) {
	from, to, err := h.periodQuery(c)
	if err != nil {
		h.serviceErrorResponse(c, err, "неверный период")
		return domain.AppointmentFilter{}, false
	}

	professionalID, err := optionalInt64Query(c, "profissional_id")
	if err != nil {
		h.serviceErrorResponse(c, err, "неверный ID профессионала")
		return domain.AppointmentFilter{}, false
	}

	limit, offset := pagination(c)
	filter := domain.AppointmentFilter{
		ProfessionalID: professionalID,
		StartDate:      from,
		EndDate:        to,
		Limit:          limit,
		Offset:         offset,
	}

	if value := c.Query("status"); value != "" {
		status := domain.AppointmentStatus(value)
		if !status.Valid() {
			h.serviceErrorResponse(c, domain.NewValidationError("status", "status inválido"), "неверный статус")
			return domain.AppointmentFilter{}, false
		}
		filter.Status = &status
	}

	return filter, true
}

// @Summary Подтвердить запись
// @Description Повторно проверяет пересечения и занимает слоты серии
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment
// @Failure 409 {object} errorResponseBody "Конфликт времени"
// @Security ApiKeyAuth
// @Router /appointments/{id}/confirm [post]
func (h *Handler) confirmAppointment(c *gin.Context) {
	h.transition(c, h.services.Appointment.Confirm, "ошибка подтверждения записи")
}

// @Summary Отклонить запись
// @Description Освобождает слоты записи
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment
// @Security ApiKeyAuth
// @Router /appointments/{id}/reject [post]
func (h *Handler) rejectAppointment(c *gin.Context) {
	h.transition(c, h.services.Appointment.Reject, "ошибка отклонения записи")
}

// @Summary Завершить запись
// @Description Освобождает слоты, начисляет баллы лояльности и пишет аналитику
// @Tags Записи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment
// @Security ApiKeyAuth
// @Router /appointments/{id}/complete [post]
func (h *Handler) completeAppointment(c *gin.Context) {
	h.transition(c, h.services.Appointment.Complete, "ошибка завершения записи")
}

type transitionFunc func(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc, logMessage string) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	appointment, err := fn(c.Request.Context(), identity, id)
	if err != nil {
		h.serviceErrorResponse(c, err, logMessage)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Отменить запись
// @Description Архивирует запись, освобождает слоты и уведомляет участников
// @Tags Записи
// @Accept json
// @Param id path int true "ID записи"
// @Param input body domain.CancelAppointmentDTO false "Причина"
// @Success 204 "Отменено"
// @Failure 403 {object} errorResponseBody "Чужая запись"
// @Security ApiKeyAuth
// @Router /appointments/{id}/cancel [post]
func (h *Handler) cancelAppointment(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.CancelAppointmentDTO
	// причина необязательна
	_ = c.ShouldBindJSON(&req)

	if err := h.services.Appointment.Cancel(c.Request.Context(), identity, id, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка отмены записи")
		return
	}

	noContentResponse(c)
}

// @Summary Перенести запись
// @Description Переносит запись на другое время или к коллеге того же заведения. Запись снова ожидает подтверждения
// @Tags Записи
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.RescheduleAppointmentDTO true "Новое время"
// @Success 200 {object} domain.Appointment
// @Failure 409 {object} errorResponseBody "Время недоступно"
// @Security ApiKeyAuth
// @Router /appointments/{id}/reschedule [put]
func (h *Handler) rescheduleAppointment(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.RescheduleAppointmentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	appointment, err := h.services.Appointment.Reschedule(c.Request.Context(), identity, id, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка переноса записи")
		return
	}

	successResponse(c, http.StatusOK, appointment)
}
