package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Сохранить плательщика
// @Description Регистрирует клиента в платежном шлюзе для автоматического списания при завершении записи
// @Tags Платежи
// @Accept json
// @Param input body domain.RegisterCustomerDTO false "Способ оплаты"
// @Success 204 "Сохранено"
// @Security ApiKeyAuth
// @Router /payments/customer [post]
func (h *Handler) registerPaymentCustomer(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.RegisterCustomerDTO
	_ = c.ShouldBindJSON(&req)

	if err := h.services.Payment.RegisterCustomer(c.Request.Context(), identity, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка регистрации плательщика")
		return
	}

	noContentResponse(c)
}

// @Summary Оплатить запись
// @Tags Платежи
// @Accept json
// @Produce json
// @Param input body domain.ChargeDTO true "Данные оплаты"
// @Success 201 {object} domain.Payment
// @Security ApiKeyAuth
// @Router /payments/charge [post]
func (h *Handler) chargeAppointment(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.ChargeDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	payment, err := h.services.Payment.Charge(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка оплаты")
		return
	}

	createdResponse(c, payment)
}

// @Summary Платежи записи
// @Tags Платежи
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {array} domain.Payment
// @Security ApiKeyAuth
// @Router /appointments/{id}/payments [get]
func (h *Handler) getAppointmentPayments(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.services.Payment.ListByAppointment(c.Request.Context(), identity, id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения платежей")
		return
	}

	successResponse(c, http.StatusOK, payments)
}
