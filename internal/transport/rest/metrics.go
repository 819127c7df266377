package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agendavip/internal/domain"
)

// @Summary Метрики заведения
// @Description Выручка по месяцам, загрузка по дням недели и популярность услуг за год
// @Tags Метрики
// @Produce json
// @Param id path int true "ID заведения"
// @Param ano query int false "Год, по умолчанию текущий"
// @Success 200 {object} domain.EstablishmentMetrics
// @Security ApiKeyAuth
// @Router /establishments/{id}/metrics [get]
func (h *Handler) getEstablishmentMetrics(c *gin.Context) {
	identity, establishmentID, year, ok := h.metricsParams(c)
	if !ok {
		return
	}

	result, err := h.services.Metrics.EstablishmentMetrics(c.Request.Context(), identity, establishmentID, year)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка расчета метрик")
		return
	}

	successResponse(c, http.StatusOK, result)
}

// @Summary Выгрузить метрики в Excel
// @Description Формирует книгу xlsx, кладет в хранилище и возвращает временную ссылку
// @Tags Метрики
// @Produce json
// @Param id path int true "ID заведения"
// @Param ano query int false "Год, по умолчанию текущий"
// @Success 201 {object} domain.MetricsExport
// @Security ApiKeyAuth
// @Router /establishments/{id}/metrics/export [post]
func (h *Handler) exportEstablishmentMetrics(c *gin.Context) {
	identity, establishmentID, year, ok := h.metricsParams(c)
	if !ok {
		return
	}

	export, err := h.services.Metrics.Export(c.Request.Context(), identity, establishmentID, year)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка выгрузки метрик")
		return
	}

	createdResponse(c, export)
}

func (h *Handler) metricsParams(c *gin.Context) (domain.Identity, int64, int, bool) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return domain.Identity{}, 0, 0, false
	}

	establishmentID, ok := idParam(c, "id")
	if !ok {
		return domain.Identity{}, 0, 0, false
	}

	year := time.Now().In(h.location).Year()
	if value := c.Query("ano"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 2000 || parsed > 2100 {
			badRequestResponse(c, "ano inválido")
			return domain.Identity{}, 0, 0, false
		}
		year = parsed
	}

	return identity, establishmentID, year, true
}
