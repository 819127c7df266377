package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

// @Summary Оставить отзыв
// @Description Отзыв возможен только по своей завершенной записи, один на запись
// @Tags Отзывы
// @Accept json
// @Produce json
// @Param input body domain.CreateReviewDTO true "Оценка и комментарий"
// @Success 201 {object} domain.Review
// @Failure 400 {object} errorResponseBody "Запись не завершена"
// @Failure 409 {object} errorResponseBody "Отзыв уже оставлен"
// @Security ApiKeyAuth
// @Router /reviews [post]
func (h *Handler) createReview(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.CreateReviewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	review, err := h.services.Review.Create(c.Request.Context(), identity, req)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка создания отзыва")
		return
	}

	createdResponse(c, review)
}

// @Summary Отзыв по ID
// @Tags Отзывы
// @Produce json
// @Param id path int true "ID отзыва"
// @Success 200 {object} domain.Review
// @Failure 404 {object} errorResponseBody "Отзыв не найден"
// @Router /reviews/{id} [get]
func (h *Handler) getReviewByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	review, err := h.services.Review.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения отзыва")
		return
	}

	successResponse(c, http.StatusOK, review)
}

// @Summary Изменить отзыв
// @Tags Отзывы
// @Accept json
// @Param id path int true "ID отзыва"
// @Param input body domain.UpdateReviewDTO true "Новые данные"
// @Success 204 "Обновлено"
// @Security ApiKeyAuth
// @Router /reviews/{id} [put]
func (h *Handler) updateReview(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateReviewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "formato de dados inválido")
		return
	}

	if err := h.services.Review.Update(c.Request.Context(), identity, id, req); err != nil {
		h.serviceErrorResponse(c, err, "ошибка обновления отзыва")
		return
	}

	noContentResponse(c)
}

// @Summary Удалить отзыв
// @Tags Отзывы
// @Param id path int true "ID отзыва"
// @Success 204 "Удалено"
// @Security ApiKeyAuth
// @Router /reviews/{id} [delete]
func (h *Handler) deleteReview(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.services.Review.Delete(c.Request.Context(), identity, id); err != nil {
		h.serviceErrorResponse(c, err, "ошибка удаления отзыва")
		return
	}

	noContentResponse(c)
}

// @Summary Отзывы заведения
// @Tags Отзывы
// @Produce json
// @Param id path int true "ID заведения"
// @Success 200 {array} domain.Review
// @Router /establishments/{id}/reviews [get]
func (h *Handler) getEstablishmentReviews(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	reviews, err := h.services.Review.ListByEstablishment(c.Request.Context(), id)
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения отзывов")
		return
	}

	successResponse(c, http.StatusOK, reviews)
}

// @Summary Последние отзывы
// @Tags Отзывы
// @Produce json
// @Success 200 {array} domain.Review
// @Router /reviews/latest [get]
func (h *Handler) getLatestReviews(c *gin.Context) {
	reviews, err := h.services.Review.ListLatest(c.Request.Context())
	if err != nil {
		h.serviceErrorResponse(c, err, "ошибка получения отзывов")
		return
	}

	successResponse(c, http.StatusOK, reviews)
}
