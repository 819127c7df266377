package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

type errorResponseBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
	Field   string `json:"campo,omitempty"`
}

// insufficientResponseBody - ответ 422 с числом свободных минут подряд.
type insufficientResponseBody struct {
	errorResponseBody
	AvailableMinutes int `json:"minutos_disponiveis"`
	RequiredMinutes  int `json:"minutos_necessarios"`
}

type successResponseBody struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type messageResponseType struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type paginatedResponse struct {
	Data       interface{} `json:"data"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func successResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, successResponseBody{
		Status: "success",
		Data:   data,
	})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, errorResponseBody{
		Status:  "error",
		Message: message,
		Code:    statusCode,
	})
}

func messageResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, messageResponseType{
		Status:  "success",
		Message: message,
	})
}

func paginatedSuccessResponse(c *gin.Context, data interface{}, totalCount, page, pageSize int) {
	totalPages := totalCount / pageSize
	if totalCount%pageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, paginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func createdResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, successResponseBody{
		Status: "success",
		Data:   data,
	})
}

func noContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, message)
}

func unauthorizedResponse(c *gin.Context) {
	errorResponse(c, http.StatusUnauthorized, "autenticação necessária")
}

func forbiddenResponse(c *gin.Context, message ...string) {
	msg := "acesso negado"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	errorResponse(c, http.StatusForbidden, msg)
}

func internalServerErrorResponse(c *gin.Context) {
	errorResponse(c, http.StatusInternalServerError, "erro interno do servidor")
}

// statusOf выбирает HTTP-статус по виду ошибки сервиса.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConfigurationMissing):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotAvailable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientAvailability):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// serviceErrorResponse отвечает по виду ошибки. Текст внутренних ошибок наружу не уходит.
func (h *Handler) serviceErrorResponse(c *gin.Context, err error, logMessage string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(logMessage, zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	h.logger.Debug(logMessage, zap.Error(err), zap.Int("status", status))

	body := errorResponseBody{Status: "error", Message: publicMessage(err), Code: status}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		body.Field = validation.Field
	}

	var insufficient *domain.InsufficientAvailabilityError
	if errors.As(err, &insufficient) {
		c.AbortWithStatusJSON(status, insufficientResponseBody{
			errorResponseBody: body,
			AvailableMinutes:  insufficient.AvailableMinutes,
			RequiredMinutes:   insufficient.RequiredMinutes,
		})
		return
	}

	c.AbortWithStatusJSON(status, body)
}

// publicMessage - текст доменной ошибки без внутренних префиксов обертки.
func publicMessage(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e.(type) {
		case *domain.ValidationError, *domain.NotFoundError, *domain.ForbiddenError,
			*domain.ConfigurationMissingError, *domain.InsufficientAvailabilityError,
			*domain.ConflictError, *domain.NotAvailableError:
			return e.Error()
		}
	}
	return err.Error()
}
