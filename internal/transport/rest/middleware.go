package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/service"
)

const (
	authorizationHeader = "Authorization"
	identityCtx         = "identity"
	accessTokenCtx      = "access_token"
)

func (h *Handler) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := h.logger.With(
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		)

		if status >= 500 {
			logger.Error("server error")
		} else if status >= 400 {
			logger.Warn("client error")
		} else {
			logger.Info("request processed")
		}
	}
}

// metricsMiddleware пишет метрики по шаблону маршрута, а не по фактическому пути.
func (h *Handler) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		h.metrics.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

func (h *Handler) errorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			h.logger.Error("request error", zap.Error(err))
		}
	}
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Content-Length, Accept-Encoding, Origin, Accept, User-Agent, X-Requested-With, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Authorization, Content-Type, Content-Disposition")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 часа

		origin := c.Request.Header.Get("Origin")
		if origin != "" && c.Request.Header.Get(authorizationHeader) != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			errorResponse(c, http.StatusUnauthorized, "cabeçalho de autorização vazio")
			return
		}

		headerParts := strings.Split(header, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
			errorResponse(c, http.StatusUnauthorized, "formato do cabeçalho de autorização inválido")
			return
		}

		token, err := h.services.Auth.ParseToken(c.Request.Context(), headerParts[1])
		if err != nil {
			h.serviceErrorResponse(c, err, "ошибка проверки токена")
			return
		}

		c.Set(identityCtx, token.Identity)
		c.Set(accessTokenCtx, token)

		c.Next()
	}
}

// roleMiddleware пропускает только перечисленные роли.
func (h *Handler) roleMiddleware(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := getIdentity(c)
		if err != nil {
			unauthorizedResponse(c)
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		forbiddenResponse(c)
	}
}

func (h *Handler) adminMiddleware() gin.HandlerFunc {
	return h.roleMiddleware(domain.UserRoleAdmin)
}

func (h *Handler) staffMiddleware() gin.HandlerFunc {
	return h.roleMiddleware(domain.UserRoleAdmin, domain.UserRoleProfessional)
}

func getIdentity(c *gin.Context) (domain.Identity, error) {
	value, exists := c.Get(identityCtx)
	if !exists {
		return domain.Identity{}, errors.New("пользователь не авторизован")
	}

	identity, ok := value.(domain.Identity)
	if !ok {
		return domain.Identity{}, errors.New("некорректные данные пользователя")
	}

	return identity, nil
}

func getAccessToken(c *gin.Context) *service.AccessToken {
	value, exists := c.Get(accessTokenCtx)
	if !exists {
		return nil
	}
	token, _ := value.(*service.AccessToken)
	return token
}
