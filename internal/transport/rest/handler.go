package rest

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/domain"
	"agendavip/internal/service"
	"agendavip/internal/transport/websocket"
	"agendavip/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
	agenda   *websocket.AgendaHub
	metrics  *metrics.Metrics
	location *time.Location
}

func NewHandler(services *service.Services, logger *zap.Logger, cfg *config.Config, agenda *websocket.AgendaHub, m *metrics.Metrics) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   cfg,
		agenda:   agenda,
		metrics:  m,
		location: cfg.Scheduling.Location(),
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())
	router.Use(h.metricsMiddleware())
	router.Use(h.errorMiddleware())
	router.Use(h.corsMiddleware())

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.authMiddleware(), h.logout)
			auth.POST("/forgot-password", h.forgotPassword)
			auth.POST("/reset-password", h.resetPassword)
		}

		users := api.Group("/users", h.authMiddleware())
		{
			users.GET("/me", h.getCurrentUser)
			users.PUT("/me", h.updateCurrentUser)
			users.PUT("/me/password", h.updatePassword)
			users.DELETE("/me", h.deleteCurrentUser)

			admin := users.Group("", h.adminMiddleware())
			{
				admin.GET("", h.getUsers)
				admin.GET("/:id", h.getUserByID)
			}
		}

		h.initEstablishmentRoutes(api)
		h.initScheduleRoutes(api)
		h.initAppointmentRoutes(api)

		reviews := api.Group("/reviews")
		{
			reviews.GET("/latest", h.getLatestReviews)
			reviews.GET("/:id", h.getReviewByID)

			auth := reviews.Group("", h.authMiddleware())
			{
				auth.POST("", h.createReview)
				auth.PUT("/:id", h.updateReview)
				auth.DELETE("/:id", h.deleteReview)
			}
		}

		loyalty := api.Group("/loyalty-programs", h.authMiddleware())
		{
			loyalty.PUT("/:id", h.adminMiddleware(), h.updateLoyaltyProgram)
			loyalty.DELETE("/:id", h.adminMiddleware(), h.deleteLoyaltyProgram)
			loyalty.POST("/:id/redeem", h.redeemLoyaltyProgram)
		}

		payments := api.Group("/payments", h.authMiddleware())
		{
			payments.POST("/customer", h.registerPaymentCustomer)
			payments.POST("/charge", h.chargeAppointment)
		}
	}

	if h.agenda != nil {
		router.GET("/ws/agenda", h.agenda.HandleWebSocket)
	}
}

func (h *Handler) initEstablishmentRoutes(api *gin.RouterGroup) {
	establishments := api.Group("/establishments")
	{
		establishments.GET("", h.getEstablishments)
		establishments.GET("/:id", h.getEstablishmentByID)
		establishments.GET("/:id/professionals", h.getEstablishmentProfessionals)
		establishments.GET("/:id/services", h.getEstablishmentServices)
		establishments.GET("/:id/reviews", h.getEstablishmentReviews)
		establishments.GET("/:id/loyalty-programs", h.getLoyaltyPrograms)

		auth := establishments.Group("", h.authMiddleware())
		{
			auth.POST("", h.createEstablishment)
			auth.GET("/:id/loyalty/balance", h.getLoyaltyBalance)

			admin := auth.Group("", h.adminMiddleware())
			{
				admin.PUT("/:id", h.updateEstablishment)
				admin.POST("/:id/professionals", h.createProfessional)
				admin.POST("/:id/services", h.createCatalogService)
				admin.POST("/:id/loyalty-programs", h.createLoyaltyProgram)
				admin.POST("/:id/slots/expand", h.expandEstablishmentSlots)
				admin.GET("/:id/metrics", h.getEstablishmentMetrics)
				admin.POST("/:id/metrics/export", h.exportEstablishmentMetrics)
			}
		}
	}

	professionals := api.Group("/professionals")
	{
		professionals.GET("/:id", h.getProfessionalByID)
		professionals.GET("/:id/rules", h.getProfessionalRules)
		professionals.GET("/:id/slots", h.getProfessionalSlots)
		professionals.GET("/:id/completed-services", h.getCompletedServices)

		admin := professionals.Group("", h.authMiddleware(), h.adminMiddleware())
		{
			admin.PUT("/:id", h.updateProfessional)
			admin.DELETE("/:id", h.deleteProfessional)
		}
	}

	services := api.Group("/services")
	{
		services.GET("/:id", h.getCatalogServiceByID)

		admin := services.Group("", h.authMiddleware(), h.adminMiddleware())
		{
			admin.PUT("/:id", h.updateCatalogService)
			admin.DELETE("/:id", h.deleteCatalogService)
		}
	}
}

func (h *Handler) initScheduleRoutes(api *gin.RouterGroup) {
	rules := api.Group("/rules", h.authMiddleware(), h.staffMiddleware())
	{
		rules.POST("", h.upsertRule)
		rules.PUT("/:id", h.updateRule)
		rules.DELETE("/:id", h.deleteRule)
	}

	slots := api.Group("/slots")
	{
		slots.GET("", h.getSlots)

		staff := slots.Group("", h.authMiddleware(), h.staffMiddleware())
		{
			staff.POST("", h.createSlot)
			staff.POST("/expand", h.expandSlotsFromRules)
			staff.POST("/expand-times", h.expandSlotsFromTimes)
			staff.DELETE("/:id", h.deleteSlot)
		}
	}
}

func (h *Handler) initAppointmentRoutes(api *gin.RouterGroup) {
	appointments := api.Group("/appointments", h.authMiddleware())
	{
		appointments.POST("", h.createAppointment)
		appointments.GET("", h.getAppointments)
		appointments.GET("/cancelled", h.getCancelledAppointments)
		appointments.GET("/:id", h.getAppointmentByID)
		appointments.GET("/:id/payments", h.getAppointmentPayments)
		appointments.POST("/:id/cancel", h.cancelAppointment)
		appointments.PUT("/:id/reschedule", h.rescheduleAppointment)

		staff := appointments.Group("", h.staffMiddleware())
		{
			staff.POST("/:id/confirm", h.confirmAppointment)
			staff.POST("/:id/reject", h.rejectAppointment)
			staff.POST("/:id/complete", h.completeAppointment)
		}
	}
}

// idParam читает числовой параметр пути, при ошибке отвечает 400.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequestResponse(c, "formato de ID inválido")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// dateQuery разбирает YYYY-MM-DD в часовом поясе расписания. Пустое значение - nil.
func (h *Handler) dateQuery(c *gin.Context, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	date, err := domain.ParseDate(value, h.location)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// periodQuery читает data_inicio и data_fim. Конец включительный, наружу уходит исключающая граница.
func (h *Handler) periodQuery(c *gin.Context) (from, to *time.Time, err error) {
	from, err = h.dateQuery(c, "data_inicio")
	if err != nil {
		return nil, nil, err
	}
	end, err := h.dateQuery(c, "data_fim")
	if err != nil {
		return nil, nil, err
	}
	if end != nil {
		next := end.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

func optionalInt64Query(c *gin.Context, name string) (*int64, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "valor numérico inválido")
	}
	return &id, nil
}
