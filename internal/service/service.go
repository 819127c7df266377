package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/analytics"
	"agendavip/internal/domain"
	"agendavip/internal/mailer"
	"agendavip/internal/payment"
	"agendavip/internal/repository"
	"agendavip/internal/storage"
	"agendavip/pkg/metrics"
)

// TokenStore - отозванные access-токены и токены сброса пароля.
type TokenStore interface {
	Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
	SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (int64, error)
}

// EventPublisher получает события агенды после коммита. Publish не блокирует.
type EventPublisher interface {
	Publish(event domain.SlotEvent)
}

type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	FileStorage storage.FileStorage
	Tokens      TokenStore
	Mailer      mailer.Sender
	Analytics   analytics.Store
	Payments    payment.Gateway
	Metrics     *metrics.Metrics
	Events      EventPublisher
}

type Services struct {
	User          UserService
	Auth          AuthService
	Establishment EstablishmentService
	Professional  ProfessionalService
	Catalog       CatalogService
	Schedule      ScheduleService
	Slot          SlotService
	Booking       BookingEngine
	Appointment   AppointmentService
	Notification  Notifier
	Loyalty       LoyaltyService
	Review        ReviewService
	Payment       PaymentService
	Metrics       MetricsService
	Reminder      *ReminderJob
}

func NewServices(deps Deps) *Services {
	repos := deps.Repos
	loc := deps.Config.Scheduling.Location()
	events := deps.Events
	if events == nil {
		events = nopPublisher{}
	}

	notifier := NewNotificationService(deps.Mailer, deps.Config.FrontendURL, loc, deps.Logger)
	booking := NewBookingEngine(repos.Tx, repos.Schedule, repos.Slot, repos.Appointment, loc, deps.Metrics, deps.Logger)
	loyalty := NewLoyaltyService(repos.Tx, repos.Loyalty, deps.Analytics, deps.FileStorage, deps.Logger)
	payments := NewPaymentService(repos.Payment, repos.User, repos.Appointment, deps.Payments, deps.Config.MercadoPago.Currency, deps.Logger)

	return &Services{
		User:          NewUserService(repos.User, deps.Logger),
		Auth:          NewAuthService(repos.Auth, repos.User, repos.Professional, deps.Tokens, notifier, deps.Config.JWT, deps.Logger),
		Establishment: NewEstablishmentService(repos.Tx, repos.Establishment, repos.User, deps.Logger),
		Professional:  NewProfessionalService(repos.Tx, repos.Professional, repos.User, deps.Logger),
		Catalog:       NewCatalogService(repos.Catalog, deps.Logger),
		Schedule:      NewScheduleService(repos.Tx, repos.Schedule, repos.Professional, deps.Logger),
		Slot:          NewSlotService(repos.Tx, repos.Slot, repos.Schedule, repos.Professional, deps.Config.Scheduling, events, deps.Metrics, deps.Logger),
		Booking:       booking,
		Appointment: NewAppointmentService(AppointmentDeps{
			Tx:            repos.Tx,
			Appointments:  repos.Appointment,
			Professionals: repos.Professional,
			Catalog:       repos.Catalog,
			Booking:       booking,
			Notifier:      notifier,
			Analytics:     deps.Analytics,
			Loyalty:       loyalty,
			Payments:      payments,
			Events:        events,
			Location:      loc,
			Logger:        deps.Logger,
		}),
		Notification: notifier,
		Loyalty:      loyalty,
		Review:       NewReviewService(repos.Review, repos.Appointment, deps.Logger),
		Payment:      payments,
		Metrics:      NewMetricsService(deps.Analytics, deps.FileStorage, loc, deps.Logger),
		Reminder:     NewReminderJob(repos.Appointment, notifier, deps.Config.Reminder.Interval, deps.Metrics, deps.Logger),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.SlotEvent) {}

type UserService interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type AuthService interface {
	Register(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, access *AccessToken, refreshToken string) error
	ParseToken(ctx context.Context, token string) (*AccessToken, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, dto domain.ResetPasswordRequest) error
}

type EstablishmentService interface {
	Create(ctx context.Context, identity domain.Identity, dto domain.CreateEstablishmentDTO) (*domain.Establishment, error)
	GetByID(ctx context.Context, id int64) (*domain.Establishment, error)
	Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateEstablishmentDTO) error
	List(ctx context.Context, limit, offset int) ([]domain.Establishment, error)
}

type ProfessionalService interface {
	Create(ctx context.Context, identity domain.Identity, establishmentID int64, dto domain.CreateProfessionalDTO) (*domain.Professional, error)
	GetByID(ctx context.Context, id int64) (*domain.Professional, error)
	Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateProfessionalDTO) error
	Delete(ctx context.Context, identity domain.Identity, id int64) error
	ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.Professional, error)
}

type CatalogService interface {
	Create(ctx context.Context, identity domain.Identity, establishmentID int64, dto domain.CreateCatalogServiceDTO) (*domain.CatalogService, error)
	GetByID(ctx context.Context, id int64) (*domain.CatalogService, error)
	Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateCatalogServiceDTO) error
	Delete(ctx context.Context, identity domain.Identity, id int64) error
	ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.CatalogService, error)
	ListCompletedByProfessional(ctx context.Context, professionalID int64) ([]domain.CatalogService, error)
}

// ScheduleService - недельные правила приема профессионалов.
type ScheduleService interface {
	UpsertRule(ctx context.Context, identity domain.Identity, dto domain.UpsertRuleDTO) (*domain.AvailabilityRule, error)
	ListRules(ctx context.Context, professionalID int64) ([]domain.AvailabilityRule, error)
	UpdateRule(ctx context.Context, identity domain.Identity, ruleID int64, dto domain.UpdateRuleDTO) (*domain.AvailabilityRule, error)
	DeleteRule(ctx context.Context, identity domain.Identity, ruleID int64) error
}

// SlotService материализует слоты из правил или явных списков времени.
type SlotService interface {
	ExpandFromRules(ctx context.Context, identity domain.Identity, dto domain.ExpandRulesDTO) (*domain.ExpansionResult, error)
	ExpandFromTimes(ctx context.Context, identity domain.Identity, dto domain.ExpandTimesDTO) (*domain.ExpansionResult, error)
	ExpandForEstablishment(ctx context.Context, identity domain.Identity, dto domain.BulkExpandDTO) (*domain.ExpansionResult, error)
	CreateSlot(ctx context.Context, identity domain.Identity, dto domain.CreateSlotDTO) (*domain.Slot, error)
	ListSlots(ctx context.Context, filter domain.SlotFilter) ([]domain.Slot, error)
	DeleteSlot(ctx context.Context, identity domain.Identity, id int64) error
}

// BookingEngine - единственная пара резервирования и освобождения слотов.
type BookingEngine interface {
	Reserve(ctx context.Context, professionalID int64, start time.Time, serviceMinutes int) (*domain.Reservation, error)
	Confirm(ctx context.Context, appointment domain.Appointment) error
	// Release возвращает моменты освобожденных слотов.
	Release(ctx context.Context, professionalID int64, start time.Time, serviceMinutes int) ([]time.Time, error)
	Reschedule(ctx context.Context, appointmentID int64, start time.Time, professionalID *int64) (*domain.Rescheduling, error)
}

type AppointmentService interface {
	Create(ctx context.Context, identity domain.Identity, dto domain.CreateAppointmentDTO) (*domain.Appointment, error)
	GetByID(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error)
	List(ctx context.Context, identity domain.Identity, filter domain.AppointmentFilter) ([]domain.Appointment, int, error)
	ListCancelled(ctx context.Context, identity domain.Identity, filter domain.AppointmentFilter) ([]domain.CancelledAppointment, error)
	Confirm(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error)
	Reject(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error)
	Complete(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error)
	Cancel(ctx context.Context, identity domain.Identity, id int64, dto domain.CancelAppointmentDTO) error
	Reschedule(ctx context.Context, identity domain.Identity, id int64, dto domain.RescheduleAppointmentDTO) (*domain.Appointment, error)
}

// Notifier отправляет письма о событиях записи.
type Notifier interface {
	AppointmentConfirmed(ctx context.Context, appointment domain.Appointment) error
	AppointmentRejected(ctx context.Context, appointment domain.Appointment) error
	AppointmentCancelled(ctx context.Context, appointment domain.Appointment, reason string) error
	AppointmentRescheduled(ctx context.Context, before, after domain.Appointment) error
	Reminder(ctx context.Context, appointment domain.Appointment, kind domain.ReminderKind) error
	PasswordReset(ctx context.Context, user domain.User, token string) error
}

type LoyaltyService interface {
	CreateProgram(ctx context.Context, identity domain.Identity, establishmentID int64, dto domain.CreateLoyaltyProgramDTO) (*domain.LoyaltyProgram, error)
	UpdateProgram(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateLoyaltyProgramDTO) error
	DeleteProgram(ctx context.Context, identity domain.Identity, id int64) error
	ListPrograms(ctx context.Context, establishmentID int64, onlyActive bool) ([]domain.LoyaltyProgram, error)
	GetBalance(ctx context.Context, identity domain.Identity, establishmentID int64) (*domain.LoyaltyBalance, error)
	AwardCompletion(ctx context.Context, appointment domain.Appointment) error
	Redeem(ctx context.Context, identity domain.Identity, programID int64) (*domain.Redemption, error)
}

type ReviewService interface {
	Create(ctx context.Context, identity domain.Identity, dto domain.CreateReviewDTO) (*domain.Review, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	Update(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateReviewDTO) error
	Delete(ctx context.Context, identity domain.Identity, id int64) error
	ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.Review, error)
	ListLatest(ctx context.Context) ([]domain.Review, error)
}

type PaymentService interface {
	RegisterCustomer(ctx context.Context, identity domain.Identity, dto domain.RegisterCustomerDTO) error
	Charge(ctx context.Context, identity domain.Identity, dto domain.ChargeDTO) (*domain.Payment, error)
	ChargeCompleted(ctx context.Context, appointment domain.Appointment) (*domain.Payment, error)
	ListByAppointment(ctx context.Context, identity domain.Identity, appointmentID int64) ([]domain.Payment, error)
}

type MetricsService interface {
	EstablishmentMetrics(ctx context.Context, identity domain.Identity, establishmentID int64, year int) (*domain.EstablishmentMetrics, error)
	Export(ctx context.Context, identity domain.Identity, establishmentID int64, year int) (*domain.MetricsExport, error)
}

func PointerTo[T any](v T) *T {
	return &v
}
