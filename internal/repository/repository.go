package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"agendavip/internal/domain"
)

type Repositories struct {
	Tx            TxManager
	User          UserRepository
	Auth          AuthRepository
	Establishment EstablishmentRepository
	Professional  ProfessionalRepository
	Catalog       CatalogRepository
	Schedule      ScheduleRepository
	Slot          SlotRepository
	Appointment   AppointmentRepository
	Review        ReviewRepository
	Loyalty       LoyaltyRepository
	Payment       PaymentRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Tx:            NewTxManager(db),
		User:          NewUserRepository(db),
		Auth:          NewAuthRepository(db),
		Establishment: NewEstablishmentRepository(db),
		Professional:  NewProfessionalRepository(db),
		Catalog:       NewCatalogRepository(db),
		Schedule:      NewScheduleRepository(db),
		Slot:          NewSlotRepository(db),
		Appointment:   NewAppointmentRepository(db),
		Review:        NewReviewRepository(db),
		Loyalty:       NewLoyaltyRepository(db),
		Payment:       NewPaymentRepository(db),
	}
}

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetEstablishment(ctx context.Context, id, establishmentID int64, role domain.UserRole) error
	SetPaymentCustomer(ctx context.Context, id int64, customerID string, paymentMethodID *string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	ConsumeSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSessionsByUserID(ctx context.Context, userID int64) error
}

type EstablishmentRepository interface {
	Create(ctx context.Context, dto domain.CreateEstablishmentDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Establishment, error)
	Update(ctx context.Context, id int64, dto domain.UpdateEstablishmentDTO) error
	List(ctx context.Context, limit, offset int) ([]domain.Establishment, error)
}

type ProfessionalRepository interface {
	Create(ctx context.Context, userID, establishmentID int64, role string) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Professional, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Professional, error)
	Update(ctx context.Context, id int64, dto domain.UpdateProfessionalDTO) error
	Delete(ctx context.Context, id int64) error
	ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.Professional, error)
}

type CatalogRepository interface {
	Create(ctx context.Context, establishmentID int64, dto domain.CreateCatalogServiceDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.CatalogService, error)
	Update(ctx context.Context, id int64, dto domain.UpdateCatalogServiceDTO) error
	Delete(ctx context.Context, id int64) error
	ListByEstablishment(ctx context.Context, establishmentID int64) ([]domain.CatalogService, error)
	ListCompletedByProfessional(ctx context.Context, professionalID int64) ([]domain.CatalogService, error)
}

// ScheduleRepository хранит недельные правила (configuracoes_agenda).
type ScheduleRepository interface {
	Create(ctx context.Context, rule domain.AvailabilityRule) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityRule, error)
	Update(ctx context.Context, rule domain.AvailabilityRule) error
	Delete(ctx context.Context, id int64) error
	ListByProfessional(ctx context.Context, professionalID int64) ([]domain.AvailabilityRule, error)
	// ListByWeekday упорядочен по hora_inicio.
	ListByWeekday(ctx context.Context, professionalID int64, weekday domain.Weekday) ([]domain.AvailabilityRule, error)
	ListByWeekdayForUpdate(ctx context.Context, professionalID int64, weekday domain.Weekday) ([]domain.AvailabilityRule, error)
}

// SlotRepository - журнал слотов (agenda_disponivel). Интервалы полуоткрытые [from, to).
type SlotRepository interface {
	// CreateMany вставляет отсутствующие слоты и возвращает моменты реально созданных.
	CreateMany(ctx context.Context, professionalID, establishmentID int64, startsAt []time.Time) ([]time.Time, error)
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	List(ctx context.Context, filter domain.SlotFilter) ([]domain.Slot, error)
	ListFreeForUpdate(ctx context.Context, professionalID int64, from, to time.Time) ([]domain.Slot, error)
	ListRangeForUpdate(ctx context.Context, professionalID int64, from, to time.Time) ([]domain.Slot, error)
	// Occupy занимает только свободные слоты и возвращает число измененных.
	Occupy(ctx context.Context, ids []int64) (int64, error)
	// ReleaseRange освобождает занятые слоты интервала и возвращает их моменты.
	ReleaseRange(ctx context.Context, professionalID int64, from, to time.Time) ([]time.Time, error)
	// DeleteFree удаляет слот, только если он свободен и начинается после now.
	DeleteFree(ctx context.Context, id int64, now time.Time) (bool, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment domain.Appointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error
	// Reschedule переносит запись, возвращает ее в pendente и сбрасывает флаги напоминаний.
	Reschedule(ctx context.Context, id, professionalID int64, startsAt time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error)
	// ListOverlapping - активные записи профессионала, пересекающие [from, to).
	ListOverlapping(ctx context.Context, professionalID int64, from, to time.Time, excludeID int64) ([]domain.Appointment, error)
	Archive(ctx context.Context, record domain.CancelledAppointment) (int64, error)
	ListCancelled(ctx context.Context, filter domain.AppointmentFilter) ([]domain.CancelledAppointment, error)
	// ListDueReminders - подтвержденные записи с horario в (from, to] без отметки kind.
	ListDueReminders(ctx context.Context, kind domain.ReminderKind, from, to time.Time) ([]domain.Appointment, error)
	MarkNotified(ctx context.Context, id int64, kind domain.ReminderKind) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review domain.Review) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	ExistsForAppointment(ctx context.Context, appointmentID int64) (bool, error)
	Update(ctx context.Context, id int64, dto domain.UpdateReviewDTO) error
	Delete(ctx context.Context, id int64) error
	ListByEstablishment(ctx context.Context, establishmentID int64, limit int) ([]domain.Review, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Review, error)
}

type LoyaltyRepository interface {
	CreateProgram(ctx context.Context, establishmentID int64, dto domain.CreateLoyaltyProgramDTO) (int64, error)
	GetProgram(ctx context.Context, id int64) (*domain.LoyaltyProgram, error)
	UpdateProgram(ctx context.Context, id int64, dto domain.UpdateLoyaltyProgramDTO) error
	DeleteProgram(ctx context.Context, id int64) error
	ListPrograms(ctx context.Context, establishmentID int64, onlyActive bool) ([]domain.LoyaltyProgram, error)
	AddPoints(ctx context.Context, clientID, establishmentID int64, points int) (int, error)
	GetBalance(ctx context.Context, clientID, establishmentID int64) (*domain.LoyaltyBalance, error)
	// SpendPoints списывает баллы, ok=false если баллов недостаточно.
	SpendPoints(ctx context.Context, clientID, establishmentID int64, points int) (remaining int, ok bool, err error)
	CreateRedemption(ctx context.Context, redemption domain.Redemption) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) (int64, error)
	ListByAppointment(ctx context.Context, appointmentID int64) ([]domain.Payment, error)
}
