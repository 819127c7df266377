package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/domain"
)

const (
	testEstablishmentID      int64 = 1
	testOtherEstablishmentID int64 = 2
	testAdminUserID          int64 = 100
	testProfessionalUserID   int64 = 110
	testClientUserID         int64 = 200
	testOtherClientUserID    int64 = 201

	testProfessionalID      int64 = 10
	testColleagueID         int64 = 11
	testForeignProfessional int64 = 12

	testServiceHour    int64 = 50
	testServiceShort   int64 = 51
	testServiceLong    int64 = 52
	testServiceForeign int64 = 53
)

// testMonday - понедельник в будущем, чтобы проверки "в прошлом" не мешали.
var testMonday = time.Date(2030, time.March, 4, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2030, time.March, 4, hour, minute, 0, 0, time.UTC)
}

func adminIdentity() domain.Identity {
	return domain.Identity{UserID: testAdminUserID, Role: domain.UserRoleAdmin, EstablishmentID: PointerTo(testEstablishmentID)}
}

func professionalIdentity() domain.Identity {
	return domain.Identity{
		UserID:          testProfessionalUserID,
		Role:            domain.UserRoleProfessional,
		EstablishmentID: PointerTo(testEstablishmentID),
		ProfessionalID:  PointerTo(testProfessionalID),
	}
}

func clientIdentity() domain.Identity {
	return domain.Identity{UserID: testClientUserID, Role: domain.UserRoleClient}
}

type testEnv struct {
	store    *memStore
	tx       *fakeTx
	notifier *fakeNotifier
	events   *fakePublisher

	booking      *BookingEngineImpl
	schedule     *ScheduleServiceImpl
	slots        *SlotServiceImpl
	appointments *AppointmentServiceImpl
	reviews      *ReviewServiceImpl
	reminders    *ReminderJob
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	seed(store)

	logger := zap.NewNop()
	tx := &fakeTx{store: store}
	notifier := &fakeNotifier{}
	events := &fakePublisher{}

	rules := fakeScheduleRepo{s: store}
	slots := fakeSlotRepo{s: store}
	appointments := fakeAppointmentRepo{s: store}
	professionals := fakeProfessionalRepo{s: store}

	booking := NewBookingEngine(tx, rules, slots, appointments, time.UTC, nil, logger)
	env := &testEnv{
		store:    store,
		tx:       tx,
		notifier: notifier,
		events:   events,
		booking:  booking,
		schedule: NewScheduleService(tx, rules, professionals, logger),
		slots: NewSlotService(tx, slots, rules, professionals,
			config.SchedulingConfig{Timezone: "UTC", MaxExpansionDays: 62}, events, nil, logger),
		appointments: NewAppointmentService(AppointmentDeps{
			Tx:            tx,
			Appointments:  appointments,
			Professionals: professionals,
			Catalog:       fakeCatalogRepo{s: store},
			Booking:       booking,
			Notifier:      notifier,
			Events:        events,
			Location:      time.UTC,
			Logger:        logger,
		}),
		reviews:   NewReviewService(fakeReviewRepo{s: store}, appointments, logger),
		reminders: NewReminderJob(appointments, notifier, time.Minute, nil, logger),
	}
	env.appointments.now = func() time.Time { return testMonday.AddDate(0, 0, -7) }

	return env
}

func seed(s *memStore) {
	s.users[testAdminUserID] = domain.User{ID: testAdminUserID, Name: "Ana Admin", Email: "ana@salao.com.br",
		Role: domain.UserRoleAdmin, EstablishmentID: PointerTo(testEstablishmentID), IsActive: true}
	s.users[testProfessionalUserID] = domain.User{ID: testProfessionalUserID, Name: "Bruno Barbeiro", Email: "bruno@salao.com.br",
		Role: domain.UserRoleProfessional, EstablishmentID: PointerTo(testEstablishmentID), IsActive: true}
	s.users[testClientUserID] = domain.User{ID: testClientUserID, Name: "Carla Cliente", Email: "carla@email.com",
		Role: domain.UserRoleClient, IsActive: true}
	s.users[testOtherClientUserID] = domain.User{ID: testOtherClientUserID, Name: "Davi Cliente", Email: "davi@email.com",
		Role: domain.UserRoleClient, IsActive: true}

	s.establishments[testEstablishmentID] = domain.Establishment{ID: testEstablishmentID, Name: "Salão Vip"}
	s.establishments[testOtherEstablishmentID] = domain.Establishment{ID: testOtherEstablishmentID, Name: "Outro Salão"}

	s.professionals[testProfessionalID] = domain.Professional{ID: testProfessionalID, UserID: testProfessionalUserID,
		EstablishmentID: testEstablishmentID, Name: "Bruno Barbeiro", Email: "bruno@salao.com.br"}
	s.professionals[testColleagueID] = domain.Professional{ID: testColleagueID, UserID: 111,
		EstablishmentID: testEstablishmentID, Name: "Caio Colega", Email: "caio@salao.com.br"}
	s.professionals[testForeignProfessional] = domain.Professional{ID: testForeignProfessional, UserID: 112,
		EstablishmentID: testOtherEstablishmentID, Name: "Estranho", Email: "x@outro.com.br"}

	s.catalog[testServiceHour] = domain.CatalogService{ID: testServiceHour, EstablishmentID: testEstablishmentID,
		Name: "Corte", Duration: 60, Price: 80}
	s.catalog[testServiceShort] = domain.CatalogService{ID: testServiceShort, EstablishmentID: testEstablishmentID,
		Name: "Barba", Duration: 45, Price: 40}
	s.catalog[testServiceLong] = domain.CatalogService{ID: testServiceLong, EstablishmentID: testEstablishmentID,
		Name: "Combo", Duration: 70, Price: 110}
	s.catalog[testServiceForeign] = domain.CatalogService{ID: testServiceForeign, EstablishmentID: testOtherEstablishmentID,
		Name: "Manicure", Duration: 30, Price: 30}
}

// configure задает правило и разворачивает слоты на testMonday.
func (e *testEnv) configure(t *testing.T, professionalID int64, start, end string, duration int) {
	t.Helper()

	s, err := domain.ParseTimeOfDay(start)
	require.NoError(t, err)
	en, err := domain.ParseTimeOfDay(end)
	require.NoError(t, err)

	_, err = e.schedule.UpsertRule(t.Context(), adminIdentity(), domain.UpsertRuleDTO{
		ProfessionalID: professionalID,
		Weekday:        domain.Monday,
		StartTime:      s,
		EndTime:        en,
		SlotDuration:   duration,
	})
	require.NoError(t, err)

	_, err = e.slots.ExpandFromRules(t.Context(), adminIdentity(), domain.ExpandRulesDTO{
		ProfessionalID: professionalID,
		StartDate:      "2030-03-04",
		EndDate:        "2030-03-04",
	})
	require.NoError(t, err)
}

// occupancy возвращает HH:MM -> ocupado для слотов профессионала.
func (e *testEnv) occupancy(professionalID int64) map[string]bool {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	result := map[string]bool{}
	for _, slot := range e.store.slots {
		if slot.ProfessionalID == professionalID {
			result[slot.StartsAt.Format(domain.TimeFormat)] = slot.Occupied
		}
	}
	return result
}
