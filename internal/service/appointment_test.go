package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendavip/internal/domain"
	"agendavip/internal/mailer"
)

func book(t *testing.T, env *testEnv, serviceID int64, hour, minute int) *domain.Appointment {
	t.Helper()
	a, err := env.appointments.Create(t.Context(), clientIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID,
		ServiceID:      serviceID,
		StartsAt:       at(hour, minute),
	})
	require.NoError(t, err)
	return a
}

func TestAppointmentService_CreateReservesSlots(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	a := book(t, env, testServiceHour, 9, 0)
	assert.Equal(t, domain.AppointmentStatusPending, a.Status)
	assert.Equal(t, testClientUserID, a.ClientID)
	assert.Equal(t, testEstablishmentID, a.EstablishmentID)
	assert.Equal(t, 60, a.ServiceDuration)

	occupancy := env.occupancy(testProfessionalID)
	assert.True(t, occupancy["09:00"])
	assert.True(t, occupancy["09:30"])
	assert.Contains(t, env.events.types(), domain.SlotEventOccupied)

	_, err := env.appointments.Create(t.Context(), clientIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceShort, StartsAt: at(9, 30),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailability)
}

func TestAppointmentService_CreateRejectsInvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	_, err := env.appointments.Create(t.Context(), clientIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceForeign, StartsAt: at(8, 0),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.appointments.Create(t.Context(), professionalIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceHour, StartsAt: at(8, 0),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	env.appointments.now = func() time.Time { return at(10, 0) }
	_, err = env.appointments.Create(t.Context(), clientIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceHour, StartsAt: at(8, 0),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	for _, busy := range env.occupancy(testProfessionalID) {
		assert.False(t, busy)
	}
}

func TestAppointmentService_AdminBooksForClient(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	a, err := env.appointments.Create(t.Context(), adminIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID,
		ServiceID:      testServiceHour,
		StartsAt:       at(8, 0),
		ClientID:       PointerTo(testOtherClientUserID),
	})
	require.NoError(t, err)
	assert.Equal(t, testOtherClientUserID, a.ClientID)
}

func TestAppointmentService_StatusFlow(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	_, err := env.appointments.Complete(t.Context(), professionalIdentity(), a.ID)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.appointments.Confirm(t.Context(), clientIdentity(), a.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	confirmed, err := env.appointments.Confirm(t.Context(), professionalIdentity(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusConfirmed, confirmed.Status)

	completed, err := env.appointments.Complete(t.Context(), adminIdentity(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCompleted, completed.Status)
	for hhmm, busy := range env.occupancy(testProfessionalID) {
		assert.False(t, busy, hhmm)
	}
	released := env.events.events[len(env.events.events)-1]
	assert.Equal(t, domain.SlotEventReleased, released.Type)
	assert.Equal(t, []time.Time{at(8, 0), at(8, 30)}, released.Timestamps)

	_, err = env.appointments.Confirm(t.Context(), adminIdentity(), a.ID)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "status", validation.Field)

	assert.Equal(t, []string{mailer.TemplateConfirmation}, env.notifier.templates())
}

func TestAppointmentService_RejectReleasesSlots(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	rejected, err := env.appointments.Reject(t.Context(), professionalIdentity(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusRejected, rejected.Status)

	for _, busy := range env.occupancy(testProfessionalID) {
		assert.False(t, busy)
	}
	assert.Equal(t, []string{mailer.TemplateRejection}, env.notifier.templates())
}

func TestAppointmentService_CancelConfirmedArchives(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	_, err := env.appointments.Confirm(t.Context(), professionalIdentity(), a.ID)
	require.NoError(t, err)

	err = env.appointments.Cancel(t.Context(), clientIdentity(), a.ID, domain.CancelAppointmentDTO{Reason: "imprevisto"})
	require.NoError(t, err)

	occupancy := env.occupancy(testProfessionalID)
	assert.False(t, occupancy["08:00"])
	assert.False(t, occupancy["08:30"])

	_, err = env.appointments.GetByID(t.Context(), clientIdentity(), a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cancelled, err := env.appointments.ListCancelled(t.Context(), clientIdentity(), domain.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].OriginalAppointmentID)
	assert.Equal(t, domain.UserRoleClient, cancelled[0].CancelledBy)
	assert.Equal(t, domain.AppointmentStatusConfirmed, cancelled[0].PreviousStatus)
	assert.Equal(t, "imprevisto", cancelled[0].Reason)

	assert.Contains(t, env.notifier.templates(), mailer.TemplateCancellation)
	assert.Equal(t, domain.SlotEventReleased, env.events.types()[len(env.events.types())-1])
}

func TestAppointmentService_CancelByStrangerForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	stranger := domain.Identity{UserID: testOtherClientUserID, Role: domain.UserRoleClient}
	err := env.appointments.Cancel(t.Context(), stranger, a.ID, domain.CancelAppointmentDTO{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.True(t, env.occupancy(testProfessionalID)["08:00"])
}

func TestAppointmentService_Reschedule(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	_, err := env.appointments.Confirm(t.Context(), professionalIdentity(), a.ID)
	require.NoError(t, err)

	moved, err := env.appointments.Reschedule(t.Context(), clientIdentity(), a.ID, domain.RescheduleAppointmentDTO{
		StartsAt: at(10, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusPending, moved.Status)
	assert.True(t, moved.StartsAt.Equal(at(10, 0)))

	occupancy := env.occupancy(testProfessionalID)
	assert.False(t, occupancy["08:00"])
	assert.False(t, occupancy["08:30"])
	assert.True(t, occupancy["10:00"])
	assert.True(t, occupancy["10:30"])
	assert.Contains(t, env.notifier.templates(), mailer.TemplateTimeChange)
}

func TestAppointmentService_RescheduleToColleague(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	env.configure(t, testColleagueID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	moved, err := env.appointments.Reschedule(t.Context(), adminIdentity(), a.ID, domain.RescheduleAppointmentDTO{
		StartsAt:       at(8, 0),
		ProfessionalID: PointerTo(testColleagueID),
	})
	require.NoError(t, err)
	assert.Equal(t, testColleagueID, moved.ProfessionalID)
	assert.False(t, env.occupancy(testProfessionalID)["08:00"])
	assert.True(t, env.occupancy(testColleagueID)["08:00"])
	assert.True(t, env.occupancy(testColleagueID)["08:30"])

	_, err = env.appointments.Reschedule(t.Context(), adminIdentity(), a.ID, domain.RescheduleAppointmentDTO{
		StartsAt:       at(9, 0),
		ProfessionalID: PointerTo(testForeignProfessional),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAppointmentService_RescheduleUnavailableKeepsOriginal(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)
	book(t, env, testServiceHour, 10, 0)

	_, err := env.appointments.Reschedule(t.Context(), clientIdentity(), a.ID, domain.RescheduleAppointmentDTO{
		StartsAt: at(10, 0),
	})
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	_, err = env.appointments.Reschedule(t.Context(), clientIdentity(), a.ID, domain.RescheduleAppointmentDTO{
		StartsAt: at(9, 30),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailability)

	occupancy := env.occupancy(testProfessionalID)
	assert.True(t, occupancy["08:00"])
	assert.True(t, occupancy["08:30"])
	assert.False(t, occupancy["09:00"])
	assert.False(t, occupancy["09:30"])

	current, err := env.appointments.GetByID(t.Context(), clientIdentity(), a.ID)
	require.NoError(t, err)
	assert.True(t, current.StartsAt.Equal(at(8, 0)))
}

func TestAppointmentService_ListScopedByRole(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	book(t, env, testServiceHour, 8, 0)
	_, err := env.appointments.Create(t.Context(), adminIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceHour, StartsAt: at(10, 0),
		ClientID: PointerTo(testOtherClientUserID),
	})
	require.NoError(t, err)

	mine, total, err := env.appointments.List(t.Context(), clientIdentity(), domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, mine, 1)

	all, total, err := env.appointments.List(t.Context(), professionalIdentity(), domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	bad := domain.AppointmentStatus("perdido")
	_, _, err = env.appointments.List(t.Context(), adminIdentity(), domain.AppointmentFilter{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
