package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendavip/internal/domain"
	"agendavip/pkg/metrics"
)

func TestRunLength(t *testing.T) {
	assert.Equal(t, 1, runLength(30, 30))
	assert.Equal(t, 2, runLength(45, 30))
	assert.Equal(t, 2, runLength(60, 30))
	assert.Equal(t, 3, runLength(70, 30))
	assert.Equal(t, 1, runLength(10, 60))
}

func TestBookingEngine_MondayScenario(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "09:00", 30)

	assert.Equal(t, map[string]bool{"08:00": false, "08:30": false}, env.occupancy(testProfessionalID))

	_, err := env.booking.Reserve(t.Context(), testProfessionalID, at(8, 0), 70)
	var insufficient *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 60, insufficient.AvailableMinutes)
	assert.Equal(t, 70, insufficient.RequiredMinutes)
	assert.Equal(t, map[string]bool{"08:00": false, "08:30": false}, env.occupancy(testProfessionalID))

	reservation, err := env.booking.Reserve(t.Context(), testProfessionalID, at(8, 0), 45)
	require.NoError(t, err)
	assert.Equal(t, 30, reservation.SlotDuration)
	assert.Equal(t, 60, reservation.Minutes)
	assert.Equal(t, []time.Time{at(8, 0), at(8, 30)}, reservation.Timestamps())
	assert.Equal(t, map[string]bool{"08:00": true, "08:30": true}, env.occupancy(testProfessionalID))
}

func TestBookingEngine_ReserveOccupiesExactRun(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	_, err := env.booking.Reserve(t.Context(), testProfessionalID, at(9, 0), 60)
	require.NoError(t, err)

	occupied := 0
	for tod, busy := range env.occupancy(testProfessionalID) {
		if busy {
			occupied++
			assert.Contains(t, []string{"09:00", "09:30"}, tod)
		}
	}
	assert.Equal(t, 2, occupied)
}

func TestBookingEngine_NoPartialOccupancy(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	_, err := env.booking.Reserve(t.Context(), testProfessionalID, at(9, 30), 30)
	require.NoError(t, err)

	_, err = env.booking.Reserve(t.Context(), testProfessionalID, at(9, 0), 90)
	require.ErrorIs(t, err, domain.ErrInsufficientAvailability)

	var insufficient *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 30, insufficient.AvailableMinutes)

	occupancy := env.occupancy(testProfessionalID)
	assert.False(t, occupancy["09:00"])
	assert.True(t, occupancy["09:30"])
	assert.False(t, occupancy["10:00"])
}

func TestBookingEngine_StartNotFree(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "10:00", 30)

	_, err := env.booking.Reserve(t.Context(), testProfessionalID, at(8, 15), 30)
	var insufficient *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Zero(t, insufficient.AvailableMinutes)
}

func TestBookingEngine_MissingConfiguration(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "10:00", 30)

	tuesday := at(8, 0).AddDate(0, 0, 1)
	_, err := env.booking.Reserve(t.Context(), testProfessionalID, tuesday, 30)

	var missing *domain.ConfigurationMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, domain.Tuesday, missing.Weekday)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestBookingEngine_DurationFromContainingRule(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "10:00", 30)
	env.configure(t, testProfessionalID, "14:00", "18:00", 60)

	reservation, err := env.booking.Reserve(t.Context(), testProfessionalID, at(14, 0), 60)
	require.NoError(t, err)
	assert.Equal(t, 60, reservation.SlotDuration)
	assert.Len(t, reservation.Slots, 1)
}

func TestBookingEngine_ReleaseIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	_, err := env.booking.Reserve(t.Context(), testProfessionalID, at(8, 0), 60)
	require.NoError(t, err)
	_, err = env.booking.Reserve(t.Context(), testProfessionalID, at(9, 0), 30)
	require.NoError(t, err)

	released, err := env.booking.Release(t.Context(), testProfessionalID, at(8, 0), 60)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(8, 0), at(8, 30)}, released)

	released, err = env.booking.Release(t.Context(), testProfessionalID, at(8, 0), 60)
	require.NoError(t, err)
	assert.Empty(t, released)

	occupancy := env.occupancy(testProfessionalID)
	assert.False(t, occupancy["08:00"])
	assert.False(t, occupancy["08:30"])
	assert.True(t, occupancy["09:00"])
}

func TestBookingEngine_RescheduleReportsReleasedRun(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)
	a := book(t, env, testServiceHour, 8, 0)

	reg := prometheus.NewRegistry()
	env.booking.metrics = metrics.NewWithRegisterer("agendavip", reg)

	result, err := env.booking.Reschedule(t.Context(), a.ID, at(10, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, result.Previous.ID)
	assert.Equal(t, []time.Time{at(8, 0), at(8, 30)}, result.Released)
	assert.Equal(t, []time.Time{at(10, 0), at(10, 30)}, result.Reservation.Timestamps())

	families, err := reg.Gather()
	require.NoError(t, err)
	operations := 0
	for _, family := range families {
		if family.GetName() == "booking_operations_total" {
			operations = len(family.GetMetric())
		}
	}
	assert.Equal(t, 1, operations)
}

func TestBookingEngine_ConcurrentReserveSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.booking.Reserve(t.Context(), testProfessionalID, at(10, 0), 60)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.True(t, errors.Is(err, domain.ErrInsufficientAvailability) || errors.Is(err, domain.ErrConflict), err.Error())
	}
}

func TestBookingEngine_ConfirmDetectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	first, err := env.appointments.Create(t.Context(), clientIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceHour, StartsAt: at(8, 0),
	})
	require.NoError(t, err)

	// запись, обошедшая резерв: пересекается с first
	env.store.mu.Lock()
	ghost := domain.Appointment{ID: 999, ClientID: testOtherClientUserID, ProfessionalID: testProfessionalID,
		ServiceID: testServiceHour, EstablishmentID: testEstablishmentID, StartsAt: at(8, 30),
		Status: domain.AppointmentStatusPending}
	env.store.appointments[ghost.ID] = ghost
	env.store.mu.Unlock()

	a, err := env.appointments.GetByID(t.Context(), adminIdentity(), first.ID)
	require.NoError(t, err)

	err = env.booking.Confirm(t.Context(), *a)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookingEngine_ConfirmMissingSlot(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, testProfessionalID, "08:00", "12:00", 30)

	a, err := env.appointments.Create(t.Context(), clientIdentity(), domain.CreateAppointmentDTO{
		ProfessionalID: testProfessionalID, ServiceID: testServiceHour, StartsAt: at(8, 0),
	})
	require.NoError(t, err)

	env.store.mu.Lock()
	for id, slot := range env.store.slots {
		if slot.StartsAt.Equal(at(8, 30)) {
			delete(env.store.slots, id)
		}
	}
	env.store.mu.Unlock()

	err = env.booking.Confirm(t.Context(), *a)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.At.Equal(at(8, 30)))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "ok", outcomeOf(nil))
	assert.Equal(t, "conflict", outcomeOf(domain.NewConflictError("x", time.Time{})))
	assert.Equal(t, "insufficient", outcomeOf(&domain.InsufficientAvailabilityError{}))
	assert.Equal(t, "no_config", outcomeOf(&domain.ConfigurationMissingError{}))
	assert.Equal(t, "invalid", outcomeOf(domain.NewValidationError("f", "m")))
	assert.Equal(t, "error", outcomeOf(errors.New("boom")))
}
