package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendavip/internal/domain"
)

func upsert(t *testing.T, env *testEnv, start, end domain.TimeOfDay, duration int) *domain.AvailabilityRule {
	t.Helper()
	rule, err := env.schedule.UpsertRule(t.Context(), adminIdentity(), domain.UpsertRuleDTO{
		ProfessionalID: testProfessionalID,
		Weekday:        domain.Monday,
		StartTime:      start,
		EndTime:        end,
		SlotDuration:   duration,
	})
	require.NoError(t, err)
	return rule
}

func TestScheduleService_UpsertDefaultsDuration(t *testing.T) {
	env := newTestEnv(t)

	rule := upsert(t, env, domain.NewTimeOfDay(8, 0), domain.NewTimeOfDay(12, 0), 0)
	assert.Equal(t, domain.DefaultSlotDurationMinutes, rule.SlotDuration)
	assert.Equal(t, testEstablishmentID, rule.EstablishmentID)
}

func TestScheduleService_UpsertMergesOverlapping(t *testing.T) {
	env := newTestEnv(t)

	morning := upsert(t, env, domain.NewTimeOfDay(8, 0), domain.NewTimeOfDay(10, 0), 30)
	upsert(t, env, domain.NewTimeOfDay(11, 0), domain.NewTimeOfDay(13, 0), 30)
	upsert(t, env, domain.NewTimeOfDay(15, 0), domain.NewTimeOfDay(18, 0), 30)

	merged := upsert(t, env, domain.NewTimeOfDay(9, 0), domain.NewTimeOfDay(12, 0), 20)
	assert.Equal(t, morning.ID, merged.ID)

	rules, err := env.schedule.ListRules(t.Context(), testProfessionalID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.NewTimeOfDay(9, 0), rules[0].StartTime)
	assert.Equal(t, domain.NewTimeOfDay(12, 0), rules[0].EndTime)
	assert.Equal(t, 20, rules[0].SlotDuration)
	assert.Equal(t, domain.NewTimeOfDay(15, 0), rules[1].StartTime)
}

func TestScheduleService_UpsertAdjacentDoesNotMerge(t *testing.T) {
	env := newTestEnv(t)

	upsert(t, env, domain.NewTimeOfDay(8, 0), domain.NewTimeOfDay(10, 0), 30)
	upsert(t, env, domain.NewTimeOfDay(10, 0), domain.NewTimeOfDay(12, 0), 30)

	rules, err := env.schedule.ListRules(t.Context(), testProfessionalID)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestScheduleService_UpsertValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]domain.UpsertRuleDTO{
		"inverted window": {ProfessionalID: testProfessionalID, Weekday: domain.Monday,
			StartTime: domain.NewTimeOfDay(12, 0), EndTime: domain.NewTimeOfDay(8, 0)},
		"duration larger than window": {ProfessionalID: testProfessionalID, Weekday: domain.Monday,
			StartTime: domain.NewTimeOfDay(8, 0), EndTime: domain.NewTimeOfDay(8, 30), SlotDuration: 45},
		"negative duration": {ProfessionalID: testProfessionalID, Weekday: domain.Monday,
			StartTime: domain.NewTimeOfDay(8, 0), EndTime: domain.NewTimeOfDay(9, 0), SlotDuration: -5},
		"bad weekday": {ProfessionalID: testProfessionalID, Weekday: domain.Weekday(9),
			StartTime: domain.NewTimeOfDay(8, 0), EndTime: domain.NewTimeOfDay(9, 0)},
	}

	for name, dto := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.schedule.UpsertRule(t.Context(), adminIdentity(), dto)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestScheduleService_OnlyAdminConfigures(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.schedule.UpsertRule(t.Context(), professionalIdentity(), domain.UpsertRuleDTO{
		ProfessionalID: testProfessionalID, Weekday: domain.Monday,
		StartTime: domain.NewTimeOfDay(8, 0), EndTime: domain.NewTimeOfDay(9, 0),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.schedule.UpsertRule(t.Context(), adminIdentity(), domain.UpsertRuleDTO{
		ProfessionalID: testForeignProfessional, Weekday: domain.Monday,
		StartTime: domain.NewTimeOfDay(8, 0), EndTime: domain.NewTimeOfDay(9, 0),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestScheduleService_UpdateRuleConflict(t *testing.T) {
	env := newTestEnv(t)

	morning := upsert(t, env, domain.NewTimeOfDay(8, 0), domain.NewTimeOfDay(10, 0), 30)
	upsert(t, env, domain.NewTimeOfDay(14, 0), domain.NewTimeOfDay(16, 0), 30)

	_, err := env.schedule.UpdateRule(t.Context(), adminIdentity(), morning.ID, domain.UpdateRuleDTO{
		EndTime: PointerTo(domain.NewTimeOfDay(15, 0)),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := env.schedule.UpdateRule(t.Context(), adminIdentity(), morning.ID, domain.UpdateRuleDTO{
		EndTime:      PointerTo(domain.NewTimeOfDay(12, 0)),
		SlotDuration: PointerTo(60),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NewTimeOfDay(12, 0), updated.EndTime)
	assert.Equal(t, 60, updated.SlotDuration)

	require.NoError(t, env.schedule.DeleteRule(t.Context(), adminIdentity(), morning.ID))
	rules, err := env.schedule.ListRules(t.Context(), testProfessionalID)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
