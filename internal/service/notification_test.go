package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agendavip/internal/domain"
	"agendavip/internal/mailer"
)

type captureSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	failFor  string
}

func (c *captureSender) Send(_ context.Context, msg mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFor != "" && msg.To[0] == c.failFor {
		return errors.New("caixa cheia")
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *captureSender) recipients() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var to []string
	for _, m := range c.messages {
		to = append(to, m.To...)
	}
	return to
}

func sampleAppointment() domain.Appointment {
	return domain.Appointment{
		ID:                1,
		ProfessionalID:    testProfessionalID,
		StartsAt:          time.Date(2030, time.March, 4, 11, 0, 0, 0, time.UTC),
		ServiceName:       "Corte",
		ClientName:        "Carla",
		ClientEmail:       "carla@email.com",
		ProfessionalName:  "Bruno",
		ProfessionalEmail: "bruno@salao.com.br",
	}
}

func TestNotificationService_DateInLocalZone(t *testing.T) {
	sender := &captureSender{}
	loc := time.FixedZone("BRT", -3*60*60)
	notifier := NewNotificationService(sender, "https://agendavip.com.br/", loc, zap.NewNop())

	require.NoError(t, notifier.AppointmentConfirmed(t.Context(), sampleAppointment()))
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0].TextBody, "04/03/2030")
	assert.Contains(t, sender.messages[0].TextBody, "08:00")
}

func TestNotificationService_ProfessionalChange(t *testing.T) {
	sender := &captureSender{}
	notifier := NewNotificationService(sender, "https://agendavip.com.br", time.UTC, zap.NewNop())

	before := sampleAppointment()
	after := before
	after.ProfessionalID = testColleagueID
	after.ProfessionalName = "Caio"
	after.ProfessionalEmail = "caio@salao.com.br"

	require.NoError(t, notifier.AppointmentRescheduled(t.Context(), before, after))
	assert.ElementsMatch(t, []string{"carla@email.com", "caio@salao.com.br", "bruno@salao.com.br"}, sender.recipients())
}

func TestNotificationService_JoinsErrors(t *testing.T) {
	sender := &captureSender{failFor: "bruno@salao.com.br"}
	notifier := NewNotificationService(sender, "", time.UTC, zap.NewNop())

	err := notifier.AppointmentCancelled(t.Context(), sampleAppointment(), "doença")
	assert.Error(t, err)
	assert.Equal(t, []string{"carla@email.com"}, sender.recipients())
	assert.Contains(t, sender.messages[0].TextBody, "doença")
}

func TestNotificationService_PasswordResetLink(t *testing.T) {
	sender := &captureSender{}
	notifier := NewNotificationService(sender, "https://agendavip.com.br/", time.UTC, zap.NewNop())

	err := notifier.PasswordReset(t.Context(), domain.User{Name: "Carla", Email: "carla@email.com"}, "a+b/c")
	require.NoError(t, err)
	assert.Contains(t, sender.messages[0].TextBody, "https://agendavip.com.br/redefinir-senha?token=a%2Bb%2Fc")
}

func TestNotificationService_UnknownReminder(t *testing.T) {
	notifier := NewNotificationService(&captureSender{}, "", time.UTC, zap.NewNop())
	assert.Error(t, notifier.Reminder(t.Context(), sampleAppointment(), domain.ReminderKind("1_semana")))
}
