package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendavip/internal/domain"
)

func TestReviewService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	putAppointment(env, 1, at(8, 0), domain.AppointmentStatusCompleted)
	putAppointment(env, 2, at(10, 0), domain.AppointmentStatusConfirmed)

	_, err := env.reviews.Create(t.Context(), clientIdentity(), domain.CreateReviewDTO{AppointmentID: 2, Score: 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stranger := domain.Identity{UserID: testOtherClientUserID, Role: domain.UserRoleClient}
	_, err = env.reviews.Create(t.Context(), stranger, domain.CreateReviewDTO{AppointmentID: 1, Score: 5})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.reviews.Create(t.Context(), clientIdentity(), domain.CreateReviewDTO{AppointmentID: 1, Score: 6})
	assert.ErrorIs(t, err, domain.ErrValidation)

	review, err := env.reviews.Create(t.Context(), clientIdentity(), domain.CreateReviewDTO{
		AppointmentID: 1, Score: 4, Comment: "Ótimo <b>atendimento</b>",
	})
	require.NoError(t, err)
	assert.Equal(t, testEstablishmentID, review.EstablishmentID)
	assert.NotContains(t, review.Comment, "<b>")

	_, err = env.reviews.Create(t.Context(), clientIdentity(), domain.CreateReviewDTO{AppointmentID: 1, Score: 3})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = env.reviews.Update(t.Context(), stranger, review.ID, domain.UpdateReviewDTO{Score: PointerTo(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, env.reviews.Update(t.Context(), clientIdentity(), review.ID, domain.UpdateReviewDTO{Score: PointerTo(5)}))
	updated, err := env.reviews.GetByID(t.Context(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Score)

	reviews, err := env.reviews.ListByEstablishment(t.Context(), testEstablishmentID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	require.NoError(t, env.reviews.Delete(t.Context(), adminIdentity(), review.ID))
	_, err = env.reviews.GetByID(t.Context(), review.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSanitizeCommentLimit(t *testing.T) {
	_, err := sanitizeComment(strings.Repeat("á", maxCommentLength))
	assert.NoError(t, err)

	_, err = sanitizeComment(strings.Repeat("a", maxCommentLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
