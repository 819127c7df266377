package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

func startHub(t *testing.T) *AgendaHub {
	t.Helper()

	hub := NewAgendaHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func subscribe(hub *AgendaHub, professionalID int64, buffer int) *Client {
	client := &Client{ProfessionalID: professionalID, Send: make(chan []byte, buffer), Hub: hub}
	hub.register <- client
	return client
}

func receive(t *testing.T, client *Client) ([]byte, bool) {
	t.Helper()

	select {
	case data, ok := <-client.Send:
		return data, ok
	case <-time.After(time.Second):
		t.Fatal("сообщение не получено")
		return nil, false
	}
}

func TestPublishDoesNotBlock(t *testing.T) {
	hub := NewAgendaHub(zap.NewNop())

	for i := 0; i < eventQueueSize+10; i++ {
		hub.Publish(domain.SlotEvent{Type: domain.SlotEventCreated, ProfessionalID: 1})
	}

	assert.Len(t, hub.events, eventQueueSize)
}

func TestHubRoutesByProfessional(t *testing.T) {
	hub := startHub(t)

	mine := subscribe(hub, 10, 4)
	other := subscribe(hub, 11, 4)

	at := time.Date(2030, time.March, 4, 8, 0, 0, 0, time.UTC)
	hub.Publish(domain.SlotEvent{Type: domain.SlotEventOccupied, ProfessionalID: 10, Timestamps: []time.Time{at}})

	data, ok := receive(t, mine)
	require.True(t, ok)

	var event domain.SlotEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, domain.SlotEventOccupied, event.Type)
	assert.Equal(t, int64(10), event.ProfessionalID)
	require.Len(t, event.Timestamps, 1)
	assert.True(t, event.Timestamps[0].Equal(at))

	// события обрабатываются по порядку: к этому моменту оба уже разосланы
	hub.Publish(domain.SlotEvent{Type: domain.SlotEventReleased, ProfessionalID: 10})
	_, ok = receive(t, mine)
	require.True(t, ok)
	assert.Empty(t, other.Send)
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := startHub(t)

	slow := subscribe(hub, 10, 1)
	slow.Send <- []byte("pendente")
	hub.Publish(domain.SlotEvent{Type: domain.SlotEventCreated, ProfessionalID: 10})

	data, ok := receive(t, slow)
	require.True(t, ok)
	assert.Equal(t, "pendente", string(data))

	_, ok = receive(t, slow)
	assert.False(t, ok)
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := startHub(t)

	client := subscribe(hub, 10, 1)
	hub.unregister <- client

	_, ok := receive(t, client)
	assert.False(t, ok)
}

func TestHandleWebSocketRequiresProfessional(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewAgendaHub(zap.NewNop())

	router := gin.New()
	router.GET("/ws/agenda", hub.HandleWebSocket)

	for _, query := range []string{"", "?profissional_id=abc", "?profissional_id=0"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ws/agenda"+query, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}
