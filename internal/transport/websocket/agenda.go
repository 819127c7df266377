package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 64
	eventQueueSize = 256
)

// Client - подписчик агенды одного профессионала.
type Client struct {
	ProfessionalID int64
	Conn           *websocket.Conn
	Send           chan []byte
	Hub            *AgendaHub
}

// AgendaHub рассылает изменения слотов подписчикам агенды профессионала.
type AgendaHub struct {
	// подписчики по ID профессионала
	clients map[int64]map[*Client]struct{}

	events     chan domain.SlotEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *zap.Logger
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func NewAgendaHub(logger *zap.Logger) *AgendaHub {
	return &AgendaHub{
		clients:    make(map[int64]map[*Client]struct{}),
		events:     make(chan domain.SlotEvent, eventQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Publish не блокирует: при переполненной очереди событие отбрасывается.
func (h *AgendaHub) Publish(event domain.SlotEvent) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("очередь событий агенды переполнена, событие отброшено",
			zap.String("type", string(event.Type)),
			zap.Int64("professional_id", event.ProfessionalID))
	}
}

// Run обслуживает подписки до отмены ctx.
func (h *AgendaHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, subscribers := range h.clients {
				for client := range subscribers {
					close(client.Send)
				}
			}
			h.clients = make(map[int64]map[*Client]struct{})
			return

		case client := <-h.register:
			subscribers, ok := h.clients[client.ProfessionalID]
			if !ok {
				subscribers = make(map[*Client]struct{})
				h.clients[client.ProfessionalID] = subscribers
			}
			subscribers[client] = struct{}{}
			h.logger.Debug("подписчик агенды подключен", zap.Int64("professional_id", client.ProfessionalID))

		case client := <-h.unregister:
			h.remove(client)

		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *AgendaHub) remove(client *Client) {
	subscribers, ok := h.clients[client.ProfessionalID]
	if !ok {
		return
	}
	if _, ok := subscribers[client]; !ok {
		return
	}

	delete(subscribers, client)
	close(client.Send)
	if len(subscribers) == 0 {
		delete(h.clients, client.ProfessionalID)
	}
	h.logger.Debug("подписчик агенды отключен", zap.Int64("professional_id", client.ProfessionalID))
}

func (h *AgendaHub) broadcast(event domain.SlotEvent) {
	subscribers := h.clients[event.ProfessionalID]
	if len(subscribers) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ошибка сериализации события агенды", zap.Error(err))
		return
	}

	for client := range subscribers {
		select {
		case client.Send <- data:
		default:
			// медленный подписчик отключается, клиент переподключится и перечитает агенду
			h.logger.Warn("буфер подписчика переполнен, соединение закрывается",
				zap.Int64("professional_id", client.ProfessionalID))
			h.remove(client)
		}
	}
}

// HandleWebSocket подписывает на агенду: /ws/agenda?profissional_id=N.
func (h *AgendaHub) HandleWebSocket(c *gin.Context) {
	professionalID, err := strconv.ParseInt(c.Query("profissional_id"), 10, 64)
	if err != nil || professionalID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "profissional_id inválido"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ошибка апгрейда соединения", zap.Error(err))
		return
	}

	client := &Client{
		ProfessionalID: professionalID,
		Conn:           conn,
		Send:           make(chan []byte, sendBufferSize),
		Hub:            h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump только следит за закрытием соединения: входящие сообщения не нужны.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("ошибка websocket", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Warn("ошибка записи в websocket",
					zap.Int64("professional_id", c.ProfessionalID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
