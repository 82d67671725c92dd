package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roadassist/roadassist-backend/internal/logger"
)

// Hub раздаёт живые события по заявкам: позицию исполнителя в пути и смены
// статуса. Подписка ведётся на конкретную заявку; состояние заявок хаб не
// хранит и не перечитывает, он только транслирует то, что опубликовали.
type Hub struct {
	mu         sync.RWMutex
	watchers   map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan event
}

type event struct {
	requestID uuid.UUID
	payload   []byte
}

// PositionUpdate — координаты исполнителя, едущего к заявке.
type PositionUpdate struct {
	RequestID  uuid.UUID `json:"request_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// NewHub создаёт хаб трекинга.
func NewHub() *Hub {
	return &Hub{
		watchers:   make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan event, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addWatcher(client)
		case client := <-h.unregister:
			h.removeWatcher(client)
		case ev := <-h.broadcast:
			h.send(ev.requestID, ev.payload)
		}
	}
}

// Register подписывает клиента на события его заявки.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister снимает подписку.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishPosition рассылает свежую позицию исполнителя всем наблюдателям
// заявки. Поле "type" в кадре содержит имя события, "data" — нагрузку.
func (h *Hub) PublishPosition(update PositionUpdate) error {
	return h.publish(update.RequestID, "provider_position", update)
}

// PublishStatus объявляет наблюдателям новый статус заявки.
func (h *Hub) PublishStatus(requestID uuid.UUID, status string) error {
	return h.publish(requestID, "request_status", map[string]any{
		"request_id": requestID,
		"status":     status,
	})
}

func (h *Hub) publish(requestID uuid.UUID, eventType string, data any) error {
	raw, err := json.Marshal(map[string]any{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать событие: %w", err)
	}

	h.broadcast <- event{requestID: requestID, payload: raw}
	return nil
}

func (h *Hub) addWatcher(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.watchers[client.requestID]; !ok {
		h.watchers[client.requestID] = make(map[*Client]struct{})
	}
	h.watchers[client.requestID][client] = struct{}{}
}

func (h *Hub) removeWatcher(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.watchers[client.requestID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.watchers, client.requestID)
		}
	}
}

func (h *Hub) send(requestID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.watchers[requestID] {
		select {
		case client.send <- payload:
		default:
			// Медленный наблюдатель отключается, чтобы не тормозить остальных.
			go func(c *Client) {
				defer func() {
					if r := recover(); r != nil {
						logger.Log.WithField("panic", r).Error("ws: паника при закрытии клиента")
					}
				}()
				c.Close()
			}(client)
		}
	}
}
