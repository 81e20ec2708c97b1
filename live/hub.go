package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is the wire format pushed to league rooms.
type Event struct {
	Type     string      `json:"type"`
	Payload  interface{} `json:"payload"`
	LeagueID int         `json:"league_id"`
}

// Hub fans events out to websocket clients grouped by league. Register
// and Unregister are served by Run; Publish may be called from any
// goroutine and never blocks on a slow client.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[int]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.leagueID]; !ok {
				h.rooms[client.leagueID] = make(map[*Client]bool)
			}
			h.rooms[client.leagueID][client] = true
			h.logger.Debug("websocket client joined",
				slog.Int("league_id", client.leagueID),
				slog.Int("room_size", len(h.rooms[client.leagueID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.leagueID]; ok {
				if _, okClient := room[client]; okClient {
					client.closeSend()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.leagueID)
					}
					h.logger.Debug("websocket client left",
						slog.Int("league_id", client.leagueID))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish sends an event to every client in the league's room. A client
// whose send buffer is full is skipped; the ping cycle will collect it
// if the connection is actually gone.
func (h *Hub) Publish(leagueID int, eventType string, payload interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Payload: payload, LeagueID: leagueID})
	if err != nil {
		h.logger.Error("failed to marshal websocket event",
			slog.String("type", eventType),
			slog.Int("league_id", leagueID),
			slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[leagueID] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- message:
			default:
			}
		}
		client.mu.Unlock()
	}
}
