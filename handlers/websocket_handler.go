package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/league-rating-system/live"
	"github.com/Dosada05/league-rating-system/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict Origin once the frontend domain is fixed.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub           *live.Hub
	leagueService services.LeagueService
}

func NewWebSocketHandler(hub *live.Hub, leagueService services.LeagueService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, leagueService: leagueService}
}

// ServeWs upgrades the connection and subscribes the client to the
// league's event room.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.leagueService.GetByID(r.Context(), leagueID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		slog.Debug("websocket upgrade failed",
			slog.Int("league_id", leagueID),
			slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, leagueID)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
