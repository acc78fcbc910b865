package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/trogers1052/skill-exchange-service/internal/models"
	"github.com/trogers1052/skill-exchange-service/internal/redis"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// MessageStream delivers messages posted to one trade.
type MessageStream interface {
	Messages() <-chan *models.Message
	Close() error
}

// Subscriber opens a live stream for a trade's conversation.
type Subscriber interface {
	Subscribe(ctx context.Context, tradeID uuid.UUID) (MessageStream, error)
}

// RedisSubscriber adapts the Redis pub/sub client to Subscriber.
type RedisSubscriber struct {
	Client *redis.Client
}

func (s RedisSubscriber) Subscribe(ctx context.Context, tradeID uuid.UUID) (MessageStream, error) {
	sub, err := s.Client.SubscribeTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamMessages handles GET /trades/{id}/messages/stream. Participants of a
// trade in a messaging status receive every new message as a JSON frame.
func (h *Handler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	tradeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if h.streams == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "live messages are not configured"})
		return
	}
	if _, err := h.messages.Open(r.Context(), tradeID, userID); err != nil {
		h.respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := h.streams.Subscribe(ctx, tradeID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "trade_id", tradeID, "error", err)
		return
	}
	defer conn.Close()

	log := h.log.WithUser(userID)
	log.Info("message stream opened", "trade_id", tradeID)

	// Client frames are ignored. The read loop only tracks pongs and closes.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("message stream read error", "trade_id", tradeID, "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn("message stream write failed", "trade_id", tradeID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Info("message stream closed", "trade_id", tradeID)
			return
		}
	}
}
