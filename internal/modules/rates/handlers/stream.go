package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/asteway/birrfolio/internal/modules/rates"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// streamInterval is how often the stream pushes a fresh quote set.
const streamInterval = 5 * time.Second

// streamPayload is one websocket frame.
type streamPayload struct {
	Type        string           `json:"type"`
	Rates       []rates.FiatRate `json:"rates"`
	LastUpdated string           `json:"lastUpdated"`
}

// HandleStream upgrades to a websocket and pushes fiat quotes every few
// seconds until the client goes away.
// GET /api/rates/stream
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Dashboard clients connect from a different origin in dev
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := r.Context()
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("Rate stream opened")

	// Send an initial frame so the client does not wait a full tick
	if err := h.pushRates(ctx, conn); err != nil {
		return
	}

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.pushRates(ctx, conn); err != nil {
				h.log.Debug().Err(err).Msg("Rate stream closed")
				return
			}
		}
	}
}

func (h *Handler) pushRates(ctx context.Context, conn *websocket.Conn) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return wsjson.Write(writeCtx, conn, streamPayload{
		Type:        "rates",
		Rates:       h.service.FiatRates(),
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
}
