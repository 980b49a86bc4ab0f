package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"rotexchain/core/events"
	"rotexchain/core/types"
)

const (
	wsWriteTimeout    = 10 * time.Second
	wsSubscribeBuffer = 256
)

type eventConverter interface {
	Event() *types.Event
}

func eventPayload(evt events.Event) *types.Event {
	if converter, ok := evt.(eventConverter); ok {
		return converter.Event()
	}
	return &types.Event{Type: evt.EventType()}
}

// handleEventsWS streams every committed ledger event to the client as JSON
// frames. Slow consumers are dropped by the ledger rather than back-pressuring
// operations.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.ledger == nil {
		http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	if err := s.streamEvents(r.Context(), conn); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn) error {
	id, updates := s.ledger.Subscribe(wsSubscribeBuffer)
	defer s.ledger.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	data, err := json.Marshal(eventPayload(evt))
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
