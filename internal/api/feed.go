package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// MessageType tags a feed message.
type MessageType string

const (
	MessageTypeLogs MessageType = "logs"
	MessageTypeSync MessageType = "sync"
)

// Message is one feed frame. Data holds the entries (newest first) for
// MessageTypeLogs and the SyncState for MessageTypeSync.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	feedBuffer       = 64
	feedWriteTimeout = 5 * time.Second
)

// Feed upgrades to a websocket and streams every logs and sync
// notification, starting with the current values. A client that falls
// more than feedBuffer frames behind is disconnected.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "err", err)
		return
	}
	defer conn.CloseNow()

	// the client never sends; CloseRead handles control frames and cancels
	// ctx once it goes away
	ctx := conn.CloseRead(r.Context())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var slow atomic.Bool
	frames := make(chan Message, feedBuffer)
	enqueue := func(t MessageType, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		select {
		case frames <- Message{Type: t, Data: data}:
		default:
			slow.Store(true)
			cancel()
		}
	}

	unsubLogs := h.store.Subscribe(func(entries []models.LogEntry) { enqueue(MessageTypeLogs, entries) })
	defer unsubLogs()
	unsubSync := h.store.SubscribeSync(func(st models.SyncState) { enqueue(MessageTypeSync, st) })
	defer unsubSync()

	h.log.Debug(ctx, "feed client connected")

	for {
		select {
		case <-ctx.Done():
			if slow.Load() {
				_ = conn.Close(websocket.StatusPolicyViolation, "feed client too slow")
			}
			return
		case msg := <-frames:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			wctx, wcancel := context.WithTimeout(ctx, feedWriteTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				h.log.Debug(ctx, "feed client gone", "err", err)
				return
			}
		}
	}
}
