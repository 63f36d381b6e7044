package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/events"
)

// StreamHandler serves the live ticket event feed over Server-Sent
// Events. Clients reconcile against GET /api/tickets on (re)connect;
// the stream carries no history.
type StreamHandler struct {
	broadcaster events.Broadcaster
	heartbeat   time.Duration
	logger      *zap.Logger
}

// NewStreamHandler constructs handler.
func NewStreamHandler(broadcaster events.Broadcaster, heartbeat time.Duration, logger *zap.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &StreamHandler{broadcaster: broadcaster, heartbeat: heartbeat, logger: logger}
}

// Stream GET /api/tickets/stream.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sub := h.broadcaster.Subscribe(events.TopicTickets)
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case event, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeEvent(w, event); err != nil {
					h.logger.Debug("stream subscriber disconnected", zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, event events.Event) error {
	payload, err := json.Marshal(event.Ticket)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return err
	}
	return w.Flush()
}
