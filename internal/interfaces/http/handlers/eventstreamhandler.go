package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bandwave/internal/domain/shared/events"
	"bandwave/internal/infrastructure/pubsub"
	"bandwave/internal/interfaces/http/middleware"
	"bandwave/internal/shared/logger"
	"bandwave/internal/shared/utils"
)

const sseKeepaliveInterval = 30 * time.Second

// EventStreamHandler serves lifecycle events over SSE. Customers stream
// their own events; admins stream everything.
type EventStreamHandler struct {
	hub    *pubsub.Hub
	logger logger.Interface
}

func NewEventStreamHandler(hub *pubsub.Hub, logger logger.Interface) *EventStreamHandler {
	return &EventStreamHandler{
		hub:    hub,
		logger: logger,
	}
}

// Stream handles GET /events/stream.
func (h *EventStreamHandler) Stream(c *gin.Context) {
	a := middleware.GetActor(c)

	var (
		ch     <-chan events.Event
		cancel func()
	)
	if a.IsAdmin() {
		ch, cancel = h.hub.SubscribeAdmin()
	} else {
		ch, cancel = h.hub.Subscribe(a.ID)
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if _, err := c.Writer.WriteString(": connected\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	h.logger.Debugw("event stream opened",
		"actor", a.String(),
		"customer_id", a.ID,
	)

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			h.logger.Debugw("event stream closed by client", "customer_id", a.ID)
			return

		case <-keepalive.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()

		case event, ok := <-ch:
			if !ok {
				return
			}
			if !h.writeEvent(c, event) {
				return
			}
		}
	}
}

func (h *EventStreamHandler) writeEvent(c *gin.Context, event events.Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warnw("failed to marshal event for stream",
			"event_id", event.ID,
			"error", err,
		)
		return true
	}

	if _, err := c.Writer.WriteString("event: " + event.Type.String() + "\n"); err != nil {
		return false
	}
	if _, err := c.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}

// Health handles GET /events/health, reporting attached stream counts.
func (h *EventStreamHandler) Health(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"subscribers": h.hub.SubscriberCount(),
	})
}
