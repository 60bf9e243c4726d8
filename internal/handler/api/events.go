package api

import (
	"encoding/json"
	"io"
	"net/http"

	"biblio/internal/handler/middleware"
	"biblio/internal/notifier"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventsHandler struct {
	changes *notifier.ChangeNotifier
}

func NewEventsHandler(changes *notifier.ChangeNotifier) *EventsHandler {
	return &EventsHandler{
		changes: changes,
	}
}

// @Summary Subscribe to change events
// @Description Server-sent event stream of the caller's reservation changes, optionally plus one resource's inventory
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Param resourceId query string false "Also stream inventory changes for this resource"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	topics := []notifier.Topic{notifier.UserTopic(userID)}
	if raw := c.Query("resourceId"); raw != "" {
		resourceID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid resource ID format",
			})
			return
		}
		topics = append(topics, notifier.ResourceTopic(resourceID))
	}

	sub := h.changes.Subscribe(topics...)
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-sub.C:
			if !open {
				return false
			}
			data, err := json.Marshal(ev)
			if err != nil {
				return true
			}
			c.SSEvent(ev.Kind, string(data))
			return true
		}
	})
}
