package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

// NotificationHandler serves the in-app inbox that the event
// dispatcher writes to: waitlist offers, booking confirmations and
// similar messages.  Available to both roles.
type NotificationHandler struct {
	Store store.Store
}

func NewNotificationHandler(st store.Store) *NotificationHandler {
	if st == nil {
		panic("nil store passed to NewNotificationHandler")
	}
	return &NotificationHandler{Store: st}
}

type notificationResp struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResp(n *model.Notification) notificationResp {
	return notificationResp{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Kind:      string(n.Kind),
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List handles GET /v1/notifications.  It returns the user's
// notifications, newest first.  The optional ?limit= parameter caps
// the page size (default 50, max 200).
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}
	list, err := h.Store.Notifications().ListByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load notifications"})
	}
	items := make([]notificationResp, 0, len(list))
	for i := range list {
		items = append(items, toNotificationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkRead handles POST /v1/notifications/:id/read.  It marks one of
// the user's notifications as read; 404 when the notification does
// not exist or belongs to someone else.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}
	if err := h.Store.Notifications().MarkRead(c.Request().Context(), id, userID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
