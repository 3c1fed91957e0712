package controllers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/streeteats-connect/api/middleware"
	"github.com/angelmondragon/streeteats-connect/api/responses"
	"github.com/angelmondragon/streeteats-connect/api/validators"
	"github.com/angelmondragon/streeteats-connect/internal/notifications"
	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

const defaultNotificationLimit = 10

type notificationView struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	ActionURL *string    `json:"action_url,omitempty"`
	Icon      string     `json:"icon"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toNotificationView(n models.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Type:      string(n.Type),
		Priority:  string(n.Priority),
		Title:     n.Title,
		Message:   n.Message,
		ActionURL: n.ActionURL,
		Icon:      notifications.Icon(n.Type),
		IsRead:    n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationPopup renders the HTML fragment for the header bell.
func NotificationPopup(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		var buf bytes.Buffer
		if err := notifications.RenderPopup(r.Context(), svc, &buf, middleware.SessionKeyFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteHTML(w, http.StatusOK, buf.Bytes())
	}
}

// ListNotifications returns a page of the session's notifications.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultNotificationLimit, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := notifications.ListParams{
			Recipient: middleware.SessionKeyFromContext(r.Context()),
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		params.UnreadOnly, err = validators.ParseQueryBool(r, "unreadOnly", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]notificationView, 0, len(result.Items))
		for _, n := range result.Items {
			views = append(views, toNotificationView(n))
		}
		responses.WriteSuccess(w, map[string]any{
			"notifications": views,
			"unread_count":  result.UnreadCount,
			"cursor":        result.Cursor,
		})
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		nid, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "notificationId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}
		if err := svc.MarkRead(r.Context(), middleware.SessionKeyFromContext(r.Context()), nid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		updated, err := svc.MarkAllRead(r.Context(), middleware.SessionKeyFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
