package notifications

import (
	"context"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/angelmondragon/streeteats-connect/pkg/enums"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
)

var typeIcons = map[enums.NotificationType]string{
	enums.NotificationTypeOrderPlaced:    "fa-shopping-cart",
	enums.NotificationTypeOrderConfirmed: "fa-check-circle",
	enums.NotificationTypeOrderShipped:   "fa-truck",
	enums.NotificationTypeOrderDelivered: "fa-box-open",
	enums.NotificationTypeOrderCancelled: "fa-times-circle",
	enums.NotificationTypeSystem:         "fa-bullhorn",
}

// Icon returns the font-awesome class used for a notification type.
func Icon(t enums.NotificationType) string {
	if icon, ok := typeIcons[t]; ok {
		return icon
	}
	return "fa-bell"
}

var popupTemplate = template.Must(template.New("popup").Funcs(template.FuncMap{
	"icon":   Icon,
	"ago":    timeAgo,
	"isRead": func(n models.Notification) bool { return n.IsRead() },
}).Parse(`<div class="notification-popup" data-unread-count="{{.UnreadCount}}">
  <div class="notification-popup-header">
    <span>Notifications</span>{{if .UnreadCount}} <span class="badge">{{.UnreadCount}}</span>{{end}}
  </div>
{{- if .Notifications}}
  <ul class="notification-list">
{{- range .Notifications}}
    <li class="notification-item notification-{{.Priority}}{{if not (isRead .)}} unread{{end}}" data-id="{{.ID}}">
      <i class="fas {{icon .Type}}"></i>
      <div class="notification-body">
        <strong>{{.Title}}</strong>
        <p>{{.Message}}</p>
        <small>{{ago .CreatedAt}}</small>
      </div>
{{- if .ActionURL}}
      <a class="notification-action" href="{{.ActionURL}}">View</a>
{{- end}}
    </li>
{{- end}}
  </ul>
{{- else}}
  <p class="notification-empty">No notifications yet.</p>
{{- end}}
</div>
`))

// RenderPopup writes the popup fragment for recipient.
func RenderPopup(ctx context.Context, svc Service, w io.Writer, recipient string) error {
	data, err := svc.Popup(ctx, recipient)
	if err != nil {
		return err
	}
	if err := popupTemplate.Execute(w, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render notification popup")
	}
	return nil
}

var agoClock = time.Now

func timeAgo(t time.Time) string {
	d := agoClock().Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	default:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
