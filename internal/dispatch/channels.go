package dispatch

import (
	"time"

	"github.com/campusdesk/campusdesk-notify/types"
)

// BannerStyle selects the visual tone of an ephemeral banner.
type BannerStyle string

const (
	BannerError   BannerStyle = "error"
	BannerSuccess BannerStyle = "success"
	BannerNeutral BannerStyle = "neutral"
)

// defaultBannerDuration applies to priorities without an explicit duration.
const defaultBannerDuration = 4 * time.Second

// Banner is an ephemeral in-app notice derived from a notification's
// priority.
type Banner struct {
	Notification types.Notification
	Style        BannerStyle
	Duration     time.Duration
	Icon         string
}

// BannerChannel displays ephemeral in-app banners. Implementations are
// best-effort; errors are logged by the dispatcher and never propagated.
type BannerChannel interface {
	Show(b Banner) error
}

// SoundChannel plays an audible alert for high and urgent notifications.
type SoundChannel interface {
	Play(n types.Notification) error
}

// DesktopChannel raises platform desktop alerts, subject to a permission
// model the platform may impose.
type DesktopChannel interface {
	// Available reports whether the platform capability exists at all.
	Available() bool
	// Granted reports whether permission to notify is currently granted.
	Granted() bool
	// Request asks the platform for permission to notify.
	Request() error
	// Notify raises a desktop alert.
	Notify(title, message string) error
}

// bannerFor maps a notification's priority to banner style, duration, and
// an at-a-glance icon.
func bannerFor(n types.Notification) Banner {
	b := Banner{Notification: n, Duration: defaultBannerDuration}
	switch n.Priority {
	case types.PriorityUrgent:
		b.Style = BannerError
		b.Duration = 6 * time.Second
		b.Icon = "🚨"
	case types.PriorityHigh:
		b.Style = BannerError
		b.Duration = 5 * time.Second
		b.Icon = "⚠️"
	case types.PriorityMedium:
		b.Style = BannerSuccess
		b.Icon = "ℹ️"
	default:
		b.Style = BannerNeutral
		b.Icon = "🔔"
	}
	return b
}
