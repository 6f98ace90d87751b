// Package dispatch is the single funnel through which every notification,
// pushed or locally raised, becomes a stored record and fans out into
// best-effort side effects gated by user preference and priority.
package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk-notify/internal/store"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

// RawEvent is the loosely-typed payload accepted by Dispatch. Unrecognized
// fields on the wire are ignored; missing fields are defaulted.
type RawEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Priority   string         `json:"priority"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Timestamp  string         `json:"timestamp"`
	Data       map[string]any `json:"data"`
	Actionable bool           `json:"actionable"`
	Actions    []types.Action `json:"actions"`
	Link       string         `json:"link"`
}

// Channels bundles the side-effect outputs. Any of them may be nil, which
// disables that channel entirely.
type Channels struct {
	Banner  BannerChannel
	Sound   SoundChannel
	Desktop DesktopChannel
}

// Dispatcher normalizes raw events and applies them: store first, side
// effects after. It never returns an error and never panics outward.
type Dispatcher struct {
	log      *zap.SugaredLogger
	metrics  *dispatcherMetrics
	store    *store.NotificationStore
	prefs    *store.PreferenceStore
	channels Channels

	// Overridable for deterministic tests.
	now   func() time.Time
	newID func() string
}

// NewDispatcher creates a dispatcher writing to notifications, gated by
// prefs, fanning out to channels.
func NewDispatcher(notifications *store.NotificationStore, prefs *store.PreferenceStore, channels Channels) *Dispatcher {
	return &Dispatcher{
		log:      logger.GetLogger().Named("dispatcher"),
		metrics:  getDispatcherMetrics(),
		store:    notifications,
		prefs:    prefs,
		channels: channels,
		now:      time.Now,
		newID:    generateID,
	}
}

// DispatchFrame decodes an inbound wire frame and dispatches it. Invalid
// JSON is dropped and logged without affecting the connection or any
// stored state.
func (d *Dispatcher) DispatchFrame(frame []byte) {
	var raw RawEvent
	if err := json.Unmarshal(frame, &raw); err != nil {
		d.metrics.droppedFrames.WithLabelValues("invalid_json").Inc()
		d.log.Warnw("Dropping malformed inbound frame",
			"error", err,
			"frameSize", len(frame))
		return
	}
	d.Dispatch(raw)
}

// Dispatch normalizes raw into a canonical notification, appends it to the
// store, then triggers side effects per the current preferences. The store
// mutation completes before any side effect runs, so a caller reading the
// store immediately after Dispatch returns always sees the new entry.
func (d *Dispatcher) Dispatch(raw RawEvent) {
	if raw.Message == "" {
		d.metrics.droppedFrames.WithLabelValues("missing_message").Inc()
		d.log.Warnw("Dropping notification without a message", "type", raw.Type)
		return
	}

	n := d.normalize(raw)
	d.store.Add(n)
	d.metrics.dispatched.WithLabelValues(string(n.Type)).Inc()

	prefs := d.prefs.Get()

	if prefs.InApp && d.channels.Banner != nil {
		d.runChannel("banner", func() error {
			return d.channels.Banner.Show(bannerFor(n))
		})
	}

	if prefs.Sound && d.channels.Sound != nil &&
		(n.Priority == types.PriorityHigh || n.Priority == types.PriorityUrgent) {
		d.runChannel("sound", func() error {
			return d.channels.Sound.Play(n)
		})
	}

	if prefs.Desktop && d.channels.Desktop != nil &&
		d.channels.Desktop.Available() && d.channels.Desktop.Granted() {
		d.runChannel("desktop", func() error {
			return d.channels.Desktop.Notify(n.Title, n.Message)
		})
	}
}

// normalize fills every missing field with its default so the rest of the
// client only ever sees complete notifications.
func (d *Dispatcher) normalize(raw RawEvent) types.Notification {
	n := types.Notification{
		ID:         raw.ID,
		Type:       types.NotificationType(raw.Type),
		Priority:   types.Priority(raw.Priority),
		Title:      raw.Title,
		Message:    raw.Message,
		Data:       raw.Data,
		Actionable: raw.Actionable,
		Actions:    raw.Actions,
		Link:       raw.Link,
	}

	if n.ID == "" {
		n.ID = d.newID()
	}
	if !n.Type.Valid() {
		n.Type = types.NotificationInfo
	}
	if !n.Priority.Valid() {
		n.Priority = types.PriorityMedium
	}
	if n.Title == "" {
		n.Title = "Notification"
	}

	n.Timestamp = d.now()
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			n.Timestamp = ts
		}
	}

	return n
}

// runChannel executes a side effect, containing both errors and panics so
// one failing channel never affects the others or the stored notification.
func (d *Dispatcher) runChannel(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.sideEffectErrors.WithLabelValues(name).Inc()
			d.log.Errorw("Side-effect channel panicked", "channel", name, "panic", r)
		}
	}()

	if err := fn(); err != nil {
		d.metrics.sideEffectErrors.WithLabelValues(name).Inc()
		d.log.Warnw("Side-effect channel failed", "channel", name, "error", err)
	}
}

// generateID builds a client-side notification id of the form
// notif-<timestamp>-<random>.
func generateID() string {
	return fmt.Sprintf("notif-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
