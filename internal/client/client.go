// Package client wires the stores, dispatcher, and connection manager into
// the surface the rest of the application consumes: read-only state plus a
// narrow set of actions.
package client

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk-notify/config"
	"github.com/campusdesk/campusdesk-notify/internal/auth"
	"github.com/campusdesk/campusdesk-notify/internal/dispatch"
	"github.com/campusdesk/campusdesk-notify/internal/storage"
	"github.com/campusdesk/campusdesk-notify/internal/store"
	"github.com/campusdesk/campusdesk-notify/internal/ws"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

// Options configures optional collaborators. Zero values are valid: side
// effects default to disabled and storage to the configured SQLite file
// (or in-memory when no path is set).
type Options struct {
	Banner  dispatch.BannerChannel
	Sound   dispatch.SoundChannel
	Desktop dispatch.DesktopChannel
	// KV overrides the configured storage backend.
	KV storage.KV
}

// Client is the notification client facade.
type Client struct {
	log           *zap.SugaredLogger
	cfg           *config.Config
	kv            storage.KV
	notifications *store.NotificationStore
	prefs         *store.PreferenceStore
	dispatcher    *dispatch.Dispatcher
	manager       *ws.Manager
	identity      *auth.Context
	desktop       dispatch.DesktopChannel
}

// New builds a client from configuration. The connection is not opened
// until Start supplies an identity.
func New(cfg *config.Config, opts Options) (*Client, error) {
	kv := opts.KV
	if kv == nil {
		var err error
		kv, err = openStorage(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
	}

	notifications := store.NewNotificationStore(kv, cfg.Notifications.Cap)
	prefs := store.NewPreferenceStore(kv)
	dispatcher := dispatch.NewDispatcher(notifications, prefs, dispatch.Channels{
		Banner:  opts.Banner,
		Sound:   opts.Sound,
		Desktop: opts.Desktop,
	})

	dialURL, err := cfg.Connection.DialURL()
	if err != nil {
		kv.Close()
		return nil, err
	}

	manager := ws.NewManager(ws.Config{
		URL:             dialURL,
		CloseRetryDelay: cfg.Connection.CloseRetryDelay(),
		DialRetryDelay:  cfg.Connection.DialRetryDelay(),
		MaxAttempts:     cfg.Connection.MaxReconnectAttempts,
	})
	manager.SetFrameHandler(dispatcher.DispatchFrame)

	c := &Client{
		log:           logger.GetLogger().Named("notify_client"),
		cfg:           cfg,
		kv:            kv,
		notifications: notifications,
		prefs:         prefs,
		dispatcher:    dispatcher,
		manager:       manager,
		identity:      auth.NewContext(),
		desktop:       opts.Desktop,
	}

	// The connection lifecycle follows the identity: login connects,
	// logout tears down and stays down.
	c.identity.Watch(func(id *auth.Identity) {
		c.manager.Stop()
		if id != nil {
			c.manager.Start(*id)
		}
	})

	return c, nil
}

func openStorage(path string) (storage.KV, error) {
	if path == "" {
		return storage.NewMemory(), nil
	}
	kv, err := storage.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("opening notification storage: %w", err)
	}
	return kv, nil
}

// Start derives the identity from the configured bearer token and opens
// the push connection.
func (c *Client) Start() error {
	id, err := auth.FromToken(c.cfg.Connection.Token)
	if err != nil {
		return fmt.Errorf("resolving identity: %w", err)
	}
	c.identity.Set(id)
	return nil
}

// Logout clears the identity, closing the connection and cancelling any
// pending reconnect.
func (c *Client) Logout() {
	c.identity.Set(nil)
}

// Close shuts the client down: connection first, then storage.
func (c *Client) Close() error {
	c.manager.Stop()
	return c.kv.Close()
}

// Notifications returns the stored notifications, newest first.
func (c *Client) Notifications() []types.Notification {
	return c.notifications.All()
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount() int {
	return c.notifications.UnreadCount()
}

// IsConnected reports whether the push connection is live.
func (c *Client) IsConnected() bool {
	return c.manager.Connected()
}

// ConnectionState returns the connection lifecycle state.
func (c *Client) ConnectionState() types.ConnectionState {
	return c.manager.State()
}

// ConnectionError returns the last connection error, or empty.
func (c *Client) ConnectionError() string {
	return c.manager.LastError()
}

// Preferences returns the current delivery preferences.
func (c *Client) Preferences() types.Preferences {
	return c.prefs.Get()
}

// OnChange registers a callback invoked after every notification store
// mutation, for consumers that render the collection.
func (c *Client) OnChange(fn func()) {
	c.notifications.Subscribe(fn)
}

// AddNotification dispatches a locally originated notification through the
// same funnel as pushed ones.
func (c *Client) AddNotification(raw dispatch.RawEvent) {
	c.dispatcher.Dispatch(raw)
}

// MarkAsRead marks one notification read.
func (c *Client) MarkAsRead(id string) {
	c.notifications.MarkAsRead(id)
}

// MarkAllAsRead marks every notification read.
func (c *Client) MarkAllAsRead() {
	c.notifications.MarkAllAsRead()
}

// RemoveNotification deletes one notification.
func (c *Client) RemoveNotification(id string) {
	c.notifications.Remove(id)
}

// ClearAll deletes every notification.
func (c *Client) ClearAll() {
	c.notifications.ClearAll()
}

// UpdatePreferences applies a shallow preference merge.
func (c *Client) UpdatePreferences(partial map[string]json.RawMessage) {
	c.prefs.Update(partial)
}

// RequestDesktopPermission asks the platform for desktop alert permission.
func (c *Client) RequestDesktopPermission() error {
	if c.desktop == nil {
		return fmt.Errorf("no desktop channel configured")
	}
	return c.desktop.Request()
}

// SendNotification serializes a notification onto the live connection for
// the given target user and/or role. When the connection is down the
// notification is delivered locally instead so the sender still sees it;
// the intended remote recipient does not, which is an accepted limitation
// of the fallback.
func (c *Client) SendNotification(n types.Notification, targetUserID, targetRole string) {
	if c.manager.Connected() {
		frame := types.OutboundFrame{
			Type:         types.FrameTypeNotification,
			TargetUserID: optionalString(targetUserID),
			TargetRole:   optionalString(targetRole),
			Notification: n,
		}
		frame.Notification.Timestamp = time.Now()

		err := c.manager.Send(frame)
		if err == nil {
			return
		}
		c.log.Warnw("Failed to write outbound notification", "error", err)
	} else {
		c.log.Warnw("Push connection down, delivering notification locally",
			"targetUserID", targetUserID,
			"targetRole", targetRole)
	}

	c.dispatcher.Dispatch(rawFromNotification(n))
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// rawFromNotification converts a typed notification back into the loose
// dispatch shape so local fallback delivery goes through normalization
// like everything else.
func rawFromNotification(n types.Notification) dispatch.RawEvent {
	raw := dispatch.RawEvent{
		ID:         n.ID,
		Type:       string(n.Type),
		Priority:   string(n.Priority),
		Title:      n.Title,
		Message:    n.Message,
		Data:       n.Data,
		Actionable: n.Actionable,
		Actions:    n.Actions,
		Link:       n.Link,
	}
	if !n.Timestamp.IsZero() {
		raw.Timestamp = n.Timestamp.Format(time.RFC3339)
	}
	return raw
}
