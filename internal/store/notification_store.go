// Package store holds the client's notification collection and user
// preferences, each owned by exactly one store with write-through
// persistence to the durable key/value layer.
package store

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk-notify/internal/storage"
	"github.com/campusdesk/campusdesk-notify/logger"
	"github.com/campusdesk/campusdesk-notify/types"
)

// DefaultCap is the maximum number of notifications retained.
const DefaultCap = 100

// NotificationStore is the sole owner of the notification collection.
// Notifications are kept newest first and capped; every mutation replaces
// the whole slice and is written through to durable storage.
type NotificationStore struct {
	log *zap.SugaredLogger
	kv  storage.KV
	cap int

	mu            sync.RWMutex
	notifications []types.Notification
	unread        int
	subscribers   []func()
}

// NewNotificationStore creates a store backed by kv, loading any persisted
// notifications. A capacity <= 0 falls back to DefaultCap. Corrupt persisted
// state is logged and discarded rather than failing construction.
func NewNotificationStore(kv storage.KV, capacity int) *NotificationStore {
	if capacity <= 0 {
		capacity = DefaultCap
	}

	s := &NotificationStore{
		log: logger.GetLogger().Named("notification_store"),
		kv:  kv,
		cap: capacity,
	}
	s.load()
	return s
}

func (s *NotificationStore) load() {
	data, ok, err := s.kv.Get(storage.KeyNotifications)
	if err != nil {
		s.log.Warnw("Failed to load persisted notifications", "error", err)
		return
	}
	if !ok {
		return
	}

	var loaded []types.Notification
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warnw("Discarding corrupt persisted notifications", "error", err)
		return
	}

	if len(loaded) > s.cap {
		loaded = loaded[:s.cap]
	}
	s.notifications = loaded
	s.unread = countUnread(loaded)
}

// Subscribe registers a callback invoked after every mutation. Callbacks
// run synchronously on the mutating goroutine, outside the store lock.
func (s *NotificationStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Add prepends a notification, evicting the oldest entry once the cap is
// exceeded.
func (s *NotificationStore) Add(n types.Notification) {
	s.mu.Lock()
	next := make([]types.Notification, 0, len(s.notifications)+1)
	next = append(next, n)
	next = append(next, s.notifications...)
	if len(next) > s.cap {
		next = next[:s.cap]
	}
	s.replaceLocked(next)
	s.mu.Unlock()
	s.notifySubscribers()
}

// MarkAsRead sets read=true on the notification with the given id.
// Marking an already-read or missing notification is a no-op.
func (s *NotificationStore) MarkAsRead(id string) {
	s.mu.Lock()
	next := make([]types.Notification, len(s.notifications))
	copy(next, s.notifications)
	for i := range next {
		if next[i].ID == id {
			next[i].Read = true
			break
		}
	}
	s.replaceLocked(next)
	s.mu.Unlock()
	s.notifySubscribers()
}

// MarkAllAsRead sets read=true on every notification.
func (s *NotificationStore) MarkAllAsRead() {
	s.mu.Lock()
	next := make([]types.Notification, len(s.notifications))
	copy(next, s.notifications)
	for i := range next {
		next[i].Read = true
	}
	s.replaceLocked(next)
	s.mu.Unlock()
	s.notifySubscribers()
}

// Remove deletes the notification with the given id, if present.
func (s *NotificationStore) Remove(id string) {
	s.mu.Lock()
	next := make([]types.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.ID != id {
			next = append(next, n)
		}
	}
	s.replaceLocked(next)
	s.mu.Unlock()
	s.notifySubscribers()
}

// ClearAll removes every notification.
func (s *NotificationStore) ClearAll() {
	s.mu.Lock()
	s.replaceLocked(nil)
	s.mu.Unlock()
	s.notifySubscribers()
}

// All returns a copy of the collection, newest first.
func (s *NotificationStore) All() []types.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Unread returns the unread notifications, newest first.
func (s *NotificationStore) Unread() []types.Notification {
	return s.filter(func(n types.Notification) bool { return !n.Read })
}

// ByType returns the notifications of the given type, newest first.
func (s *NotificationStore) ByType(t types.NotificationType) []types.Notification {
	return s.filter(func(n types.Notification) bool { return n.Type == t })
}

// ByPriority returns the notifications of the given priority, newest first.
func (s *NotificationStore) ByPriority(p types.Priority) []types.Notification {
	return s.filter(func(n types.Notification) bool { return n.Priority == p })
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the number of stored notifications.
func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

func (s *NotificationStore) filter(keep func(types.Notification) bool) []types.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// replaceLocked swaps in a new collection, recomputes the unread counter,
// and writes through to durable storage. Persistence failures are logged,
// never surfaced; the in-memory state is authoritative for this session.
func (s *NotificationStore) replaceLocked(next []types.Notification) {
	s.notifications = next
	s.unread = countUnread(next)

	data, err := json.Marshal(next)
	if err != nil {
		s.log.Errorw("Failed to encode notifications for persistence", "error", err)
		return
	}
	if err := s.kv.Set(storage.KeyNotifications, data); err != nil {
		s.log.Warnw("Failed to persist notifications", "error", err)
	}
}

func (s *NotificationStore) notifySubscribers() {
	s.mu.RLock()
	subscribers := make([]func(), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn()
	}
}

func countUnread(notifications []types.Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count
}
