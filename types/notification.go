package types

import "time"

// NotificationType classifies a notification. Unknown types received from
// the server are normalized to NotificationInfo by the dispatcher.
type NotificationType string

const (
	NotificationSuccess         NotificationType = "success"
	NotificationError           NotificationType = "error"
	NotificationInfo            NotificationType = "info"
	NotificationWarning         NotificationType = "warning"
	NotificationComplaintUpdate NotificationType = "complaint_update"
	NotificationNewComplaint    NotificationType = "new_complaint"
	NotificationAssignment      NotificationType = "assignment"
	NotificationReminder        NotificationType = "reminder"
	NotificationEscalation      NotificationType = "escalation"
	NotificationResolution      NotificationType = "resolution"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationSuccess, NotificationError, NotificationInfo,
		NotificationWarning, NotificationComplaintUpdate, NotificationNewComplaint,
		NotificationAssignment, NotificationReminder, NotificationEscalation,
		NotificationResolution:
		return true
	}
	return false
}

// Priority indicates how aggressively a notification should be surfaced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Action is a single follow-up a notification offers the user.
type Action struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	Link   string `json:"link,omitempty"`
}

// Notification is the canonical notification record held by the store and
// exchanged over the push connection.
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	Priority   Priority         `json:"priority"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Timestamp  time.Time        `json:"timestamp"`
	Read       bool             `json:"read"`
	Data       map[string]any   `json:"data,omitempty"`
	Actionable bool             `json:"actionable,omitempty"`
	Actions    []Action         `json:"actions,omitempty"`
	Link       string           `json:"link,omitempty"`
}
