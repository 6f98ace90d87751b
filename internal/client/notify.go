package client

import (
	"fmt"

	"github.com/campusdesk/campusdesk-notify/internal/dispatch"
	"github.com/campusdesk/campusdesk-notify/types"
)

// Typed convenience constructors. Each builds a complaint-domain payload
// and hands it to the dispatcher; they are thin sugar over AddNotification.

// NotifyComplaintUpdated raises a notification that a complaint's status
// changed.
func (c *Client) NotifyComplaintUpdated(complaintID, status string) {
	c.dispatcher.Dispatch(dispatch.RawEvent{
		Type:     string(types.NotificationComplaintUpdate),
		Title:    "Complaint updated",
		Message:  fmt.Sprintf("Complaint #%s is now %s", complaintID, status),
		Data:     map[string]any{"complaintId": complaintID, "status": status},
		Link:     complaintLink(complaintID),
		Priority: string(types.PriorityMedium),
	})
}

// NotifyNewComplaint raises a notification that a complaint was submitted.
func (c *Client) NotifyNewComplaint(complaintID, category string) {
	c.dispatcher.Dispatch(dispatch.RawEvent{
		Type:     string(types.NotificationNewComplaint),
		Title:    "New complaint",
		Message:  fmt.Sprintf("A new %s complaint #%s was submitted", category, complaintID),
		Data:     map[string]any{"complaintId": complaintID, "category": category},
		Link:     complaintLink(complaintID),
		Priority: string(types.PriorityMedium),
	})
}

// NotifyAssignment raises a high-priority notification that a complaint
// was assigned to the current user.
func (c *Client) NotifyAssignment(complaintID, assignedBy string) {
	c.dispatcher.Dispatch(dispatch.RawEvent{
		Type:     string(types.NotificationAssignment),
		Title:    "Complaint assigned",
		Message:  fmt.Sprintf("Complaint #%s was assigned to you by %s", complaintID, assignedBy),
		Data:     map[string]any{"complaintId": complaintID, "assignedBy": assignedBy},
		Link:     complaintLink(complaintID),
		Priority: string(types.PriorityHigh),
	})
}

// NotifyEscalation raises an urgent notification that a complaint was
// escalated.
func (c *Client) NotifyEscalation(complaintID, reason string) {
	c.dispatcher.Dispatch(dispatch.RawEvent{
		Type:     string(types.NotificationEscalation),
		Title:    "Complaint escalated",
		Message:  fmt.Sprintf("Complaint #%s was escalated: %s", complaintID, reason),
		Data:     map[string]any{"complaintId": complaintID, "reason": reason},
		Link:     complaintLink(complaintID),
		Priority: string(types.PriorityUrgent),
	})
}

// NotifyResolution raises a notification that a complaint was resolved.
func (c *Client) NotifyResolution(complaintID string) {
	c.dispatcher.Dispatch(dispatch.RawEvent{
		Type:     string(types.NotificationResolution),
		Title:    "Complaint resolved",
		Message:  fmt.Sprintf("Complaint #%s has been resolved", complaintID),
		Data:     map[string]any{"complaintId": complaintID},
		Link:     complaintLink(complaintID),
		Priority: string(types.PriorityMedium),
	})
}

// NotifyReminder raises a low-priority reminder about a pending complaint.
func (c *Client) NotifyReminder(complaintID, detail string) {
	c.dispatcher.Dispatch(dispatch.RawEvent{
		Type:     string(types.NotificationReminder),
		Title:    "Reminder",
		Message:  fmt.Sprintf("Complaint #%s is still pending: %s", complaintID, detail),
		Data:     map[string]any{"complaintId": complaintID},
		Link:     complaintLink(complaintID),
		Priority: string(types.PriorityLow),
	})
}

func complaintLink(complaintID string) string {
	return "/complaints/" + complaintID
}
