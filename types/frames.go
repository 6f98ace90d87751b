package types

// Frame type constants for messages exchanged on the push connection.
const (
	FrameTypeAuth         = "auth"
	FrameTypeNotification = "notification"
)

// AuthFrame is the first frame the client writes after the connection opens.
type AuthFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// OutboundFrame carries a notification to the server for delivery to a
// specific user, an entire role, or both. Nil targets mean broadcast.
type OutboundFrame struct {
	Type         string       `json:"type"`
	TargetUserID *string      `json:"targetUserId"`
	TargetRole   *string      `json:"targetRole"`
	Notification Notification `json:"notification"`
}

// ConnectionState describes the lifecycle phase of the push connection.
// Owned exclusively by the connection manager.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)
