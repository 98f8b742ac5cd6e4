package i

import "github.com/google/uuid"

// Caller is one authenticated real-time connection.
type Caller interface {
	// ConnID identifies the connection.
	ConnID() string

	// UserID is the verified identity attached to the connection.
	UserID() uuid.UUID

	// Send unicasts a named event to this connection only.
	Send(event string, payload any) error
}

// GroupTransport delivers named events to groups of connections.
type GroupTransport interface {
	// Join adds the caller to a named group.
	Join(group string, c Caller)

	// Leave removes the caller from a named group.
	Leave(group string, c Caller)

	// Broadcast sends an event to every member of a group.
	Broadcast(group, event string, payload any)

	// BroadcastOthers sends an event to every member of a group except the sender.
	BroadcastOthers(group string, sender Caller, event string, payload any)
}
