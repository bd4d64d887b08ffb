package gateway

import "context"

// AccessType is the kind of principal an access grant applies to.
type AccessType int

const (
	// AccessRole grants access to a role.
	AccessRole AccessType = iota

	// AccessMember grants access to a single member.
	AccessMember
)

// AccessGrant scopes a channel to a principal with explicit allow and deny
// permission bits.
type AccessGrant struct {
	// ID is the role or member ID.
	ID string

	// Type is the kind of principal.
	Type AccessType

	// Allow is the allowed permission bits.
	Allow int64

	// Deny is the denied permission bits.
	Deny int64
}

// Gateway is the outbound surface to the messaging gateway. The lifecycle
// and configuration components receive it as an explicit dependency; nothing
// reaches into shared global state for a session.
type Gateway interface {
	// CreateChannel creates a channel under the given parent, scoped to
	// the given grants, and returns its ID.
	CreateChannel(guildID, parentID, name string, grants []AccessGrant) (string, error)

	// RenameChannel renames the channel.
	RenameChannel(channelID, name string) error

	// DeleteChannel deletes the channel.
	DeleteChannel(channelID string) error

	// SendMessage sends a message to the channel and returns the message ID.
	SendMessage(channelID, content string) (string, error)

	// PinMessage pins a message in its channel.
	PinMessage(channelID, messageID string) error

	// SendDirectMessage sends a direct message to the user.
	SendDirectMessage(userID, content string) error
}

// Artifact is a captured transcript.
type Artifact struct {
	// TicketID is the ticket the transcript belongs to.
	TicketID string

	// URL is where the archived transcript can be retrieved.
	URL string

	// Messages is the number of messages captured.
	Messages int
}

// TranscriptArchiver captures a rendering of a ticket channel's history.
// Failure to capture is non-fatal to the caller's transition; callers log a
// warning and carry on.
type TranscriptArchiver interface {
	// Capture archives the channel's history and returns the artifact.
	Capture(ctx context.Context, guildID, channelID, ticketID string) (*Artifact, error)
}

// Event is a lifecycle event published to the guild's log destination.
type Event struct {
	// Action is the lifecycle action, e.g. "created" or "closed".
	Action string

	// TicketID is the ticket the event concerns.
	TicketID string

	// ChannelID is the ticket's channel.
	ChannelID string

	// UserID is the actor.
	UserID string

	// Detail is free-form context.
	Detail string
}

// NotificationSink publishes lifecycle events. Publishing is best-effort: a
// missing or unreachable destination degrades to a local warning and is
// never surfaced to the caller.
type NotificationSink interface {
	Publish(ctx context.Context, guildID string, event Event)
}
