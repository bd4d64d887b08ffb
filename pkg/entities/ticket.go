package entities

import (
	"fmt"
	"strings"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/custom"
)

// TicketStatus is the lifecycle state of a ticket. Transitions only move
// forward: OPEN -> ASSIGNED (optional) -> one of the terminal states.
type TicketStatus string

const (
	StatusOpen     TicketStatus = "open"
	StatusAssigned TicketStatus = "assigned"
	StatusResolved TicketStatus = "resolved"
	StatusClosed   TicketStatus = "closed"
	StatusDeleted  TicketStatus = "deleted"
)

// TicketPriority is the urgency flag of a ticket. It is orthogonal to the
// lifecycle state and may be set in any non-terminal state.
type TicketPriority string

const (
	PriorityNormal TicketPriority = "normal"
	PriorityUrgent TicketPriority = "urgent"
)

const (
	// ticketIDPrefix prefixes every display ticket ID, e.g. "TICKET-0001".
	ticketIDPrefix = "TICKET"

	// maxChannelNameLen is the transport's maximum channel name length.
	maxChannelNameLen = 100

	// unassignedHandle is the handle used in a channel name while no staff
	// member has been assigned.
	unassignedHandle = "aguardando"
)

// Ticket is a tracked support request, bound 1:1 to a dedicated channel.
// Once a ticket reaches a terminal state it is never mutated again.
type Ticket struct {
	// TicketID is the display ID, unique per guild, e.g. "TICKET-0001".
	TicketID string `json:"ticket_id" bson:"ticket_id"`

	// Sequence is the monotonic per-guild number behind TicketID.
	Sequence int `json:"sequence" bson:"sequence"`

	// GuildID is the guild the ticket belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the dedicated channel for this ticket. Unique.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// UserID is the user that opened the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// Username is the opener's username at creation time.
	Username string `json:"username" bson:"username"`

	// CategoryID is the ticket category this ticket was opened under.
	CategoryID string `json:"category_id" bson:"category_id"`

	// Status is the lifecycle state.
	Status TicketStatus `json:"status" bson:"status"`

	// Priority is the urgency flag.
	Priority TicketPriority `json:"priority" bson:"priority"`

	// AssignedTo is the staff member currently handling the ticket.
	AssignedTo string `json:"assigned_to" bson:"assigned_to"`

	// AssignedHandle is the assignee's handle, used in the channel name.
	AssignedHandle string `json:"assigned_handle" bson:"assigned_handle"`

	// AssignedAt is when the ticket was last assigned.
	AssignedAt custom.Datetime `json:"assigned_at" bson:"assigned_at"`

	// CreatedAt is when the ticket was opened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// ClosedAt is when the ticket was closed or deleted.
	ClosedAt custom.Datetime `json:"closed_at" bson:"closed_at"`

	// ResolvedAt is when the ticket was resolved.
	ResolvedAt custom.Datetime `json:"resolved_at" bson:"resolved_at"`

	// ClosedBy is the user that moved the ticket to its terminal state.
	ClosedBy string `json:"closed_by" bson:"closed_by"`

	// TranscriptURL is where the archived transcript can be found.
	TranscriptURL string `json:"transcript_url" bson:"transcript_url"`

	// Audit is the ordered trail of actions taken on the ticket.
	Audit []AuditEntry `json:"audit" bson:"audit"`

	// Metadata is opaque key-value data, e.g. the primary message ID.
	Metadata map[string]string `json:"metadata" bson:"metadata"`
}

// AuditEntry is one recorded action on a ticket.
type AuditEntry struct {
	// Action is the action taken, e.g. "assigned" or "transferred".
	Action string `json:"action" bson:"action"`

	// Actor is the user that performed the action.
	Actor string `json:"actor" bson:"actor"`

	// Detail is free-form context, e.g. the prior assignee on transfer.
	Detail string `json:"detail" bson:"detail"`

	// At is when the action happened.
	At custom.Datetime `json:"at" bson:"at"`
}

// MetaMainMessageID is the metadata key holding the ID of the ticket's
// pinned primary message.
const MetaMainMessageID = "main_message_id"

// FormatTicketID renders the display ID for a sequence number.
func FormatTicketID(sequence int) string {
	return fmt.Sprintf("%s-%04d", ticketIDPrefix, sequence)
}

// Terminal reports whether the ticket is in a terminal state. Terminal
// tickets reject every further transition.
func (t *Ticket) Terminal() bool {
	switch t.Status {
	case StatusResolved, StatusClosed, StatusDeleted:
		return true
	default:
		return false
	}
}

// Active reports whether the ticket counts towards the opener's
// per-user ticket limit.
func (t *Ticket) Active() bool {
	return t.Status == StatusOpen || t.Status == StatusAssigned
}

// ChannelName derives the channel name for the ticket's current state. It
// is recomputed on every assignment and urgency change, never persisted:
// {URG- if urgent}{category}-{assignee handle or "aguardando"}-{sequence},
// lower-cased and truncated to the transport limit.
func (t *Ticket) ChannelName() string {
	handle := t.AssignedHandle
	if handle == "" {
		handle = unassignedHandle
	}
	handle = strings.ReplaceAll(handle, " ", "")

	name := fmt.Sprintf("%s-%s-%d", t.CategoryID, handle, t.Sequence)
	if t.Priority == PriorityUrgent {
		name = "URG-" + name
	}

	name = strings.ToLower(name)
	if len(name) > maxChannelNameLen {
		name = name[:maxChannelNameLen]
	}
	return name
}
