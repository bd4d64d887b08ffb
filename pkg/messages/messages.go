package messages

import "strings"

const (
	// ErrUserErrorProcessing is the generic message sent to a user when
	// processing their interaction fails.
	ErrUserErrorProcessing = "Something went wrong processing that, please try again"

	// ErrUserNotRecognized is sent when an interaction does not match any
	// registered handler.
	ErrUserNotRecognized = "That interaction was not recognized"

	// ErrUserNoPermission is sent when a user lacks the support role for an
	// action.
	ErrUserNoPermission = "You do not have permission to use this"
)

const (
	// DefaultWelcome is the default welcome message for a new ticket.
	DefaultWelcome = "Hello {user}, this is your ticket. A member of staff will be with you shortly; in the meantime, please describe your issue in as much detail as you can."

	// DefaultTicketCreated is the default confirmation for a created ticket.
	DefaultTicketCreated = "Your ticket has been opened in {channel}"

	// DefaultTicketClosed is the default message for a closed ticket.
	DefaultTicketClosed = "Ticket closed by {user}"

	// DefaultAlreadyHasTicket is the default message for a user at their
	// open-ticket limit.
	DefaultAlreadyHasTicket = "You already have an open ticket"
)

// Render substitutes the {user} and {channel} placeholders in a message
// template with Discord mentions for the given IDs.
func Render(template, userID, channelID string) string {
	s := strings.ReplaceAll(template, "{user}", "<@"+userID+">")
	s = strings.ReplaceAll(s, "{channel}", "<#"+channelID+">")
	return s
}
