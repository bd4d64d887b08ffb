package main

import (
	"errors"
	"fmt"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/messages"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/router"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/ticketing"
)

// actorFromEvent builds the lifecycle actor for the user behind an event.
func actorFromEvent(ev *router.Event) ticketing.Actor {
	return ticketing.Actor{
		UserID:   ev.UserID,
		Username: ev.Username,
		RoleIDs:  ev.MemberRoles,
	}
}

// userMessage maps a domain error onto the message shown to the user. The
// second return is false when the error is not user-facing and should be
// propagated instead.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, entities.ErrSystemDisabled):
		return "Ticketing is not enabled on this server", true
	case errors.Is(err, entities.ErrCategoryDisabled):
		return "That category is currently disabled", true
	case errors.Is(err, entities.ErrLimitExceeded):
		return messages.DefaultAlreadyHasTicket, true
	case errors.Is(err, entities.ErrPermissionDenied):
		return messages.ErrUserNoPermission, true
	case errors.Is(err, entities.ErrInvalidTransition):
		return "That action is not available for this ticket anymore", true
	case errors.Is(err, entities.ErrNotFound):
		return "There is no ticket in this channel", true
	case errors.Is(err, entities.ErrDuplicateCategory):
		return "A category with that ID already exists", true
	case errors.Is(err, entities.ErrValidation):
		return fmt.Sprintf("Invalid input: %s", err.Error()), true
	default:
		return "", false
	}
}

// respondOutcome answers the event with the mapped user message when the
// error is user-facing, otherwise it returns the error for the dispatch
// middleware to report.
func respondOutcome(ev *router.Event, err error, success string) error {
	if err == nil {
		return ev.Ack.Respond(success, true)
	}

	if msg, ok := userMessage(err); ok {
		if respondErr := ev.Ack.Respond(msg, true); respondErr != nil {
			return fmt.Errorf("error responding to interaction: %w", respondErr)
		}
		return nil
	}
	return err
}
