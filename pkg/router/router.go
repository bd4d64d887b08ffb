package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/messages"
)

// Kind is the class of inbound interaction event.
type Kind int

const (
	// KindCommand is a slash command invocation.
	KindCommand Kind = iota

	// KindComponent is a component interaction (button, select).
	KindComponent

	// KindModal is a modal submission.
	KindModal
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindComponent:
		return "component"
	case KindModal:
		return "modal"
	default:
		return "unknown"
	}
}

// ErrUnrouted indicates no handler matched the event. The router has
// already sent the "not recognized" response by the time it is returned.
var ErrUnrouted = errors.New("unrouted interaction")

// Event is an inbound interaction event.
type Event struct {
	// Kind is the class of event.
	Kind Kind

	// ID is the command name or component/modal custom ID.
	ID string

	// GuildID is the guild the event originated in.
	GuildID string

	// ChannelID is the channel the event originated in.
	ChannelID string

	// UserID is the user that triggered the event.
	UserID string

	// MemberRoles are the triggering member's role IDs.
	MemberRoles []string

	// Permissions are the triggering member's resolved permissions in the
	// channel.
	Permissions int64

	// Username is the triggering user's username.
	Username string

	// Values are the selected values for select components.
	Values []string

	// Fields are the submitted fields for modals.
	Fields map[string]string

	// Ack is the event's acknowledgement handle.
	Ack *Ack
}

// Handler processes an event. Returning an error is reported to the user
// with a generic failure message by the dispatch middleware.
type Handler func(ctx context.Context, ev *Event) error

type prefixEntry struct {
	prefix  string
	handler Handler
}

// Router dispatches inbound events to registered handlers. Exact ID matches
// win over prefixes; among prefixes, the longest match wins, so the most
// specific registration is always chosen.
type Router struct {
	// l is the logger.
	l *slog.Logger

	mu       sync.RWMutex
	exact    map[Kind]map[string]Handler
	prefixes map[Kind][]prefixEntry
}

// New creates an empty router.
func New(l *slog.Logger) *Router {
	return &Router{
		l:        l,
		exact:    make(map[Kind]map[string]Handler),
		prefixes: make(map[Kind][]prefixEntry),
	}
}

// Register binds an exact event ID to a handler within a kind.
func (r *Router) Register(kind Kind, id string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exact[kind] == nil {
		r.exact[kind] = make(map[string]Handler)
	}
	r.exact[kind][id] = h
}

// RegisterPrefix binds every event ID starting with prefix to a handler
// within a kind.
func (r *Router) RegisterPrefix(kind Kind, prefix string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefixes[kind] = append(r.prefixes[kind], prefixEntry{prefix: prefix, handler: h})

	// Keep longest-first so resolution can take the first match.
	sort.SliceStable(r.prefixes[kind], func(i, j int) bool {
		return len(r.prefixes[kind][i].prefix) > len(r.prefixes[kind][j].prefix)
	})
}

// Dispatch resolves and runs the handler for the event. An event with no
// matching handler gets a visible "not recognized" response and ErrUnrouted;
// it is never dropped silently.
func (r *Router) Dispatch(ctx context.Context, ev *Event) error {
	h := r.resolve(ev.Kind, ev.ID)
	if h == nil {
		r.l.Warn("Unrouted interaction",
			slog.String("kind", ev.Kind.String()),
			slog.String("id", ev.ID),
		)
		if ev.Ack != nil {
			if err := ev.Ack.Respond(messages.ErrUserNotRecognized, true); err != nil {
				r.l.Error("Error responding to unrouted interaction", slog.String(logging.KeyError, err.Error()))
			}
		}
		return fmt.Errorf("%w: %s %q", ErrUnrouted, ev.Kind, ev.ID)
	}
	return h(ctx, ev)
}

func (r *Router) resolve(kind Kind, id string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.exact[kind][id]; ok {
		return h
	}
	for _, e := range r.prefixes[kind] {
		if strings.HasPrefix(id, e.prefix) {
			return e.handler
		}
	}
	return nil
}
