package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/custom"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/gateway"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/messages"
)

// Teardown grace windows. Once a terminal transition commits, the channel is
// removed after the window; teardown is not cancellable.
const (
	ResolveGrace = 10 * time.Second
	CloseGrace   = 5 * time.Second
	DeleteGrace  = 3 * time.Second
)

// Lifecycle is the ticket state machine. It owns every transition from
// creation to terminal disposition and drives the archiver and notification
// sink as side effects. All collaborators are injected.
type Lifecycle struct {
	// l is the logger.
	l *slog.Logger

	// guilds is the configuration store.
	guilds dataaccess.GuildDal

	// tickets is the ticket store.
	tickets dataaccess.TicketDal

	// seq allocates ticket numbers.
	seq dataaccess.SequenceDal

	// gw is the messaging gateway.
	gw gateway.Gateway

	// archiver captures transcripts on terminal transitions.
	archiver gateway.TranscriptArchiver

	// sink receives lifecycle events.
	sink gateway.NotificationSink

	// resolveGrace, closeGrace and deleteGrace are the teardown windows.
	// Fields so tests can shrink them.
	resolveGrace time.Duration
	closeGrace   time.Duration
	deleteGrace  time.Duration

	// creating serializes ticket creation per (guild, user) so the
	// per-user limit cannot be bypassed by racing requests. Entries are
	// dropped once no creation for the pair is in flight.
	mu       sync.Mutex
	creating map[string]*creationLock
}

// creationLock serializes ticket creation for one (guild, user) pair. refs
// counts the creations holding or waiting on the lock; guarded by
// Lifecycle.mu.
type creationLock struct {
	mu   sync.Mutex
	refs int
}

// NewLifecycle creates the ticket lifecycle engine.
func NewLifecycle(
	l *slog.Logger,
	guilds dataaccess.GuildDal,
	tickets dataaccess.TicketDal,
	seq dataaccess.SequenceDal,
	gw gateway.Gateway,
	archiver gateway.TranscriptArchiver,
	sink gateway.NotificationSink,
) *Lifecycle {
	return &Lifecycle{
		l:            l,
		guilds:       guilds,
		tickets:      tickets,
		seq:          seq,
		gw:           gw,
		archiver:     archiver,
		sink:         sink,
		resolveGrace: ResolveGrace,
		closeGrace:   CloseGrace,
		deleteGrace:  DeleteGrace,
		creating:     make(map[string]*creationLock),
	}
}

// Actor is the user performing a lifecycle operation.
type Actor struct {
	// UserID is the actor's ID.
	UserID string

	// Username is the actor's username.
	Username string

	// RoleIDs are the actor's role IDs.
	RoleIDs []string
}

// hasSupportRole reports whether the actor holds one of the guild's support
// roles.
func hasSupportRole(cfg *entities.GuildConfig, actor Actor) bool {
	for _, have := range actor.RoleIDs {
		for _, want := range cfg.TicketSettings.SupportRoleIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// lockUser acquires the creation lock for the (guild, user) pair. The
// returned func releases it and evicts the map entry once the last holder
// is gone.
func (lc *Lifecycle) lockUser(guildID, userID string) func() {
	key := guildID + ":" + userID

	lc.mu.Lock()
	l, ok := lc.creating[key]
	if !ok {
		l = new(creationLock)
		lc.creating[key] = l
	}
	l.refs++
	lc.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		lc.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(lc.creating, key)
		}
		lc.mu.Unlock()
	}
}

// Create opens a new ticket for the actor under the given category. It
// allocates the ticket number, creates the dedicated channel scoped to the
// opener and the support roles, persists the ticket and schedules the
// welcome message and creation log entry.
func (lc *Lifecycle) Create(ctx context.Context, guildID string, actor Actor, categoryID string) (*entities.Ticket, error) {
	cfg, err := lc.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	if !cfg.TicketSettings.Enabled {
		return nil, fmt.Errorf("%w: guild %s", entities.ErrSystemDisabled, guildID)
	}

	cat, ok := cfg.TicketCategories[categoryID]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", entities.ErrNotFound, categoryID)
	} else if !cat.Enabled {
		return nil, fmt.Errorf("%w: category %q", entities.ErrCategoryDisabled, categoryID)
	} else if cat.StaffOnly && !hasSupportRole(cfg, actor) {
		return nil, fmt.Errorf("%w: category %q is staff only", entities.ErrPermissionDenied, categoryID)
	}

	// The count-then-insert sequence below must behave as if atomic per
	// (guild, user), otherwise racing requests bypass the limit.
	unlock := lc.lockUser(guildID, actor.UserID)
	defer unlock()

	maxTickets := cfg.TicketSettings.MaxTicketsPerUser
	if maxTickets < 1 {
		maxTickets = 1
	}

	active, err := lc.tickets.CountActiveForUser(ctx, guildID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("error counting user tickets: %w", err)
	}
	if active >= maxTickets {
		return nil, fmt.Errorf("%w: %d of %d tickets open", entities.ErrLimitExceeded, active, maxTickets)
	}

	seq, err := lc.seq.Next(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error allocating ticket number: %w", err)
	}

	now := custom.Now()
	ticket := &entities.Ticket{
		TicketID:   entities.FormatTicketID(seq),
		Sequence:   seq,
		GuildID:    guildID,
		UserID:     actor.UserID,
		Username:   actor.Username,
		CategoryID: categoryID,
		Status:     entities.StatusOpen,
		Priority:   entities.PriorityNormal,
		CreatedAt:  now,
		Audit: []entities.AuditEntry{
			{Action: "created", Actor: actor.UserID, At: now},
		},
		Metadata: make(map[string]string),
	}

	parentID := cat.ParentChannelID
	if parentID == "" {
		parentID = cfg.TicketSettings.CategoryID
	}

	channelID, err := lc.gw.CreateChannel(guildID, parentID, ticket.ChannelName(), channelGrants(guildID, actor.UserID, cfg.TicketSettings.SupportRoleIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: error creating ticket channel: %w", entities.ErrDownstreamUnavailable, err)
	}
	ticket.ChannelID = channelID

	if err := lc.tickets.Save(ctx, ticket); err != nil {
		// Best effort not to leave an orphaned channel behind.
		if derr := lc.gw.DeleteChannel(channelID); derr != nil {
			lc.l.Warn("Error removing channel for unsaved ticket",
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, derr.Error()),
			)
		}
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	lc.l.Info("Ticket created",
		slog.String(logging.KeyGuildID, guildID),
		slog.String(logging.KeyTicketID, ticket.TicketID),
		slog.String(logging.KeyUserID, actor.UserID),
	)

	// Welcome message and creation log entry are best effort and must not
	// block the caller.
	go lc.setupTicketChannel(cfg, ticket)

	return ticket, nil
}

// channelGrants builds the access grants for a ticket channel: everyone is
// denied, the opener and the support roles get full text access without
// mention-everyone.
func channelGrants(guildID, openerID string, supportRoleIDs []string) []gateway.AccessGrant {
	grants := []gateway.AccessGrant{
		{
			ID:   guildID,
			Type: gateway.AccessRole,
			Deny: discordgo.PermissionAll,
		},
		{
			ID:    openerID,
			Type:  gateway.AccessMember,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		},
	}
	for _, roleID := range supportRoleIDs {
		grants = append(grants, gateway.AccessGrant{
			ID:    roleID,
			Type:  gateway.AccessRole,
			Allow: discordgo.PermissionAllText,
			Deny:  discordgo.PermissionMentionEveryone,
		})
	}
	return grants
}

// setupTicketChannel sends and pins the welcome message, stores its
// reference in the ticket metadata and publishes the creation event.
func (lc *Lifecycle) setupTicketChannel(cfg *entities.GuildConfig, ticket *entities.Ticket) {
	ctx := context.Background()

	msgID, err := lc.gw.SendMessage(ticket.ChannelID, messages.Render(cfg.Messages.Welcome, ticket.UserID, ticket.ChannelID))
	if err != nil {
		lc.l.Error("Error sending welcome message",
			slog.String(logging.KeyTicketID, ticket.TicketID),
			slog.String(logging.KeyError, err.Error()),
		)
	} else {
		if err := lc.gw.PinMessage(ticket.ChannelID, msgID); err != nil {
			lc.l.Warn("Error pinning welcome message",
				slog.String(logging.KeyTicketID, ticket.TicketID),
				slog.String(logging.KeyError, err.Error()),
			)
		}

		ticket.Metadata[entities.MetaMainMessageID] = msgID
		if err := lc.tickets.SaveIfActive(ctx, ticket); err != nil {
			lc.l.Error("Error saving ticket message reference",
				slog.String(logging.KeyTicketID, ticket.TicketID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}

	lc.sink.Publish(ctx, ticket.GuildID, gateway.Event{
		Action:    "created",
		TicketID:  ticket.TicketID,
		ChannelID: ticket.ChannelID,
		UserID:    ticket.UserID,
	})
}

// Assign claims the ticket in the given channel for the actor. Valid from
// any non-terminal state; re-claiming is allowed. The lifecycle status is
// not changed by assignment.
func (lc *Lifecycle) Assign(ctx context.Context, guildID, channelID string, actor Actor) (*entities.Ticket, error) {
	_, ticket, err := lc.loadForStaff(ctx, guildID, channelID, actor)
	if err != nil {
		return nil, err
	}

	now := custom.Now()
	ticket.AssignedTo = actor.UserID
	ticket.AssignedHandle = actor.Username
	ticket.AssignedAt = now
	ticket.Audit = append(ticket.Audit, entities.AuditEntry{
		Action: "assigned",
		Actor:  actor.UserID,
		At:     now,
	})

	if err := lc.commitActive(ctx, ticket); err != nil {
		return nil, err
	}

	lc.renameTicketChannel(ticket)
	lc.sink.Publish(ctx, guildID, gateway.Event{
		Action:    "assigned",
		TicketID:  ticket.TicketID,
		ChannelID: ticket.ChannelID,
		UserID:    actor.UserID,
	})

	return ticket, nil
}

// Transfer hands the ticket to a new assignee, recording the prior and next
// assignee distinctly in the audit trail.
func (lc *Lifecycle) Transfer(ctx context.Context, guildID, channelID string, actor Actor, newAssigneeID, newAssigneeHandle, reason string) (*entities.Ticket, error) {
	_, ticket, err := lc.loadForStaff(ctx, guildID, channelID, actor)
	if err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("from=%s to=%s", ticket.AssignedTo, newAssigneeID)
	if reason != "" {
		detail += " reason=" + reason
	}

	now := custom.Now()
	ticket.AssignedTo = newAssigneeID
	ticket.AssignedHandle = newAssigneeHandle
	ticket.AssignedAt = now
	ticket.Audit = append(ticket.Audit, entities.AuditEntry{
		Action: "transferred",
		Actor:  actor.UserID,
		Detail: detail,
		At:     now,
	})

	if err := lc.commitActive(ctx, ticket); err != nil {
		return nil, err
	}

	lc.renameTicketChannel(ticket)
	lc.sink.Publish(ctx, guildID, gateway.Event{
		Action:    "transferred",
		TicketID:  ticket.TicketID,
		ChannelID: ticket.ChannelID,
		UserID:    actor.UserID,
		Detail:    detail,
	})
	return ticket, nil
}

// MarkUrgent flags the ticket as urgent. Idempotent; marking an urgent
// ticket urgent again changes nothing.
func (lc *Lifecycle) MarkUrgent(ctx context.Context, guildID, channelID string, actor Actor) (*entities.Ticket, error) {
	_, ticket, err := lc.loadForStaff(ctx, guildID, channelID, actor)
	if err != nil {
		return nil, err
	}

	if ticket.Priority == entities.PriorityUrgent {
		return ticket, nil
	}

	now := custom.Now()
	ticket.Priority = entities.PriorityUrgent
	ticket.Audit = append(ticket.Audit, entities.AuditEntry{
		Action: "marked_urgent",
		Actor:  actor.UserID,
		At:     now,
	})

	if err := lc.commitActive(ctx, ticket); err != nil {
		return nil, err
	}

	lc.renameTicketChannel(ticket)
	return ticket, nil
}

// Resolve moves the ticket to the resolved terminal state, captures a
// transcript and schedules channel teardown.
func (lc *Lifecycle) Resolve(ctx context.Context, guildID, channelID string, actor Actor) (*entities.Ticket, error) {
	return lc.terminate(ctx, guildID, channelID, actor, entities.StatusResolved)
}

// Close moves the ticket to the closed terminal state, captures a
// transcript and schedules channel teardown.
func (lc *Lifecycle) Close(ctx context.Context, guildID, channelID string, actor Actor) (*entities.Ticket, error) {
	return lc.terminate(ctx, guildID, channelID, actor, entities.StatusClosed)
}

// Delete moves the ticket to the deleted terminal state. Used for erroneous
// or abusive tickets; no transcript is captured but a log entry is still
// produced.
func (lc *Lifecycle) Delete(ctx context.Context, guildID, channelID string, actor Actor) (*entities.Ticket, error) {
	return lc.terminate(ctx, guildID, channelID, actor, entities.StatusDeleted)
}

// terminate is the shared terminal transition. It is a complete no-op when
// the ticket is already terminal.
func (lc *Lifecycle) terminate(ctx context.Context, guildID, channelID string, actor Actor, to entities.TicketStatus) (*entities.Ticket, error) {
	cfg, err := lc.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	ticket, err := lc.tickets.GetByChannel(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}

	if ticket.Terminal() {
		return nil, fmt.Errorf("%w: ticket %s is already %s", entities.ErrInvalidTransition, ticket.TicketID, ticket.Status)
	}

	// Closing may be open to everyone; resolving and deleting are always
	// staff actions.
	staff := hasSupportRole(cfg, actor)
	if to == entities.StatusClosed {
		if cfg.TicketSettings.CloseByStaffOnly && !staff {
			return nil, fmt.Errorf("%w: closing is staff only", entities.ErrPermissionDenied)
		}
	} else if !staff {
		return nil, fmt.Errorf("%w: not a support role holder", entities.ErrPermissionDenied)
	}

	// Transcript capture is best effort and never aborts the transition.
	var action string
	var grace time.Duration
	switch to {
	case entities.StatusResolved:
		action, grace = "resolved", lc.resolveGrace
	case entities.StatusClosed:
		action, grace = "closed", lc.closeGrace
	case entities.StatusDeleted:
		action, grace = "deleted", lc.deleteGrace
	default:
		return nil, fmt.Errorf("%w: %s is not a terminal state", entities.ErrInvalidTransition, to)
	}

	if to != entities.StatusDeleted {
		if artifact, err := lc.archiver.Capture(ctx, guildID, channelID, ticket.TicketID); err != nil {
			lc.l.Warn("Transcript capture failed",
				slog.String(logging.KeyTicketID, ticket.TicketID),
				slog.String(logging.KeyError, err.Error()),
			)
		} else {
			ticket.TranscriptURL = artifact.URL
		}
	}

	now := custom.Now()
	ticket.Status = to
	ticket.ClosedBy = actor.UserID
	if to == entities.StatusResolved {
		ticket.ResolvedAt = now
	} else {
		ticket.ClosedAt = now
	}
	ticket.Audit = append(ticket.Audit, entities.AuditEntry{
		Action: action,
		Actor:  actor.UserID,
		At:     now,
	})

	// The conditional commit decides the race between concurrent terminal
	// attempts; only the winner's teardown, events and notification run.
	if err := lc.commitActive(ctx, ticket); err != nil {
		return nil, err
	}

	lc.l.Info("Ticket "+action,
		slog.String(logging.KeyGuildID, guildID),
		slog.String(logging.KeyTicketID, ticket.TicketID),
		slog.String(logging.KeyUserID, actor.UserID),
	)

	lc.sink.Publish(ctx, guildID, gateway.Event{
		Action:    action,
		TicketID:  ticket.TicketID,
		ChannelID: ticket.ChannelID,
		UserID:    actor.UserID,
	})

	// Let the opener know outside the channel, which is about to go away.
	if to != entities.StatusDeleted {
		go lc.notifyOpener(ticket, action)
	}

	lc.scheduleTeardown(ticket.ChannelID, grace)
	return ticket, nil
}

// notifyOpener sends the opener a direct message about the terminal
// transition, with the transcript location when one was captured.
func (lc *Lifecycle) notifyOpener(ticket *entities.Ticket, action string) {
	content := fmt.Sprintf("Your ticket %s has been %s.", ticket.TicketID, action)
	if ticket.TranscriptURL != "" {
		content += " Transcript: " + ticket.TranscriptURL
	}
	if err := lc.gw.SendDirectMessage(ticket.UserID, content); err != nil {
		lc.l.Debug("Error sending closure notification",
			slog.String(logging.KeyTicketID, ticket.TicketID),
			slog.String(logging.KeyUserID, ticket.UserID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// Stats returns the guild's ticket counts grouped by status.
func (lc *Lifecycle) Stats(ctx context.Context, guildID string) (map[entities.TicketStatus]int, error) {
	return lc.tickets.CountByStatus(ctx, guildID)
}

// commitActive persists a mutation of an existing ticket, conditional on
// the stored ticket still being active. A concurrent terminal transition
// surfaces as ErrInvalidTransition.
func (lc *Lifecycle) commitActive(ctx context.Context, ticket *entities.Ticket) error {
	if err := lc.tickets.SaveIfActive(ctx, ticket); err != nil {
		if errors.Is(err, entities.ErrInvalidTransition) {
			return err
		}
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

// loadForStaff loads the config and ticket for a staff operation on the
// given channel and enforces the support-role requirement and the terminal
// invariant.
func (lc *Lifecycle) loadForStaff(ctx context.Context, guildID, channelID string, actor Actor) (*entities.GuildConfig, *entities.Ticket, error) {
	cfg, err := lc.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, nil, fmt.Errorf("error getting guild config: %w", err)
	}

	ticket, err := lc.tickets.GetByChannel(ctx, guildID, channelID)
	if err != nil {
		return nil, nil, err
	}

	if !hasSupportRole(cfg, actor) {
		return nil, nil, fmt.Errorf("%w: not a support role holder", entities.ErrPermissionDenied)
	}
	if ticket.Terminal() {
		return nil, nil, fmt.Errorf("%w: ticket %s is already %s", entities.ErrInvalidTransition, ticket.TicketID, ticket.Status)
	}
	return cfg, ticket, nil
}

// renameTicketChannel pushes the recomputed channel name to the transport.
// A failure to rename is cosmetic and only logged.
func (lc *Lifecycle) renameTicketChannel(ticket *entities.Ticket) {
	if err := lc.gw.RenameChannel(ticket.ChannelID, ticket.ChannelName()); err != nil {
		lc.l.Warn("Error renaming ticket channel",
			slog.String(logging.KeyTicketID, ticket.TicketID),
			slog.String(logging.KeyChannelID, ticket.ChannelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// scheduleTeardown removes the ticket channel after the grace window. The
// task is fire-and-forget; a channel that is already gone when it fires is
// not an error.
func (lc *Lifecycle) scheduleTeardown(channelID string, grace time.Duration) {
	time.AfterFunc(grace, func() {
		if err := lc.gw.DeleteChannel(channelID); err != nil {
			lc.l.Debug("Teardown skipped",
				slog.String(logging.KeyChannelID, channelID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	})
}
