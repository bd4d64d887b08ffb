package ticketing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/gateway"
)

// fakeGuildDal is an in-memory configuration store.
type fakeGuildDal struct {
	mu  sync.Mutex
	cfg map[string]*entities.GuildConfig
}

func newFakeGuildDal() *fakeGuildDal {
	return &fakeGuildDal{cfg: make(map[string]*entities.GuildConfig)}
}

func (f *fakeGuildDal) GetOrCreate(_ context.Context, guildID, guildName string) (*entities.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cfg, ok := f.cfg[guildID]; ok {
		return cfg, nil
	}
	cfg := entities.NewGuildConfig(guildID, guildName)
	f.cfg[guildID] = cfg
	return cfg, nil
}

func (f *fakeGuildDal) ApplyPatch(_ context.Context, guildID string, patch map[string]any) (*entities.GuildConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg, ok := f.cfg[guildID]
	if !ok {
		return nil, fmt.Errorf("%w: guild %s", entities.ErrNotFound, guildID)
	}

	// Only the leaf paths the tests exercise are interpreted.
	for path, value := range patch {
		switch path {
		case "ticket_settings.enabled":
			cfg.TicketSettings.Enabled = value.(bool)
		case "ticket_settings.max_tickets_per_user":
			cfg.TicketSettings.MaxTicketsPerUser = value.(int)
		case "ticket_settings.logs_channel_id":
			cfg.TicketSettings.LogsChannelID = value.(string)
		}
	}
	return cfg, nil
}

func (f *fakeGuildDal) Save(_ context.Context, cfg *entities.GuildConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cfg[cfg.GuildID] = cfg
	return nil
}

func (f *fakeGuildDal) Reset(_ context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.cfg, guildID)
	return nil
}

// fakeTicketDal is an in-memory ticket store. Reads and writes copy the
// ticket so callers never alias the stored document, as with a real
// decode round trip.
type fakeTicketDal struct {
	mu      sync.Mutex
	tickets map[string]*entities.Ticket

	saveErr error
}

func newFakeTicketDal() *fakeTicketDal {
	return &fakeTicketDal{tickets: make(map[string]*entities.Ticket)}
}

func (f *fakeTicketDal) key(guildID, ticketID string) string {
	return guildID + ":" + ticketID
}

func copyTicket(t *entities.Ticket) *entities.Ticket {
	out := *t
	out.Audit = append([]entities.AuditEntry(nil), t.Audit...)
	if t.Metadata != nil {
		out.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func (f *fakeTicketDal) Save(_ context.Context, ticket *entities.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	f.tickets[f.key(ticket.GuildID, ticket.TicketID)] = copyTicket(ticket)
	return nil
}

func (f *fakeTicketDal) SaveIfActive(_ context.Context, ticket *entities.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	current, ok := f.tickets[f.key(ticket.GuildID, ticket.TicketID)]
	if !ok || current.Terminal() {
		return fmt.Errorf("%w: ticket %s is no longer active", entities.ErrInvalidTransition, ticket.TicketID)
	}
	f.tickets[f.key(ticket.GuildID, ticket.TicketID)] = copyTicket(ticket)
	return nil
}

func (f *fakeTicketDal) GetByChannel(_ context.Context, guildID, channelID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.GuildID == guildID && t.ChannelID == channelID {
			return copyTicket(t), nil
		}
	}
	return nil, fmt.Errorf("%w: no ticket for channel %s", entities.ErrNotFound, channelID)
}

func (f *fakeTicketDal) GetByTicketID(_ context.Context, guildID, ticketID string) (*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tickets[f.key(guildID, ticketID)]
	if !ok {
		return nil, fmt.Errorf("%w: ticket %s", entities.ErrNotFound, ticketID)
	}
	return copyTicket(t), nil
}

func (f *fakeTicketDal) CountActiveForUser(_ context.Context, guildID, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, t := range f.tickets {
		if t.GuildID == guildID && t.UserID == userID && t.Active() {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketDal) ListByGuild(_ context.Context, guildID string, status entities.TicketStatus) ([]*entities.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entities.Ticket
	for _, t := range f.tickets {
		if t.GuildID != guildID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, copyTicket(t))
	}
	return out, nil
}

func (f *fakeTicketDal) CountByStatus(_ context.Context, guildID string) (map[entities.TicketStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[entities.TicketStatus]int)
	for _, t := range f.tickets {
		if t.GuildID == guildID {
			out[t.Status]++
		}
	}
	return out, nil
}

// fakeSequenceDal allocates sequence numbers from memory.
type fakeSequenceDal struct {
	mu   sync.Mutex
	next map[string]int
}

func newFakeSequenceDal() *fakeSequenceDal {
	return &fakeSequenceDal{next: make(map[string]int)}
}

func (f *fakeSequenceDal) Next(_ context.Context, guildID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next[guildID]++
	return f.next[guildID], nil
}

// fakeGateway records channel and message operations.
type fakeGateway struct {
	mu sync.Mutex

	nextChannel int
	channels    map[string]string // channel ID -> current name
	grants      map[string][]gateway.AccessGrant
	deleted     []string
	messages    map[string][]string // channel ID -> contents
	pins        []string
	dms         map[string][]string // user ID -> contents

	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		channels: make(map[string]string),
		grants:   make(map[string][]gateway.AccessGrant),
		messages: make(map[string][]string),
		dms:      make(map[string][]string),
	}
}

func (f *fakeGateway) CreateChannel(guildID, parentID, name string, grants []gateway.AccessGrant) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextChannel++
	id := fmt.Sprintf("chan-%d", f.nextChannel)
	f.channels[id] = name
	f.grants[id] = grants
	return id, nil
}

func (f *fakeGateway) RenameChannel(channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.channels[channelID]; !ok {
		return fmt.Errorf("unknown channel %s", channelID)
	}
	f.channels[channelID] = name
	return nil
}

func (f *fakeGateway) DeleteChannel(channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.channels[channelID]; !ok {
		return fmt.Errorf("unknown channel %s", channelID)
	}
	delete(f.channels, channelID)
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeGateway) SendMessage(channelID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages[channelID] = append(f.messages[channelID], content)
	return fmt.Sprintf("msg-%d", len(f.messages[channelID])), nil
}

func (f *fakeGateway) PinMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pins = append(f.pins, messageID)
	return nil
}

func (f *fakeGateway) SendDirectMessage(userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

func (f *fakeGateway) channelName(channelID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.channels[channelID]
}

func (f *fakeGateway) deletedChannels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

// fakeArchiver captures transcripts from memory. A delay stretches each
// capture, holding concurrent callers inside the terminal transition.
type fakeArchiver struct {
	mu       sync.Mutex
	captures int

	delay time.Duration
	err   error
}

func (f *fakeArchiver) Capture(_ context.Context, guildID, channelID, ticketID string) (*gateway.Artifact, error) {
	f.mu.Lock()
	f.captures++
	delay, err := f.delay, f.err
	f.mu.Unlock()

	time.Sleep(delay)
	if err != nil {
		return nil, err
	}
	return &gateway.Artifact{
		TicketID: ticketID,
		URL:      "https://cdn.example.com/transcript-" + ticketID + ".txt",
		Messages: 2,
	}, nil
}

func (f *fakeArchiver) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.captures
}

// fakeSink records published lifecycle events.
type fakeSink struct {
	mu     sync.Mutex
	events []gateway.Event
}

func (f *fakeSink) Publish(_ context.Context, guildID string, event gateway.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, event)
}

func (f *fakeSink) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}
