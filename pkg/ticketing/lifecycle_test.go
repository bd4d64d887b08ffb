package ticketing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/stretchr/testify/require"
)

const (
	testGuild     = "guild-1"
	testSupport   = "role-support"
	testOpenerID  = "user-opener"
	testStaffID   = "user-staff"
	testCategory  = "suporte"
	staffCategory = "banimento"
)

type lifecycleFixture struct {
	lc       *Lifecycle
	guilds   *fakeGuildDal
	tickets  *fakeTicketDal
	seq      *fakeSequenceDal
	gw       *fakeGateway
	archiver *fakeArchiver
	sink     *fakeSink
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	f := &lifecycleFixture{
		guilds:   newFakeGuildDal(),
		tickets:  newFakeTicketDal(),
		seq:      newFakeSequenceDal(),
		gw:       newFakeGateway(),
		archiver: new(fakeArchiver),
		sink:     new(fakeSink),
	}
	f.lc = NewLifecycle(l, f.guilds, f.tickets, f.seq, f.gw, f.archiver, f.sink)

	// Shrink the teardown windows so tests do not wait on real ones.
	f.lc.resolveGrace = 10 * time.Millisecond
	f.lc.closeGrace = 10 * time.Millisecond
	f.lc.deleteGrace = 10 * time.Millisecond

	// Seed a configured guild with a support role.
	cfg, err := f.guilds.GetOrCreate(context.Background(), testGuild, "Test Guild")
	require.NoError(t, err)
	cfg.TicketSettings.SupportRoleIDs = []string{testSupport}

	return f
}

func opener() Actor {
	return Actor{UserID: testOpenerID, Username: "Opener"}
}

func staff() Actor {
	return Actor{UserID: testStaffID, Username: "Staff", RoleIDs: []string{testSupport}}
}

func TestCreateTicket(t *testing.T) {
	f := newLifecycleFixture(t)

	ticket, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	require.Equal(t, "TICKET-0001", ticket.TicketID)
	require.Equal(t, 1, ticket.Sequence)
	require.Equal(t, entities.StatusOpen, ticket.Status)
	require.Equal(t, entities.PriorityNormal, ticket.Priority)
	require.Equal(t, testOpenerID, ticket.UserID)
	require.NotEmpty(t, ticket.ChannelID)

	// The channel carries the unassigned name.
	require.Equal(t, "suporte-aguardando-1", f.gw.channelName(ticket.ChannelID))

	// Everyone is denied, the opener and the support role are let in.
	grants := f.gw.grants[ticket.ChannelID]
	require.Len(t, grants, 3)
	require.Equal(t, testGuild, grants[0].ID)
	require.NotZero(t, grants[0].Deny)
	require.Equal(t, testOpenerID, grants[1].ID)
	require.Equal(t, testSupport, grants[2].ID)

	// Creation is recorded in the audit trail.
	require.Len(t, ticket.Audit, 1)
	require.Equal(t, "created", ticket.Audit[0].Action)
	require.Equal(t, testOpenerID, ticket.Audit[0].Actor)
}

func TestCreateSequencesIncrease(t *testing.T) {
	f := newLifecycleFixture(t)

	for i := 1; i <= 3; i++ {
		actor := Actor{UserID: fmt.Sprintf("user-%d", i), Username: "User"}
		ticket, err := f.lc.Create(context.Background(), testGuild, actor, testCategory)
		require.NoError(t, err)
		require.Equal(t, i, ticket.Sequence)
		require.Equal(t, entities.FormatTicketID(i), ticket.TicketID)
	}
}

func TestCreateConcurrentSequencesDistinct(t *testing.T) {
	f := newLifecycleFixture(t)

	const creators = 10

	var wg sync.WaitGroup
	seqs := make([]int, creators)
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := Actor{UserID: fmt.Sprintf("user-%d", i), Username: "User"}
			ticket, err := f.lc.Create(context.Background(), testGuild, actor, testCategory)
			require.NoError(t, err)
			seqs[i] = ticket.Sequence
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, creators)
	for _, s := range seqs {
		require.NotZero(t, s)
		require.False(t, seen[s], "sequence %d allocated twice", s)
		seen[s] = true
	}
}

func TestCreateSystemDisabled(t *testing.T) {
	f := newLifecycleFixture(t)

	cfg, err := f.guilds.GetOrCreate(context.Background(), testGuild, "")
	require.NoError(t, err)
	cfg.TicketSettings.Enabled = false

	_, err = f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.ErrorIs(t, err, entities.ErrSystemDisabled)
}

func TestCreateUnknownCategory(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.lc.Create(context.Background(), testGuild, opener(), "does_not_exist")
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestCreateCategoryDisabled(t *testing.T) {
	f := newLifecycleFixture(t)

	cfg, err := f.guilds.GetOrCreate(context.Background(), testGuild, "")
	require.NoError(t, err)
	cat := cfg.TicketCategories[testCategory]
	cat.Enabled = false
	cfg.TicketCategories[testCategory] = cat

	_, err = f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.ErrorIs(t, err, entities.ErrCategoryDisabled)
}

func TestCreateStaffOnlyCategory(t *testing.T) {
	f := newLifecycleFixture(t)

	cfg, err := f.guilds.GetOrCreate(context.Background(), testGuild, "")
	require.NoError(t, err)
	cat := cfg.TicketCategories[staffCategory]
	cat.StaffOnly = true
	cfg.TicketCategories[staffCategory] = cat

	_, err = f.lc.Create(context.Background(), testGuild, opener(), staffCategory)
	require.ErrorIs(t, err, entities.ErrPermissionDenied)

	// A support role holder can open it.
	_, err = f.lc.Create(context.Background(), testGuild, staff(), staffCategory)
	require.NoError(t, err)
}

func TestCreateLimitExceeded(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.ErrorIs(t, err, entities.ErrLimitExceeded)
}

func TestCreateLimitHeldUnderConcurrency(t *testing.T) {
	f := newLifecycleFixture(t)

	const attempts = 8

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.lc.Create(context.Background(), testGuild, opener(), testCategory)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, entities.ErrLimitExceeded)
		}
	}
	require.Equal(t, 1, succeeded)
}

func TestCreateChannelCleanupOnSaveFailure(t *testing.T) {
	f := newLifecycleFixture(t)
	f.tickets.saveErr = fmt.Errorf("write failed")

	_, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.Error(t, err)

	// The channel created for the unsaved ticket is removed again.
	require.Len(t, f.gw.deletedChannels(), 1)
}

func TestAssignKeepsStatus(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	ticket, err := f.lc.Assign(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)

	// Assignment does not advance the lifecycle state.
	require.Equal(t, entities.StatusOpen, ticket.Status)
	require.Equal(t, testStaffID, ticket.AssignedTo)
	require.Equal(t, "Staff", ticket.AssignedHandle)
	require.False(t, ticket.AssignedAt.IsZero())

	// The channel is renamed with the assignee's handle.
	require.Equal(t, "suporte-staff-1", f.gw.channelName(ticket.ChannelID))

	last := ticket.Audit[len(ticket.Audit)-1]
	require.Equal(t, "assigned", last.Action)
	require.Equal(t, testStaffID, last.Actor)
}

func TestAssignRequiresSupportRole(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Assign(context.Background(), testGuild, created.ChannelID, opener())
	require.ErrorIs(t, err, entities.ErrPermissionDenied)
}

func TestTransferRecordsFromAndTo(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Assign(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)

	ticket, err := f.lc.Transfer(context.Background(), testGuild, created.ChannelID, staff(), "user-other", "Other", "going off shift")
	require.NoError(t, err)

	require.Equal(t, "user-other", ticket.AssignedTo)
	require.Equal(t, "Other", ticket.AssignedHandle)

	last := ticket.Audit[len(ticket.Audit)-1]
	require.Equal(t, "transferred", last.Action)
	require.Equal(t, testStaffID, last.Actor)
	require.Equal(t, "from=user-staff to=user-other reason=going off shift", last.Detail)

	require.Equal(t, "suporte-other-1", f.gw.channelName(ticket.ChannelID))
}

func TestMarkUrgent(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	ticket, err := f.lc.MarkUrgent(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)
	require.Equal(t, entities.PriorityUrgent, ticket.Priority)
	require.Equal(t, "urg-suporte-aguardando-1", f.gw.channelName(ticket.ChannelID))

	auditLen := len(ticket.Audit)

	// Marking again is a no-op.
	again, err := f.lc.MarkUrgent(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)
	require.Equal(t, entities.PriorityUrgent, again.Priority)
	require.Len(t, again.Audit, auditLen)
}

func TestResolveCapturesTranscript(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	ticket, err := f.lc.Resolve(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)

	require.Equal(t, entities.StatusResolved, ticket.Status)
	require.Equal(t, testStaffID, ticket.ClosedBy)
	require.False(t, ticket.ResolvedAt.IsZero())
	require.NotEmpty(t, ticket.TranscriptURL)
	require.Equal(t, 1, f.archiver.captureCount())

	// The channel is torn down after the grace window.
	require.Eventually(t, func() bool {
		for _, id := range f.gw.deletedChannels() {
			if id == ticket.ChannelID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestResolveSurvivesArchiverFailure(t *testing.T) {
	f := newLifecycleFixture(t)
	f.archiver.err = fmt.Errorf("storage unavailable")

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	ticket, err := f.lc.Resolve(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)
	require.Equal(t, entities.StatusResolved, ticket.Status)
	require.Empty(t, ticket.TranscriptURL)
}

func TestResolveRequiresSupportRole(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Resolve(context.Background(), testGuild, created.ChannelID, opener())
	require.ErrorIs(t, err, entities.ErrPermissionDenied)
}

func TestCloseByOpener(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	ticket, err := f.lc.Close(context.Background(), testGuild, created.ChannelID, opener())
	require.NoError(t, err)
	require.Equal(t, entities.StatusClosed, ticket.Status)
	require.False(t, ticket.ClosedAt.IsZero())
}

func TestCloseByStaffOnly(t *testing.T) {
	f := newLifecycleFixture(t)

	cfg, err := f.guilds.GetOrCreate(context.Background(), testGuild, "")
	require.NoError(t, err)
	cfg.TicketSettings.CloseByStaffOnly = true

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Close(context.Background(), testGuild, created.ChannelID, opener())
	require.ErrorIs(t, err, entities.ErrPermissionDenied)

	_, err = f.lc.Close(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)
}

func TestDeleteSkipsTranscript(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	ticket, err := f.lc.Delete(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)
	require.Equal(t, entities.StatusDeleted, ticket.Status)

	// Deletion is the one terminal state without a transcript.
	require.Zero(t, f.archiver.captureCount())

	// The log entry is still produced.
	require.Contains(t, f.sink.actions(), "deleted")
}

func TestTerminalTicketsRejectTransitions(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Resolve(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)

	// The resolved ticket as stored; every rejected transition below must
	// leave it byte for byte the same.
	snapshot, err := f.tickets.GetByChannel(context.Background(), testGuild, created.ChannelID)
	require.NoError(t, err)

	for _, attempt := range []func(context.Context, string, string, Actor) (*entities.Ticket, error){
		f.lc.Close,
		f.lc.Resolve,
		f.lc.Delete,
		f.lc.Assign,
		f.lc.MarkUrgent,
	} {
		_, err = attempt(context.Background(), testGuild, created.ChannelID, staff())
		require.ErrorIs(t, err, entities.ErrInvalidTransition)

		stored, err := f.tickets.GetByChannel(context.Background(), testGuild, created.ChannelID)
		require.NoError(t, err)
		require.Equal(t, snapshot, stored)
	}
}

func TestConcurrentTerminalTransitionsSingleWinner(t *testing.T) {
	f := newLifecycleFixture(t)

	// Stretch the transcript capture so both transitions pass the terminal
	// check before either commits.
	f.archiver.delay = 50 * time.Millisecond

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.lc.Resolve(context.Background(), testGuild, created.ChannelID, staff())
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.lc.Close(context.Background(), testGuild, created.ChannelID, staff())
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, entities.ErrInvalidTransition)
		}
	}
	require.Equal(t, 1, succeeded)

	// The stored state is the winner's and stays put.
	stored, err := f.tickets.GetByChannel(context.Background(), testGuild, created.ChannelID)
	require.NoError(t, err)
	require.True(t, stored.Terminal())

	// Only the winner's terminal event reaches the sink.
	terminal := 0
	for _, action := range f.sink.actions() {
		if action == "resolved" || action == "closed" {
			terminal++
		}
	}
	require.Equal(t, 1, terminal)
}

func TestCreationLocksReleased(t *testing.T) {
	f := newLifecycleFixture(t)

	const attempts = 8

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := Actor{UserID: fmt.Sprintf("user-%d", i%2), Username: "User"}
			_, _ = f.lc.Create(context.Background(), testGuild, actor, testCategory)
		}(i)
	}
	wg.Wait()

	// No creation in flight, so no per-user lock is retained.
	f.lc.mu.Lock()
	defer f.lc.mu.Unlock()
	require.Empty(t, f.lc.creating)
}

func TestTerminateUnknownChannel(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.lc.Close(context.Background(), testGuild, "no-such-channel", staff())
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestResolveNotifiesOpener(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	_, err = f.lc.Resolve(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		f.gw.mu.Lock()
		defer f.gw.mu.Unlock()
		return len(f.gw.dms[testOpenerID]) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStats(t *testing.T) {
	f := newLifecycleFixture(t)

	created, err := f.lc.Create(context.Background(), testGuild, opener(), testCategory)
	require.NoError(t, err)

	other := Actor{UserID: "user-2", Username: "Second"}
	_, err = f.lc.Create(context.Background(), testGuild, other, testCategory)
	require.NoError(t, err)

	_, err = f.lc.Resolve(context.Background(), testGuild, created.ChannelID, staff())
	require.NoError(t, err)

	stats, err := f.lc.Stats(context.Background(), testGuild)
	require.NoError(t, err)
	require.Equal(t, 1, stats[entities.StatusOpen])
	require.Equal(t, 1, stats[entities.StatusResolved])
}
