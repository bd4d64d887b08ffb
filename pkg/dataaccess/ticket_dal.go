package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess/monitoring"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketDalName = "ticket_dal"

// TicketDal is the ticket store.
type TicketDal interface {
	// Save upserts a ticket, keyed by guild and ticket ID.
	Save(ctx context.Context, ticket *entities.Ticket) error

	// SaveIfActive updates a ticket only while the stored status is still
	// non-terminal. A ticket that is missing or already terminal fails with
	// entities.ErrInvalidTransition and the stored document is untouched.
	SaveIfActive(ctx context.Context, ticket *entities.Ticket) error

	// GetByChannel gets the ticket bound to the given channel.
	GetByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)

	// GetByTicketID gets a ticket by its display ID.
	GetByTicketID(ctx context.Context, guildID, ticketID string) (*entities.Ticket, error)

	// CountActiveForUser counts the user's open or assigned tickets in the
	// guild. Used to enforce the per-user ticket limit.
	CountActiveForUser(ctx context.Context, guildID, userID string) (int, error)

	// ListByGuild lists the guild's tickets, newest first, optionally
	// filtered by status.
	ListByGuild(ctx context.Context, guildID string, status entities.TicketStatus) ([]*entities.Ticket, error)

	// CountByStatus counts the guild's tickets grouped by status.
	CountByStatus(ctx context.Context, guildID string) (map[entities.TicketStatus]int, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(l *slog.Logger, client *mongo.Client) TicketDal {
	return &ticketDal{
		l:      l.With(slog.String(logging.KeyDal, ticketDalName)),
		client: client,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(collectionTickets)
}

func (d *ticketDal) Save(ctx context.Context, ticket *entities.Ticket) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "save_ticket", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "save_ticket", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx,
		bson.M{"guild_id": ticket.GuildID, "ticket_id": ticket.TicketID},
		bson.M{"$set": ticket},
		opts,
	)
	if err != nil {
		return fmt.Errorf("%w: error saving ticket: %w", entities.ErrDownstreamUnavailable, err)
	}
	return nil
}

func (d *ticketDal) SaveIfActive(ctx context.Context, ticket *entities.Ticket) error {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "save_ticket_if_active", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "save_ticket_if_active", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	res, err := d.collection().UpdateOne(ctx,
		bson.M{
			"guild_id":  ticket.GuildID,
			"ticket_id": ticket.TicketID,
			"status":    bson.M{"$nin": bson.A{entities.StatusResolved, entities.StatusClosed, entities.StatusDeleted}},
		},
		bson.M{"$set": ticket},
	)
	if err != nil {
		return fmt.Errorf("%w: error saving ticket: %w", entities.ErrDownstreamUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: ticket %s is no longer active", entities.ErrInvalidTransition, ticket.TicketID)
	}
	return nil
}

func (d *ticketDal) GetByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_by_channel", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_by_channel", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":   guildID,
		"channel_id": channelID,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: no ticket for channel %s", entities.ErrNotFound, channelID)
	} else if err != nil {
		return nil, fmt.Errorf("%w: error getting ticket: %w", entities.ErrDownstreamUnavailable, err)
	}
	return ticket, nil
}

func (d *ticketDal) GetByTicketID(ctx context.Context, guildID, ticketID string) (*entities.Ticket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "get_by_ticket_id", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "get_by_ticket_id", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":  guildID,
		"ticket_id": ticketID,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: ticket %s", entities.ErrNotFound, ticketID)
	} else if err != nil {
		return nil, fmt.Errorf("%w: error getting ticket: %w", entities.ErrDownstreamUnavailable, err)
	}
	return ticket, nil
}

func (d *ticketDal) CountActiveForUser(ctx context.Context, guildID, userID string) (int, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "count_active_for_user", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "count_active_for_user", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	n, err := d.collection().CountDocuments(ctx, bson.M{
		"guild_id": guildID,
		"user_id":  userID,
		"status":   bson.M{"$in": bson.A{entities.StatusOpen, entities.StatusAssigned}},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: error counting tickets: %w", entities.ErrDownstreamUnavailable, err)
	}
	return int(n), nil
}

func (d *ticketDal) ListByGuild(ctx context.Context, guildID string, status entities.TicketStatus) ([]*entities.Ticket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "list_by_guild", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "list_by_guild", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	filter := bson.M{"guild_id": guildID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.M{"sequence": -1})
	cur, err := d.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing tickets: %w", entities.ErrDownstreamUnavailable, err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			d.l.Error("Error closing cursor", slog.String(logging.KeyError, err.Error()))
		}
	}()

	var tickets []*entities.Ticket
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("%w: error decoding tickets: %w", entities.ErrDownstreamUnavailable, err)
	}
	return tickets, nil
}

func (d *ticketDal) CountByStatus(ctx context.Context, guildID string) (map[entities.TicketStatus]int, error) {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, "count_by_status", mongoDatabase, collectionTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, "count_by_status", mongoDatabase, collectionTickets))
	defer t.ObserveDuration()

	cur, err := d.collection().Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"guild_id": guildID}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: error aggregating tickets: %w", entities.ErrDownstreamUnavailable, err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			d.l.Error("Error closing cursor", slog.String(logging.KeyError, err.Error()))
		}
	}()

	var rows []struct {
		Status entities.TicketStatus `bson:"_id"`
		Count  int                   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: error decoding counts: %w", entities.ErrDownstreamUnavailable, err)
	}

	counts := make(map[entities.TicketStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
