package dataaccess

import (
	"context"
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

const sequenceDalName = "sequence_dal"

// SequenceDal issues unique, strictly increasing ticket numbers per guild.
// The contract holds under concurrent callers: no two callers ever receive
// the same value.
type SequenceDal interface {
	// Next returns the next ticket number for the guild, starting at 1.
	Next(ctx context.Context, guildID string) (int, error)
}

type sequenceDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewSequenceDal creates a new sequence data access layer.
func NewSequenceDal(l *slog.Logger, client *mongo.Client) SequenceDal {
	return &sequenceDal{
		l:      l.With(slog.String(logging.KeyDal, sequenceDalName)),
		client: client,
	}
}

func (s *sequenceDal) Next(ctx context.Context, guildID string) (int, error) {
	if guildID == "" {
		return 0, fmt.Errorf("%w: empty guild id", entities.ErrValidation)
	}

	monitoring.MongoTotalRequests.WithLabelValues(sequenceDalName, "next", mongoDatabase, collectionCounters).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(sequenceDalName, "next", mongoDatabase, collectionCounters))
	defer t.ObserveDuration()

	// A single atomic $inc on the per-guild counter document. This is the
	// whole allocator; scanning for the current maximum and adding one is
	// not safe under concurrent creation.
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	res := s.client.Database(mongoDatabase).Collection(collectionCounters).FindOneAndUpdate(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$inc": bson.M{"value": 1}},
		opts,
	)

	var counter struct {
		Value int `bson:"value"`
	}
	if err := res.Decode(&counter); err != nil {
		return 0, fmt.Errorf("%w: error incrementing sequence: %w", entities.ErrDownstreamUnavailable, err)
	}
	return counter.Value, nil
}
