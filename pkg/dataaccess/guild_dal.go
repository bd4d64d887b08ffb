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

const guildDalName = "guild_dal"

// GuildDal is the configuration store. It owns the per-guild configuration
// aggregate; the persistent store is the single source of truth, no caching
// happens in front of it.
type GuildDal interface {
	// GetOrCreate returns the guild's configuration, creating it with full
	// defaults if it does not exist yet.
	GetOrCreate(ctx context.Context, guildID, guildName string) (*entities.GuildConfig, error)

	// ApplyPatch merges the given leaf-path patch (e.g.
	// "ticket_settings.enabled" -> true) into the aggregate and returns the
	// refreshed snapshot. Untouched fields survive; concurrent patches to
	// disjoint fields both apply.
	ApplyPatch(ctx context.Context, guildID string, patch map[string]any) (*entities.GuildConfig, error)

	// Save upserts the whole aggregate. Used where a mutation has to land
	// as one operation, such as the category-removal cascade.
	Save(ctx context.Context, cfg *entities.GuildConfig) error

	// Reset deletes the aggregate entirely. The next GetOrCreate rebuilds
	// fresh defaults. Callers must guard this with a two-step confirmation.
	Reset(ctx context.Context, guildID string) error
}

type guildDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewGuildDal creates a new guild data access layer.
func NewGuildDal(l *slog.Logger, client *mongo.Client) GuildDal {
	return &guildDal{
		l:      l.With(slog.String(logging.KeyDal, guildDalName)),
		client: client,
	}
}

func (g *guildDal) collection() *mongo.Collection {
	return g.client.Database(mongoDatabase).Collection(collectionGuilds)
}

func (g *guildDal) GetOrCreate(ctx context.Context, guildID, guildName string) (*entities.GuildConfig, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: empty guild id", entities.ErrValidation)
	}

	monitoring.MongoTotalRequests.WithLabelValues(guildDalName, "get_or_create", mongoDatabase, collectionGuilds).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildDalName, "get_or_create", mongoDatabase, collectionGuilds))
	defer t.ObserveDuration()

	cfg := new(entities.GuildConfig)
	err := g.collection().FindOne(ctx, bson.M{"guild_id": guildID}).Decode(cfg)
	if err == nil {
		return cfg, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: error getting guild config: %w", entities.ErrDownstreamUnavailable, err)
	}

	// Lazily create the defaults. $setOnInsert keeps this safe against a
	// concurrent first access for the same guild.
	cfg = entities.NewGuildConfig(guildID, guildName)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	res := g.collection().FindOneAndUpdate(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$setOnInsert": cfg},
		opts,
	)

	created := new(entities.GuildConfig)
	if err := res.Decode(created); err != nil {
		return nil, fmt.Errorf("%w: error creating guild config: %w", entities.ErrDownstreamUnavailable, err)
	}

	g.l.Info("Created default guild config", slog.String(logging.KeyGuildID, guildID))
	return created, nil
}

func (g *guildDal) ApplyPatch(ctx context.Context, guildID string, patch map[string]any) (*entities.GuildConfig, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: empty guild id", entities.ErrValidation)
	} else if len(patch) == 0 {
		return g.GetOrCreate(ctx, guildID, "")
	}

	monitoring.MongoTotalRequests.WithLabelValues(guildDalName, "apply_patch", mongoDatabase, collectionGuilds).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildDalName, "apply_patch", mongoDatabase, collectionGuilds))
	defer t.ObserveDuration()

	// Each entry patches one leaf path, so concurrent patches to disjoint
	// fields do not clobber each other.
	set := bson.M{}
	for path, value := range patch {
		set[path] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := g.collection().FindOneAndUpdate(ctx, bson.M{"guild_id": guildID}, bson.M{"$set": set}, opts)

	cfg := new(entities.GuildConfig)
	if err := res.Decode(cfg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: guild %s", entities.ErrNotFound, guildID)
		}
		return nil, fmt.Errorf("%w: error patching guild config: %w", entities.ErrDownstreamUnavailable, err)
	}
	return cfg, nil
}

func (g *guildDal) Save(ctx context.Context, cfg *entities.GuildConfig) error {
	if cfg == nil || cfg.GuildID == "" {
		return fmt.Errorf("%w: empty guild id", entities.ErrValidation)
	}

	monitoring.MongoTotalRequests.WithLabelValues(guildDalName, "save_guild_config", mongoDatabase, collectionGuilds).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildDalName, "save_guild_config", mongoDatabase, collectionGuilds))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	if _, err := g.collection().UpdateOne(ctx, bson.M{"guild_id": cfg.GuildID}, bson.M{"$set": cfg}, opts); err != nil {
		return fmt.Errorf("%w: error saving guild config: %w", entities.ErrDownstreamUnavailable, err)
	}
	return nil
}

func (g *guildDal) Reset(ctx context.Context, guildID string) error {
	if guildID == "" {
		return fmt.Errorf("%w: empty guild id", entities.ErrValidation)
	}

	monitoring.MongoTotalRequests.WithLabelValues(guildDalName, "reset", mongoDatabase, collectionGuilds).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildDalName, "reset", mongoDatabase, collectionGuilds))
	defer t.ObserveDuration()

	if _, err := g.collection().DeleteOne(ctx, bson.M{"guild_id": guildID}); err != nil {
		return fmt.Errorf("%w: error resetting guild config: %w", entities.ErrDownstreamUnavailable, err)
	}

	g.l.Warn("Guild config reset", slog.String(logging.KeyGuildID, guildID))
	return nil
}
