package ticketing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
)

// CategoryRegistry manages the ticket categories and panels embedded in the
// guild configuration aggregate. Removal cascades into every panel in the
// same operation, so no panel ever references a category that does not
// exist.
type CategoryRegistry struct {
	// l is the logger.
	l *slog.Logger

	// guilds is the configuration store.
	guilds dataaccess.GuildDal
}

// NewCategoryRegistry creates a new category registry.
func NewCategoryRegistry(l *slog.Logger, guilds dataaccess.GuildDal) *CategoryRegistry {
	return &CategoryRegistry{
		l:      l,
		guilds: guilds,
	}
}

// CategoryFields are the editable fields of a category. Nil fields are left
// untouched.
type CategoryFields struct {
	Name            *string
	Emoji           *string
	Description     *string
	ParentChannelID *string
	StaffOnly       *bool
	Enabled         *bool
}

// AddCategory creates a new category under the given ID. The ID must match
// the category ID pattern and must not already exist.
func (r *CategoryRegistry) AddCategory(ctx context.Context, guildID, id string, desc entities.CategoryDescriptor) (*entities.GuildConfig, error) {
	if !entities.ValidCategoryID(id) {
		return nil, fmt.Errorf("%w: invalid category id %q", entities.ErrValidation, id)
	}

	cfg, err := r.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	if _, ok := cfg.TicketCategories[id]; ok {
		return nil, fmt.Errorf("%w: %q", entities.ErrDuplicateCategory, id)
	}

	// New categories accept tickets unless explicitly disabled later.
	desc.Enabled = true
	if cfg.TicketCategories == nil {
		cfg.TicketCategories = make(map[string]entities.CategoryDescriptor)
	}
	cfg.TicketCategories[id] = desc

	if err := r.guilds.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("error saving guild config: %w", err)
	}

	r.l.Info("Category added",
		slog.String(logging.KeyGuildID, guildID),
		slog.String("category", id),
	)
	return cfg, nil
}

// EditCategory updates the given fields of an existing category.
func (r *CategoryRegistry) EditCategory(ctx context.Context, guildID, id string, fields CategoryFields) (*entities.GuildConfig, error) {
	cfg, err := r.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	desc, ok := cfg.TicketCategories[id]
	if !ok {
		return nil, fmt.Errorf("%w: category %q", entities.ErrNotFound, id)
	}

	if fields.Name != nil {
		desc.Name = *fields.Name
	}
	if fields.Emoji != nil {
		desc.Emoji = *fields.Emoji
	}
	if fields.Description != nil {
		desc.Description = *fields.Description
	}
	if fields.ParentChannelID != nil {
		desc.ParentChannelID = *fields.ParentChannelID
	}
	if fields.StaffOnly != nil {
		desc.StaffOnly = *fields.StaffOnly
	}
	if fields.Enabled != nil {
		desc.Enabled = *fields.Enabled
	}
	cfg.TicketCategories[id] = desc

	if err := r.guilds.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("error saving guild config: %w", err)
	}
	return cfg, nil
}

// RemoveCategory deletes the category and removes its ID from every panel's
// category list as one save.
func (r *CategoryRegistry) RemoveCategory(ctx context.Context, guildID, id string) (*entities.GuildConfig, error) {
	cfg, err := r.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	if _, ok := cfg.TicketCategories[id]; !ok {
		return nil, fmt.Errorf("%w: category %q", entities.ErrNotFound, id)
	}

	delete(cfg.TicketCategories, id)
	cfg.RemoveCategoryRefs(id)

	if err := r.guilds.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("error saving guild config: %w", err)
	}

	r.l.Info("Category removed",
		slog.String(logging.KeyGuildID, guildID),
		slog.String("category", id),
	)
	return cfg, nil
}

// AddPanel appends a new panel exposing the given categories. Every
// referenced category must exist. The panel ID is generated.
func (r *CategoryRegistry) AddPanel(ctx context.Context, guildID, name string, categoryIDs []string, channelID string) (*entities.Panel, error) {
	cfg, err := r.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}

	for _, id := range categoryIDs {
		if _, ok := cfg.TicketCategories[id]; !ok {
			return nil, fmt.Errorf("%w: category %q", entities.ErrNotFound, id)
		}
	}

	panel := entities.Panel{
		PanelID:    uuid.NewString(),
		Name:       name,
		Categories: categoryIDs,
		ChannelID:  channelID,
	}
	cfg.TicketPanels = append(cfg.TicketPanels, panel)

	if err := r.guilds.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("error saving guild config: %w", err)
	}
	return &panel, nil
}

// RemovePanel deletes the panel with the given ID.
func (r *CategoryRegistry) RemovePanel(ctx context.Context, guildID, panelID string) error {
	cfg, err := r.guilds.GetOrCreate(ctx, guildID, "")
	if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	kept := cfg.TicketPanels[:0]
	found := false
	for _, p := range cfg.TicketPanels {
		if p.PanelID == panelID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("%w: panel %q", entities.ErrNotFound, panelID)
	}
	cfg.TicketPanels = kept

	if err := r.guilds.Save(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return nil
}
