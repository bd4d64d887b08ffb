package ticketing

import (
	"context"
	"testing"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/entities"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/stretchr/testify/require"
)

func newRegistryFixture(t *testing.T) (*CategoryRegistry, *fakeGuildDal) {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	guilds := newFakeGuildDal()
	return NewCategoryRegistry(l, guilds), guilds
}

func TestAddCategory(t *testing.T) {
	r, _ := newRegistryFixture(t)

	cfg, err := r.AddCategory(context.Background(), testGuild, "vendas", entities.CategoryDescriptor{
		Name:        "Vendas",
		Description: "Purchases and payments",
	})
	require.NoError(t, err)

	cat, ok := cfg.TicketCategories["vendas"]
	require.True(t, ok)
	require.Equal(t, "Vendas", cat.Name)

	// New categories accept tickets immediately.
	require.True(t, cat.Enabled)
}

func TestAddCategoryInvalidID(t *testing.T) {
	r, _ := newRegistryFixture(t)

	tests := []string{"", "A", "Has Space", "UPPER", "way_too_long_for_an_id"}
	for _, id := range tests {
		_, err := r.AddCategory(context.Background(), testGuild, id, entities.CategoryDescriptor{Name: "x"})
		require.ErrorIs(t, err, entities.ErrValidation, "id %q", id)
	}
}

func TestAddCategoryDuplicate(t *testing.T) {
	r, _ := newRegistryFixture(t)

	// "suporte" is part of the default set.
	_, err := r.AddCategory(context.Background(), testGuild, "suporte", entities.CategoryDescriptor{Name: "Again"})
	require.ErrorIs(t, err, entities.ErrDuplicateCategory)
}

func TestEditCategory(t *testing.T) {
	r, _ := newRegistryFixture(t)

	name := "Novo Suporte"
	enabled := false
	cfg, err := r.EditCategory(context.Background(), testGuild, "suporte", CategoryFields{
		Name:    &name,
		Enabled: &enabled,
	})
	require.NoError(t, err)

	cat := cfg.TicketCategories["suporte"]
	require.Equal(t, "Novo Suporte", cat.Name)
	require.False(t, cat.Enabled)

	// Untouched fields survive.
	require.NotEmpty(t, cat.Description)
}

func TestEditCategoryNotFound(t *testing.T) {
	r, _ := newRegistryFixture(t)

	name := "x"
	_, err := r.EditCategory(context.Background(), testGuild, "missing", CategoryFields{Name: &name})
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRemoveCategoryCascadesToPanels(t *testing.T) {
	r, guilds := newRegistryFixture(t)

	cfg, err := guilds.GetOrCreate(context.Background(), testGuild, "")
	require.NoError(t, err)
	cfg.TicketPanels = []entities.Panel{
		{PanelID: "p-1", Categories: []string{"suporte", "bugs"}},
		{PanelID: "p-2", Categories: []string{"bugs"}},
	}

	got, err := r.RemoveCategory(context.Background(), testGuild, "bugs")
	require.NoError(t, err)

	_, ok := got.TicketCategories["bugs"]
	require.False(t, ok)

	// No panel keeps a reference to the removed category.
	require.Equal(t, []string{"suporte"}, got.TicketPanels[0].Categories)
	require.Empty(t, got.TicketPanels[1].Categories)
}

func TestRemoveCategoryNotFound(t *testing.T) {
	r, _ := newRegistryFixture(t)

	_, err := r.RemoveCategory(context.Background(), testGuild, "missing")
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestAddPanel(t *testing.T) {
	r, guilds := newRegistryFixture(t)

	panel, err := r.AddPanel(context.Background(), testGuild, "Main", []string{"suporte", "bugs"}, "chan-1")
	require.NoError(t, err)
	require.NotEmpty(t, panel.PanelID)
	require.Equal(t, "Main", panel.Name)

	cfg, err := guilds.GetOrCreate(context.Background(), testGuild, "")
	require.NoError(t, err)
	require.NotNil(t, cfg.Panel(panel.PanelID))
}

func TestAddPanelUnknownCategory(t *testing.T) {
	r, _ := newRegistryFixture(t)

	_, err := r.AddPanel(context.Background(), testGuild, "Main", []string{"missing"}, "chan-1")
	require.ErrorIs(t, err, entities.ErrNotFound)
}

func TestRemovePanel(t *testing.T) {
	r, _ := newRegistryFixture(t)

	panel, err := r.AddPanel(context.Background(), testGuild, "Main", []string{"suporte"}, "chan-1")
	require.NoError(t, err)

	require.NoError(t, r.RemovePanel(context.Background(), testGuild, panel.PanelID))
	require.ErrorIs(t, r.RemovePanel(context.Background(), testGuild, panel.PanelID), entities.ErrNotFound)
}
