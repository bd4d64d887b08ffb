package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidCategoryID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{
			name: "Simple",
			id:   "suporte",
			want: true,
		},
		{
			name: "WithDigitsAndSeparators",
			id:   "bug_report-2",
			want: true,
		},
		{
			name: "TooShort",
			id:   "a",
			want: false,
		},
		{
			name: "TooLong",
			id:   "abcdefghijklmnopqrstu",
			want: false,
		},
		{
			name: "UppercaseRejected",
			id:   "Suporte",
			want: false,
		},
		{
			name: "SpacesRejected",
			id:   "my category",
			want: false,
		},
		{
			name: "Empty",
			id:   "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidCategoryID(tt.id))
		})
	}
}

func TestNewGuildConfigDefaults(t *testing.T) {
	cfg := NewGuildConfig("guild-1", "My Server")

	require.Equal(t, "guild-1", cfg.GuildID)
	require.Equal(t, "My Server", cfg.Name)
	require.True(t, cfg.TicketSettings.Enabled)
	require.Equal(t, 1, cfg.TicketSettings.MaxTicketsPerUser)
	require.Empty(t, cfg.TicketSettings.SupportRoleIDs)
	require.Empty(t, cfg.TicketPanels)

	// The default category set is seeded and enabled.
	require.Len(t, cfg.TicketCategories, 4)
	for id, c := range cfg.TicketCategories {
		require.True(t, ValidCategoryID(id))
		require.True(t, c.Enabled)
		require.NotEmpty(t, c.Name)
	}
}

func TestGuildConfigPanel(t *testing.T) {
	cfg := NewGuildConfig("guild-1", "My Server")
	cfg.TicketPanels = []Panel{
		{PanelID: "p-1", Name: "Main"},
		{PanelID: "p-2", Name: "Staff"},
	}

	p := cfg.Panel("p-2")
	require.NotNil(t, p)
	require.Equal(t, "Staff", p.Name)

	require.Nil(t, cfg.Panel("p-3"))
}

func TestRemoveCategoryRefs(t *testing.T) {
	cfg := NewGuildConfig("guild-1", "My Server")
	cfg.TicketPanels = []Panel{
		{PanelID: "p-1", Categories: []string{"suporte", "bugs"}},
		{PanelID: "p-2", Categories: []string{"bugs"}},
		{PanelID: "p-3", Categories: []string{"denuncia"}},
	}

	cfg.RemoveCategoryRefs("bugs")

	require.Equal(t, []string{"suporte"}, cfg.TicketPanels[0].Categories)
	require.Empty(t, cfg.TicketPanels[1].Categories)
	require.Equal(t, []string{"denuncia"}, cfg.TicketPanels[2].Categories)
}
