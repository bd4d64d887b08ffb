package dataaccess

const mongoDatabase = "frisck"

const (
	// collectionGuilds holds one GuildConfig document per guild.
	collectionGuilds = "guilds"

	// collectionTickets holds one document per ticket.
	collectionTickets = "tickets"

	// collectionCounters holds the per-guild ticket sequence counters.
	collectionCounters = "counters"
)
