package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/cmd/bot/config"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/cmd/bot/monitoring"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/gateway"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/request"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/router"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/ticketing"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// IApp is the interface for the application.
type IApp interface {
	// Session returns the discord session.
	Session() *discordgo.Session

	// Log returns the application logger.
	Log() *slog.Logger

	// Guilds returns the guild configuration store.
	Guilds() dataaccess.GuildDal

	// Tickets returns the ticket store.
	Tickets() dataaccess.TicketDal

	// Lifecycle returns the ticket lifecycle engine.
	Lifecycle() *ticketing.Lifecycle

	// Registry returns the category and panel registry.
	Registry() *ticketing.CategoryRegistry
}

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// mongo is the database client.
	mongo *mongo.Client

	// guilds is the guild configuration store.
	guilds dataaccess.GuildDal

	// tickets is the ticket store.
	tickets dataaccess.TicketDal

	// lifecycle is the ticket lifecycle engine.
	lifecycle *ticketing.Lifecycle

	// registry is the category and panel registry.
	registry *ticketing.CategoryRegistry

	// ir is the interaction router.
	ir *router.Router
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

func (a *App) Run() error {
	// Connect to the database and build the data access layer.
	if err := a.setupDataAccess(); err != nil {
		return fmt.Errorf("error setting up data access: %w", err)
	}

	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	// Build the ticketing components on top of the session.
	a.setupTicketing()

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) setupDataAccess() error {
	db, err := config.ConnectMongo(a.Log())
	if err != nil {
		return err
	}

	a.mongo = db
	a.guilds = dataaccess.NewGuildDal(a.Log(), db)
	a.tickets = dataaccess.NewTicketDal(a.Log(), db)
	return nil
}

func (a *App) setupTicketing() {
	gw := gateway.NewDiscord(a.s)
	archiver := gateway.NewDiscordArchiver(a.s, a.guilds)
	sink := gateway.NewDiscordSink(a.Log(), gw, a.guilds)
	seq := dataaccess.NewSequenceDal(a.Log(), a.mongo)

	a.lifecycle = ticketing.NewLifecycle(a.Log(), a.guilds, a.tickets, seq, gw, archiver, sink)
	a.registry = ticketing.NewCategoryRegistry(a.Log(), a.guilds)
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to runServer events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		slog.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), authOptionNone, a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Log())

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Log())
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + config.MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler, dispatching through the interaction router.
	a.ir = router.New(a.Log())
	registerSetupRoutes(a, a.ir)
	registerTicketRoutes(a, a.ir)
	a.s.AddHandler(interactionHandler(a, a.ir))
	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Register slash commands for each guild.
	for _, g := range guilds {
		// Register the setup command.
		if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, setupCmd); err != nil {
			return fmt.Errorf("error creating setup command for guild %s: %w", g.ID, err)
		}

		// Register the ticket command.
		if _, err := a.Session().ApplicationCommandCreate(config.ApplicationId, g.ID, ticketCmd); err != nil {
			return fmt.Errorf("error creating ticket command for guild %s: %w", g.ID, err)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	// Delete slash commands for each guild.
	for _, guild := range guilds {
		// Delete the setup command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, setupCmd.ID); err != nil {
			return fmt.Errorf("error deleting setup command for guild %s: %w", guild.ID, err)
		}

		// Delete the ticket command.
		if err := a.s.ApplicationCommandDelete(config.ApplicationId, guild.ID, ticketCmd.ID); err != nil {
			return fmt.Errorf("error deleting ticket command for guild %s: %w", guild.ID, err)
		}
	}
	return nil
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Guilds() dataaccess.GuildDal {
	return a.guilds
}

func (a *App) Tickets() dataaccess.TicketDal {
	return a.tickets
}

func (a *App) Lifecycle() *ticketing.Lifecycle {
	return a.lifecycle
}

func (a *App) Registry() *ticketing.CategoryRegistry {
	return a.registry
}
