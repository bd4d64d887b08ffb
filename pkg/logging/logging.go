package logging

import (
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the key used for errors in log messages.
	KeyError = "err"

	// KeyDal is the key used for the data access layer name.
	KeyDal = "dal"

	// KeyGuildID is the key used for the guild ID.
	KeyGuildID = "guild_id"

	// KeyTicketID is the key used for the ticket ID.
	KeyTicketID = "ticket_id"

	// KeyUserID is the key used for the user ID.
	KeyUserID = "user_id"

	// KeyChannelID is the key used for the channel ID.
	KeyChannelID = "channel_id"

	// keyApp is the key used for the application name.
	keyApp = "app"

	// EnvLogLevel is the environment variable for the log level.
	EnvLogLevel = `LOG_LEVEL`
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name string

	// level is the minimum level to log at.
	level slog.Level
}

// NewConfig creates a new logger configuration for the named application.
func NewConfig(name Name) *Config {
	level := slog.LevelInfo
	switch strings.ToUpper(os.Getenv(EnvLogLevel)) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	return &Config{
		name:  string(name),
		level: level,
	}
}

// CommonLogger creates the common logger for the application. All components
// derive their loggers from this one.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String(keyApp, c.name))

	// Set the default logger so that packages logging before wiring is
	// complete still emit structured output.
	slog.SetDefault(l)

	return l, nil
}
