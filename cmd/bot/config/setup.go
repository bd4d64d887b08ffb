package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/dataaccess/connection"
	"github.com/nsilvan1/Bot-Frisck-ticket-cp/pkg/logging"
	"go.mongodb.org/mongo-driver/mongo"
)

// Parse reads the application configuration from the environment. The
// process exits when a required variable is missing.
func Parse(l *slog.Logger) {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"

		l.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if BotToken != "" &&
		ApplicationId != "" &&
		MongoUri != "" {

		// All required environment variables have been provided.
		l.Debug("All required environment variables have been provided")
		return
	}

	l.Error("Not all required environment variables have been provided", slog.String(logging.KeyError, "Incomplete configuration"))
	os.Exit(1)
}

// ConnectMongo connects to MongoDB with the parsed URI and returns the
// client for injection into the data access layer.
func ConnectMongo(l *slog.Logger) (*mongo.Client, error) {
	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect()
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	} else if db == nil {
		return nil, fmt.Errorf("mongo client came back nil")
	}

	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
	return db, nil
}
