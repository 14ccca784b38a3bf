package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/envsense/airwatch/internal/alertlog"
	"github.com/envsense/airwatch/internal/api"
	"github.com/envsense/airwatch/internal/constants"
	"github.com/envsense/airwatch/internal/liveness"
	"github.com/envsense/airwatch/internal/service_registry"
	"github.com/envsense/airwatch/internal/services"
	"github.com/envsense/airwatch/internal/settings"
	"github.com/envsense/airwatch/internal/utils"
	"github.com/envsense/airwatch/internal/ws"
	"github.com/envsense/airwatch/pkg/file"
	"github.com/envsense/airwatch/pkg/mqtt"
)

func main() {
	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	log.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	pollInterval := constants.LivenessPollInterval
	if config.Feed.PollInterval > 0 {
		pollInterval = time.Duration(config.Feed.PollInterval) * time.Second
	}
	offlineThreshold := constants.OfflineThreshold
	if config.Feed.OfflineThreshold > 0 {
		offlineThreshold = time.Duration(config.Feed.OfflineThreshold) * time.Second
	}

	// Open the alert log store
	db, err := alertlog.OpenDB(config.Storage.AlertLogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open alert log store")
	}
	defer db.Close()
	alertStore := alertlog.NewSQLiteStore(db)

	// Settings are re-read on every evaluation; external writers may update
	// the document at any time.
	settingsStore := settings.NewFileStore(config.Storage.SettingsFile, fileClient, log)

	hub := ws.NewHub(log)
	tracker := liveness.NewTracker(offlineThreshold)

	alertService := services.NewAlertService(alertStore, fileClient, config.Storage.CooldownLedgerFile, log)
	if err := alertService.LoadLedger(); err != nil {
		// A lost ledger only risks one early alert per category.
		log.Warn().Err(err).Msg("Failed to restore cooldown ledger, starting fresh")
	}

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient)
	feedService := services.NewFeedService(
		config.Feed.Topic,
		config.Feed.QOS,
		mqttClient,
		tracker,
		alertService,
		settingsStore,
		hub,
		services.FeedOptions{
			IncludeRawData:      config.Feed.IncludeRawData,
			EnableNotifications: config.Feed.EnableNotifications,
		},
		pollInterval,
		log,
	)

	err = mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate,
		feedService.HandleConnectionLost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(log)
	serviceRegistry.RegisterService("websocket-hub", hub)
	serviceRegistry.RegisterService("feed", feedService)

	if config.Retention.Enabled {
		window := constants.RetentionWindow
		if config.Retention.WindowHours > 0 {
			window = time.Duration(config.Retention.WindowHours) * time.Hour
		}
		sweepInterval := constants.RetentionSweepInterval
		if config.Retention.SweepInterval > 0 {
			sweepInterval = time.Duration(config.Retention.SweepInterval) * time.Second
		}
		serviceRegistry.RegisterService("retention",
			services.NewRetentionService(alertStore, window, sweepInterval, log))
	}

	if config.HTTP.Enabled {
		handler := api.NewHandler(feedService, alertStore, settingsStore, hub, log)
		serviceRegistry.RegisterService("http", api.NewServer(config.HTTP.ListenAddress, handler.InitRoutes(), log))
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Failed to stop some services")
	}
	mqttClient.Disconnect(250)
}
