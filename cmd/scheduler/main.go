package main

import (
	"context"

	"slotbook/internal/schedules/handler"
	"slotbook/internal/schedules/repository"
	"slotbook/internal/schedules/service"
	schedulesvalidator "slotbook/internal/schedules/validator"
	wizardhandler "slotbook/internal/wizard/handler"
	wizardservice "slotbook/internal/wizard/service"
	wizardvalidator "slotbook/internal/wizard/validator"
	"slotbook/pkg/app"
	"slotbook/pkg/config"
	"slotbook/pkg/kafka"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetCollaborators()

	cfg.Log.Info("Starting Scheduler service")

	publisher, err := kafka.NewPublisher(cfg.Kafka, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "error", err)
	}

	eventService := initCalendar(cfg, publisher)
	registry := initWizards(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewCalendarHandler(eventService, cfg.Log),
		wizardhandler.NewWizardHandler(registry, cfg.Log),
	)
	serverApp.OnShutdown("wizard-registry", func(context.Context) error {
		registry.Stop()
		return nil
	})
	serverApp.OnShutdown("event-publisher", func(context.Context) error {
		return publisher.Close()
	})
	serverApp.Run()
}

func initCalendar(cfg *config.Config, publisher *kafka.Publisher) service.EventService {
	eventValidator := schedulesvalidator.NewEventValidator(cfg.Log)
	eventRepo := repository.NewMongoEventRepository(cfg)

	eventService := service.NewEventService(
		eventRepo,
		eventValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Calendar service initialized", "database", cfg.MongoDatabaseName)
	return eventService
}

func initWizards(cfg *config.Config, publisher *kafka.Publisher) *wizardservice.Registry {
	deps := wizardservice.Deps{
		Submitter:     cfg.Client.BookingClient,
		Slots:         cfg.Client.SlotClient,
		Validator:     wizardvalidator.NewDraftValidator(cfg.Log, cfg.BookingHorizonMonths),
		Notifier:      publisher,
		Log:           cfg.Log,
		SlotTimeout:   cfg.SlotFetchTimeout,
		SubmitTimeout: cfg.SubmitTimeout,
	}

	registry, err := wizardservice.NewRegistry(deps, cfg.WizardSessionTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking wizard registry", "error", err)
	}
	cfg.Log.Info("Booking wizard initialized",
		"session_ttl", cfg.WizardSessionTTL,
		"horizon_months", cfg.BookingHorizonMonths,
	)
	return registry
}
