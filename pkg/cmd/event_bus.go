package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/clawtomations/pkg/eventbus"
)

func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "", "memory":
		return eventbus.NewInMemoryEventBus(watermill.NewSlogLogger(logger))
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
