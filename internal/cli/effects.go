package cli

import (
	"log"

	"merchant-onboarding/internal/cache"
	"merchant-onboarding/internal/config"
	"merchant-onboarding/internal/events"
)

// Effects are the admin cache and the event stream that contract mutations
// report to.
type Effects struct {
	Cache  cache.Cache
	Events events.Publisher
}

// Close releases the cache connection and the event writer.
func (e Effects) Close() {
	if err := e.Cache.Close(); err != nil {
		log.Printf("⚠️ Failed to close cache: %v", err)
	}
	if err := e.Events.Close(); err != nil {
		log.Printf("⚠️ Failed to close event publisher: %v", err)
	}
}

// Connector returns the effects a command reports to. Commands close what
// they connect.
type Connector func() Effects

// NopEffects neither caches nor publishes beyond the log.
func NopEffects() Effects {
	return Effects{Cache: cache.Nop{}, Events: events.LogPublisher{}}
}

// Connect dials Redis and Kafka when settings name them. An unreachable
// Redis disables caching instead of failing.
func Connect(settings config.Settings) Effects {
	e := NopEffects()
	if settings.RedisURL != "" {
		rc, err := cache.Connect(settings.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, admin caching disabled: %v", err)
		} else {
			e.Cache = rc
		}
	}
	if settings.KafkaBrokers != "" {
		e.Events = events.NewKafkaPublisher(settings.KafkaBrokers, settings.KafkaTopic)
	}
	return e
}

// EnvConnector connects what the environment configures.
func EnvConnector() Effects {
	return Connect(config.Load())
}
