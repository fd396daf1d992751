package worker

import (
	"context"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/observability"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
)

// Subscribers groups the event consumers started with the API.
type Subscribers struct {
	Notifications *service.NotificationService
	Broker        *events.AMQPPublisher
	Metrics       *observability.Metrics
}

// Start registers every configured subscriber on dispatcher.
func Start(dispatcher events.Dispatcher, subs Subscribers) {
	if dispatcher == nil {
		return
	}
	if subs.Metrics != nil {
		for _, eventType := range events.AllEventTypes {
			dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
				subs.Metrics.RecordEvent(string(event.Type))
				return nil
			})
		}
	}
	if subs.Notifications != nil {
		subs.Notifications.RegisterHandlers()
	}
	if subs.Broker != nil {
		subs.Broker.Register(dispatcher)
	}
}
