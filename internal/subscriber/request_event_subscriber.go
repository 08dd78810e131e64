package subscriber

import (
	"context"

	"github.com/quietdesk/backend/internal/eventbus"
	"k8s.io/klog/v2"
)

// RequestEventSubscriber mirrors request lifecycle events into the log. It
// carries no state of its own; the workflow already persists everything.
type RequestEventSubscriber struct{}

func NewRequestEventSubscriber() *RequestEventSubscriber {
	return &RequestEventSubscriber{}
}

func (s *RequestEventSubscriber) Register(bus *eventbus.RequestEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.RequestEventQueued, s.handleQueued)
	bus.Subscribe(eventbus.RequestEventStarted, s.handleStarted)
	bus.Subscribe(eventbus.RequestEventCompleted, s.handleCompleted)
	bus.Subscribe(eventbus.RequestEventFailed, s.handleFailed)
}

func (s *RequestEventSubscriber) handleQueued(ctx context.Context, event eventbus.RequestEvent) error {
	klog.V(6).Infof("request queued: requestID=%d, uuid=%s, type=%s, ownerID=%d",
		event.RequestID, event.RequestUUID, event.RequestType, event.OwnerID)
	return nil
}

func (s *RequestEventSubscriber) handleStarted(ctx context.Context, event eventbus.RequestEvent) error {
	klog.V(6).Infof("request started: requestID=%d, uuid=%s, type=%s, team=%v",
		event.RequestID, event.RequestUUID, event.RequestType, event.TeamRoles)
	return nil
}

func (s *RequestEventSubscriber) handleCompleted(ctx context.Context, event eventbus.RequestEvent) error {
	klog.Infof("request completed: requestID=%d, uuid=%s, type=%s, deliverableID=%d, team=%v",
		event.RequestID, event.RequestUUID, event.RequestType, event.DeliverableID, event.TeamRoles)
	return nil
}

func (s *RequestEventSubscriber) handleFailed(ctx context.Context, event eventbus.RequestEvent) error {
	klog.Errorf("request failed: requestID=%d, uuid=%s, type=%s, error=%s",
		event.RequestID, event.RequestUUID, event.RequestType, event.Error)
	return nil
}
