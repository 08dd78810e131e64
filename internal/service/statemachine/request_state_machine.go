package statemachine

import (
	"fmt"

	"k8s.io/klog/v2"
)

// RequestStatus enumerates the lifecycle of a team request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"    // created, waiting for trigger or queue slot
	RequestStatusProcessing RequestStatus = "processing" // team workflow running
	RequestStatusCompleted  RequestStatus = "completed"  // deliverable produced
	RequestStatusFailed     RequestStatus = "failed"     // workflow aborted, error_msg set
)

// RequestTransition is one edge of the request lifecycle graph.
type RequestTransition struct {
	From RequestStatus
	To   RequestStatus
}

// RequestStateMachine validates request status changes. Completed and failed
// are absorbing: nothing ever leaves them, a finished request is re-read,
// never re-run.
type RequestStateMachine struct {
	allowedTransitions map[RequestTransition]bool
}

func NewRequestStateMachine() *RequestStateMachine {
	sm := &RequestStateMachine{
		allowedTransitions: make(map[RequestTransition]bool),
	}

	// pending -> processing -> completed/failed
	transitions := []RequestTransition{
		{RequestStatusPending, RequestStatusProcessing},
		{RequestStatusProcessing, RequestStatusCompleted},
		{RequestStatusProcessing, RequestStatusFailed},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition reports whether the edge exists. Self transitions are never
// allowed.
func (sm *RequestStateMachine) CanTransition(from, to RequestStatus) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[RequestTransition{From: from, To: to}]
}

// ValidateTransition wraps CanTransition with a typed error.
func (sm *RequestStateMachine) ValidateTransition(from, to RequestStatus) error {
	if !sm.CanTransition(from, to) {
		return &InvalidStateTransitionError{
			From: string(from),
			To:   string(to),
		}
	}
	return nil
}

// Transition validates the edge and logs the outcome.
func (sm *RequestStateMachine) Transition(from, to RequestStatus, requestID uint) error {
	if err := sm.ValidateTransition(from, to); err != nil {
		klog.V(6).Infof("request state transition rejected: requestID=%d, %s -> %s, error=%v",
			requestID, from, to, err)
		return err
	}

	klog.V(6).Infof("request state transition: requestID=%d, %s -> %s", requestID, from, to)
	return nil
}

// InvalidStateTransitionError reports a rejected status change.
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid request state transition: %s -> %s", e.From, e.To)
}

// IsTerminal reports whether the status can never change again.
func IsTerminal(status RequestStatus) bool {
	return status == RequestStatusCompleted || status == RequestStatusFailed
}

// IsActive reports whether the request still owns or awaits a worker.
func IsActive(status RequestStatus) bool {
	return status == RequestStatusPending || status == RequestStatusProcessing
}
