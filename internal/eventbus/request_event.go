package eventbus

type RequestEventType string

const (
	RequestEventQueued    RequestEventType = "Queued"
	RequestEventStarted   RequestEventType = "Started"
	RequestEventCompleted RequestEventType = "Completed"
	RequestEventFailed    RequestEventType = "Failed"
)

// RequestEvent describes one lifecycle step of a team request.
type RequestEvent struct {
	Type          RequestEventType
	RequestID     uint
	RequestUUID   string
	OwnerID       uint
	RequestType   string
	TeamRoles     []string
	DeliverableID uint
	Error         string
}

type RequestEventHandler = Handler[RequestEvent]
type RequestEventBus = Bus[RequestEventType, RequestEvent]

func NewRequestEventBus() *RequestEventBus {
	return NewBus[RequestEventType, RequestEvent]()
}
