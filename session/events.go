package session

// Event is a typed transport-level event. The connection pushes events
// onto a single ordered queue per session; the reconciler's run loop is
// the only consumer, which keeps state transitions race-free.
type Event interface {
	isEvent()
}

// Connected confirms the transport-level connection and authentication.
type Connected struct{}

// Disconnected reports a transport failure. All subscriptions made on the
// connection are invalid from this point; there is no implicit resume.
type Disconnected struct {
	Reason string
}

// Publication carries one live delivery. Payload is a domain.Message for
// chat channels or a domain.Chat for directory channels.
type Publication struct {
	Channel string
	Payload any
}

func (Connected) isEvent()    {}
func (Disconnected) isEvent() {}
func (Publication) isEvent()  {}
