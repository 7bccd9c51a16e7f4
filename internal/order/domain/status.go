package domain

// Status is an order's lifecycle state.
type Status string

const (
	StatusPendingPayment      Status = "PENDING_PAYMENT"
	StatusPaid                Status = "PAID"
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusPendingShipment     Status = "PENDING_SHIPMENT"
	StatusProcessing          Status = "PROCESSING"
	StatusShipped             Status = "SHIPPED"
)

// transitions is the directed edge set of the status machine. Self-transitions
// are always permitted and not listed.
var transitions = map[Status][]Status{
	StatusPendingPayment:      {StatusPaid, StatusPendingConfirmation, StatusProcessing},
	StatusPaid:                {StatusPendingShipment, StatusShipped},
	StatusPendingConfirmation: {StatusProcessing, StatusPendingShipment},
	StatusProcessing:          {StatusPendingShipment, StatusShipped},
	StatusPendingShipment:     {StatusShipped},
	StatusShipped:             {},
}

func ParseStatus(v string) (Status, bool) {
	if _, ok := transitions[Status(v)]; ok {
		return Status(v), true
	}
	return "", false
}

// CanTransitionTo reports whether to is reachable from s in a single step.
func (s Status) CanTransitionTo(to Status) bool {
	if s == to {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no other state is reachable from s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
