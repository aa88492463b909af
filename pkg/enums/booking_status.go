package enums

import "fmt"

// BookingStatus tracks a booking from creation through completion.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCollected  BookingStatus = "collected"
	BookingStatusProcessing BookingStatus = "processing"
	BookingStatusDone       BookingStatus = "done"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCollected,
	BookingStatusProcessing,
	BookingStatusDone,
	BookingStatusCancelled,
}

// bookingTransitions holds the forward edges of the lifecycle. Cancellation is
// handled separately since it is reachable from every non-terminal state.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed},
	BookingStatusConfirmed:  {BookingStatusCollected},
	BookingStatusCollected:  {BookingStatusProcessing},
	BookingStatusProcessing: {BookingStatusDone},
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (b BookingStatus) IsTerminal() bool {
	return b == BookingStatusDone || b == BookingStatusCancelled
}

// CanTransitionTo reports whether moving from b to next is a legal step.
func (b BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if !b.IsValid() || !next.IsValid() {
		return false
	}
	if next == BookingStatusCancelled {
		return !b.IsTerminal()
	}
	for _, candidate := range bookingTransitions[b] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
