package enums

import "fmt"

// BookingItemStatus tracks a single test line inside a booking.
type BookingItemStatus string

const (
	BookingItemStatusPending    BookingItemStatus = "pending"
	BookingItemStatusCollected  BookingItemStatus = "collected"
	BookingItemStatusProcessing BookingItemStatus = "processing"
	BookingItemStatusCompleted  BookingItemStatus = "completed"
)

var validBookingItemStatuses = []BookingItemStatus{
	BookingItemStatusPending,
	BookingItemStatusCollected,
	BookingItemStatusProcessing,
	BookingItemStatusCompleted,
}

// String implements fmt.Stringer.
func (b BookingItemStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingItemStatus.
func (b BookingItemStatus) IsValid() bool {
	for _, candidate := range validBookingItemStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBookingItemStatus converts raw input into a BookingItemStatus.
func ParseBookingItemStatus(value string) (BookingItemStatus, error) {
	for _, candidate := range validBookingItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking item status %q", value)
}
