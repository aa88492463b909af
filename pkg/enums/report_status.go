package enums

import "fmt"

// ReportStatus tracks a test report from placeholder to delivery.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusGenerated ReportStatus = "generated"
	ReportStatusVerified  ReportStatus = "verified"
	ReportStatusDelivered ReportStatus = "delivered"
)

var validReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusGenerated,
	ReportStatusVerified,
	ReportStatusDelivered,
}

var reportTransitions = map[ReportStatus]ReportStatus{
	ReportStatusPending:   ReportStatusGenerated,
	ReportStatusGenerated: ReportStatusVerified,
	ReportStatusVerified:  ReportStatusDelivered,
}

// String implements fmt.Stringer.
func (r ReportStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReportStatus.
func (r ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from r to next is the single legal
// forward step. Report statuses never move backwards.
func (r ReportStatus) CanTransitionTo(next ReportStatus) bool {
	allowed, ok := reportTransitions[r]
	return ok && allowed == next
}

// ParseReportStatus converts raw input into a ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}
