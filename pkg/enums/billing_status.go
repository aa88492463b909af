package enums

import "fmt"

// BillingStatus tracks a billing record through invoicing.
type BillingStatus string

const (
	BillingStatusDraft     BillingStatus = "draft"
	BillingStatusFinalized BillingStatus = "finalized"
	BillingStatusInvoiced  BillingStatus = "invoiced"
	BillingStatusPaid      BillingStatus = "paid"
)

var validBillingStatuses = []BillingStatus{
	BillingStatusDraft,
	BillingStatusFinalized,
	BillingStatusInvoiced,
	BillingStatusPaid,
}

var billingTransitions = map[BillingStatus]BillingStatus{
	BillingStatusDraft:     BillingStatusFinalized,
	BillingStatusFinalized: BillingStatusInvoiced,
	BillingStatusInvoiced:  BillingStatusPaid,
}

// String implements fmt.Stringer.
func (b BillingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingStatus.
func (b BillingStatus) IsValid() bool {
	for _, candidate := range validBillingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from b to next is the legal step.
func (b BillingStatus) CanTransitionTo(next BillingStatus) bool {
	allowed, ok := billingTransitions[b]
	return ok && allowed == next
}

// ParseBillingStatus converts raw input into a BillingStatus.
func ParseBillingStatus(value string) (BillingStatus, error) {
	for _, candidate := range validBillingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing status %q", value)
}
