package enums

import "fmt"

// BillingBucket names the calendar views the billing dashboard exposes.
type BillingBucket string

const (
	BillingBucketToday   BillingBucket = "today"
	BillingBucketMonth   BillingBucket = "month"
	BillingBucketPending BillingBucket = "pending"
	BillingBucketFuture  BillingBucket = "future"
	BillingBucketAll     BillingBucket = "all"
)

var validBillingBuckets = []BillingBucket{
	BillingBucketToday,
	BillingBucketMonth,
	BillingBucketPending,
	BillingBucketFuture,
	BillingBucketAll,
}

// String implements fmt.Stringer.
func (b BillingBucket) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BillingBucket.
func (b BillingBucket) IsValid() bool {
	for _, candidate := range validBillingBuckets {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillingBucket converts raw input into a BillingBucket.
func ParseBillingBucket(value string) (BillingBucket, error) {
	for _, candidate := range validBillingBuckets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing bucket %q", value)
}
