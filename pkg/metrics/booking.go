package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics records counters for the booking workflow.
type BookingMetrics struct {
	created           prometheus.Counter
	failed            prometheus.Counter
	couponRedemptions prometheus.Counter
	notifySent        prometheus.Counter
	notifyFailed      prometheus.Counter
	reportsUploaded   prometheus.Counter
}

// NewBookingMetrics registers booking workflow metrics on the provided registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings successfully created.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Booking creation attempts that returned an error.",
	})
	couponRedemptions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Coupons redeemed inside booking transactions.",
	})
	notifySent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Operational notifications dispatched.",
	})
	notifyFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Operational notifications that failed to send.",
	})
	reportsUploaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reports_uploaded_total",
		Help: "Test report files stored.",
	})
	reg.MustRegister(created, failed, couponRedemptions, notifySent, notifyFailed, reportsUploaded)
	return &BookingMetrics{
		created:           created,
		failed:            failed,
		couponRedemptions: couponRedemptions,
		notifySent:        notifySent,
		notifyFailed:      notifyFailed,
		reportsUploaded:   reportsUploaded,
	}
}

// IncCreated increments the created-bookings counter.
func (b *BookingMetrics) IncCreated() {
	if b == nil || b.created == nil {
		return
	}
	b.created.Inc()
}

// IncFailed increments the failed-bookings counter.
func (b *BookingMetrics) IncFailed() {
	if b == nil || b.failed == nil {
		return
	}
	b.failed.Inc()
}

// IncCouponRedemption increments the coupon redemption counter.
func (b *BookingMetrics) IncCouponRedemption() {
	if b == nil || b.couponRedemptions == nil {
		return
	}
	b.couponRedemptions.Inc()
}

// IncNotifySent increments the dispatched-notification counter.
func (b *BookingMetrics) IncNotifySent() {
	if b == nil || b.notifySent == nil {
		return
	}
	b.notifySent.Inc()
}

// IncNotifyFailed increments the failed-notification counter.
func (b *BookingMetrics) IncNotifyFailed() {
	if b == nil || b.notifyFailed == nil {
		return
	}
	b.notifyFailed.Inc()
}

// IncReportUploaded increments the stored-report counter.
func (b *BookingMetrics) IncReportUploaded() {
	if b == nil || b.reportsUploaded == nil {
		return
	}
	b.reportsUploaded.Inc()
}
