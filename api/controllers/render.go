package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/pawdx/vetlab-backend/internal/bookings"
	"github.com/pawdx/vetlab-backend/pkg/db/models"
)

func decimalFromInt(value int) decimal.Decimal {
	return decimal.NewFromInt(int64(value))
}

func userView(user *models.User) map[string]any {
	if user == nil {
		return nil
	}
	return map[string]any{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
		"is_active": user.IsActive,
	}
}

func addressView(addr *models.Address) map[string]any {
	if addr == nil {
		return nil
	}
	return map[string]any{
		"id":          addr.ID,
		"label":       addr.Label,
		"line1":       addr.Line1,
		"line2":       addr.Line2,
		"city":        addr.City,
		"state":       addr.State,
		"postal_code": addr.PostalCode,
		"country":     addr.Country,
		"latitude":    addr.Latitude,
		"longitude":   addr.Longitude,
		"maps_link":   addr.MapsLink,
		"is_default":  addr.IsDefault,
	}
}

func addressListView(list []models.Address) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, addressView(&list[i]))
	}
	return out
}

func petView(pet *models.Pet) map[string]any {
	if pet == nil {
		return nil
	}
	return map[string]any{
		"id":         pet.ID,
		"name":       pet.Name,
		"species":    pet.Species,
		"breed":      pet.Breed,
		"age_months": pet.AgeMonths,
		"weight_kg":  pet.WeightKG,
		"notes":      pet.Notes,
	}
}

func petListView(list []models.Pet) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, petView(&list[i]))
	}
	return out
}

func staffView(member *models.Staff) map[string]any {
	if member == nil {
		return nil
	}
	return map[string]any{
		"id":            member.ID,
		"name":          member.Name,
		"phone":         member.Phone,
		"email":         member.Email,
		"role":          member.Role,
		"assigned_area": member.AssignedArea,
		"is_active":     member.IsActive,
	}
}

func staffListView(list []models.Staff) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, staffView(&list[i]))
	}
	return out
}

func categoryView(category *models.TestCategory) map[string]any {
	if category == nil {
		return nil
	}
	return map[string]any{
		"id":            category.ID,
		"name":          category.Name,
		"description":   category.Description,
		"display_order": category.DisplayOrder,
		"is_active":     category.IsActive,
	}
}

func categoryListView(list []models.TestCategory) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, categoryView(&list[i]))
	}
	return out
}

func testView(test *models.Test) map[string]any {
	if test == nil {
		return nil
	}
	return map[string]any{
		"id":               test.ID,
		"category_id":      test.CategoryID,
		"code":             test.Code,
		"name":             test.Name,
		"description":      test.Description,
		"price":            test.Price,
		"discounted_price": test.DiscountedPrice,
		"effective_price":  test.EffectivePrice(),
		"sample_type":      test.SampleType,
		"turnaround_hours": test.TurnaroundHours,
		"is_active":        test.IsActive,
	}
}

func testListView(list []models.Test) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, testView(&list[i]))
	}
	return out
}

func bookingItemView(item *models.BookingItem) map[string]any {
	if item == nil {
		return nil
	}
	view := map[string]any{
		"id":         item.ID,
		"test_id":    item.TestID,
		"quantity":   item.Quantity,
		"unit_price": item.UnitPrice,
		"status":     item.Status,
	}
	if item.Test != nil {
		view["test_name"] = item.Test.Name
	}
	if item.Report != nil {
		view["report_status"] = item.Report.Status
	}
	return view
}

func bookingView(booking *models.Booking) map[string]any {
	if booking == nil {
		return nil
	}
	items := make([]map[string]any, 0, len(booking.Items))
	for i := range booking.Items {
		items = append(items, bookingItemView(&booking.Items[i]))
	}
	view := map[string]any{
		"id":           booking.ID,
		"user_id":      booking.UserID,
		"pet_id":       booking.PetID,
		"address_id":   booking.AddressID,
		"status":       booking.Status,
		"booking_date": booking.BookingDate,
		"notes":        booking.Notes,
		"distance_km":  booking.DistanceKM,
		"items":        items,
	}
	if booking.CollectionStaffID != nil {
		view["collection_staff_id"] = booking.CollectionStaffID
	}
	if booking.CollectionStaff != nil {
		view["collection_staff"] = staffView(booking.CollectionStaff)
	}
	if booking.Pet != nil {
		view["pet"] = petView(booking.Pet)
	}
	if booking.Address != nil {
		view["address"] = addressView(booking.Address)
	}
	if booking.User != nil {
		view["customer"] = map[string]any{
			"id":    booking.User.ID,
			"name":  booking.User.Name,
			"phone": booking.User.Phone,
		}
	}
	return view
}

func bookingListView(list []models.Booking) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, bookingView(&list[i]))
	}
	return out
}

func upcomingView(list []bookings.UpcomingBooking) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		view := bookingView(&entry.Booking)
		view["local_time"] = entry.LocalTime
		out = append(out, view)
	}
	return out
}

func reportView(report *models.TestReport) map[string]any {
	if report == nil {
		return nil
	}
	return map[string]any{
		"id":              report.ID,
		"booking_item_id": report.BookingItemID,
		"batch_group_id":  report.BatchGroupID,
		"status":          report.Status,
		"findings":        report.Findings,
		"file_url":        report.ReportFileURL,
		"generated_at":    report.GeneratedAt,
		"verified_at":     report.VerifiedAt,
		"delivered_at":    report.DeliveredAt,
	}
}

func batchGroupView(group *models.TestBatchGroup) map[string]any {
	if group == nil {
		return nil
	}
	reports := make([]map[string]any, 0, len(group.Reports))
	for i := range group.Reports {
		reports = append(reports, reportView(&group.Reports[i]))
	}
	return map[string]any{
		"id":         group.ID,
		"booking_id": group.BookingID,
		"name":       group.Name,
		"notes":      group.Notes,
		"reports":    reports,
	}
}

func batchGroupListView(list []models.TestBatchGroup) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for i := range list {
		out = append(out, batchGroupView(&list[i]))
	}
	return out
}

func billingRecordView(record *models.BillingRecord) map[string]any {
	if record == nil {
		return nil
	}
	return map[string]any{
		"id":              record.ID,
		"booking_id":      record.BookingID,
		"status":          record.Status,
		"base_amount":     record.BaseAmount,
		"discount_amount": record.DiscountAmount,
		"distance_charge": record.DistanceCharge,
		"final_amount":    record.FinalAmount,
		"billing_period":  record.BillingPeriod,
		"invoice_number":  record.InvoiceNumber,
		"finalized_at":    record.FinalizedAt,
		"invoiced_at":     record.InvoicedAt,
		"paid_at":         record.PaidAt,
	}
}

func offerView(offer *models.Offer) map[string]any {
	if offer == nil {
		return nil
	}
	return map[string]any{
		"id":                  offer.ID,
		"name":                offer.Name,
		"description":         offer.Description,
		"discount_type":       offer.DiscountType,
		"discount_value":      offer.DiscountValue,
		"applicable_tests":    offer.ApplicableTests,
		"minimum_order_value": offer.MinimumOrderValue,
		"starts_at":           offer.StartsAt,
		"ends_at":             offer.EndsAt,
		"is_active":           offer.IsActive,
	}
}

func couponView(coupon *models.Coupon) map[string]any {
	if coupon == nil {
		return nil
	}
	view := map[string]any{
		"id":                coupon.ID,
		"code":              coupon.Code,
		"offer_id":          coupon.OfferID,
		"max_uses":          coupon.MaxUses,
		"max_uses_per_user": coupon.MaxUsesPerUser,
		"current_uses":      coupon.CurrentUses,
		"starts_at":         coupon.StartsAt,
		"ends_at":           coupon.EndsAt,
		"is_active":         coupon.IsActive,
	}
	if coupon.Offer != nil {
		view["offer"] = offerView(coupon.Offer)
	}
	return view
}

func distanceConfigView(cfg *models.DistancePricingConfig) map[string]any {
	if cfg == nil {
		return nil
	}
	return map[string]any{
		"id":                   cfg.ID,
		"name":                 cfg.Name,
		"base_charge":          cfg.BaseCharge,
		"charge_per_km":        cfg.ChargePerKM,
		"max_free_distance_km": cfg.MaxFreeDistanceKM,
		"effective_from":       cfg.EffectiveFrom,
		"effective_until":      cfg.EffectiveUntil,
		"is_active":            cfg.IsActive,
	}
}
