package memory

import (
	"strconv"

	"github.com/farmstay/farmstay/internal/store"
)

// ExtractSessionState flattens the session's booking facts into the canonical
// map consumed by prompt construction and the summarizer checklist. Absent
// facts stay nil so templates can distinguish "not chosen" from zero values.
// The source marker identifies the map as bot-maintained ground truth.
func ExtractSessionState(sess *store.Session) map[string]any {
	state := map[string]any{
		"property_type": nil,
		"booking_date":  nil,
		"shift_type":    nil,
		"property_id":   nil,
		"booking_id":    nil,
		"min_price":     nil,
		"max_price":     nil,
		"max_occupancy": nil,
		"source":        "Bot",
	}
	if sess == nil {
		return state
	}
	if sess.PropertyType != nil {
		state["property_type"] = *sess.PropertyType
	}
	if sess.BookingDate != nil {
		state["booking_date"] = *sess.BookingDate
	}
	if sess.ShiftType != nil {
		state["shift_type"] = *sess.ShiftType
	}
	if sess.PropertyID != nil {
		state["property_id"] = strconv.FormatInt(*sess.PropertyID, 10)
	}
	if sess.BookingID != nil {
		state["booking_id"] = *sess.BookingID
	}
	if sess.MinPrice != nil {
		state["min_price"] = *sess.MinPrice
	}
	if sess.MaxPrice != nil {
		state["max_price"] = *sess.MaxPrice
	}
	if sess.MaxOccupancy != nil {
		state["max_occupancy"] = *sess.MaxOccupancy
	}
	return state
}
