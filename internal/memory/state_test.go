package memory

import (
	"testing"

	"github.com/farmstay/farmstay/internal/store"
)

func TestExtractSessionStateEmpty(t *testing.T) {
	state := ExtractSessionState(&store.Session{ID: 1})

	if state["source"] != "Bot" {
		t.Errorf("source = %v, want Bot", state["source"])
	}
	for _, key := range []string{
		"property_type", "booking_date", "shift_type", "property_id",
		"booking_id", "min_price", "max_price", "max_occupancy",
	} {
		v, ok := state[key]
		if !ok {
			t.Errorf("key %q missing from state map", key)
			continue
		}
		if v != nil {
			t.Errorf("state[%q] = %v, want nil", key, v)
		}
	}
}

func TestExtractSessionStatePopulated(t *testing.T) {
	propertyType := "farmhouse"
	bookingDate := "2026-09-05"
	shift := "night"
	propertyID := int64(42)
	bookingID := "BK-1001"
	minPrice, maxPrice := 5000.0, 12000.0
	occupancy := int64(10)

	state := ExtractSessionState(&store.Session{
		ID:           7,
		PropertyType: &propertyType,
		BookingDate:  &bookingDate,
		ShiftType:    &shift,
		PropertyID:   &propertyID,
		BookingID:    &bookingID,
		MinPrice:     &minPrice,
		MaxPrice:     &maxPrice,
		MaxOccupancy: &occupancy,
	})

	if state["property_type"] != "farmhouse" {
		t.Errorf("property_type = %v", state["property_type"])
	}
	if state["booking_date"] != "2026-09-05" {
		t.Errorf("booking_date = %v", state["booking_date"])
	}
	if state["property_id"] != "42" {
		t.Errorf("property_id = %v, want stringified \"42\"", state["property_id"])
	}
	if state["booking_id"] != "BK-1001" {
		t.Errorf("booking_id = %v", state["booking_id"])
	}
	if state["min_price"] != 5000.0 || state["max_price"] != 12000.0 {
		t.Errorf("prices = %v / %v", state["min_price"], state["max_price"])
	}
	if state["max_occupancy"] != int64(10) {
		t.Errorf("max_occupancy = %v", state["max_occupancy"])
	}
	if state["source"] != "Bot" {
		t.Errorf("source = %v, want Bot", state["source"])
	}
}

func TestExtractSessionStateNil(t *testing.T) {
	state := ExtractSessionState(nil)
	if state["source"] != "Bot" {
		t.Errorf("source = %v, want Bot", state["source"])
	}
	if state["property_type"] != nil {
		t.Errorf("property_type = %v, want nil", state["property_type"])
	}
}
