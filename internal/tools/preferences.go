package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/farmstay/farmstay/internal/store"
)

// StateNotifier flags a session for a near-term summary refresh after a
// booking fact changed. Implemented by the memory manager.
type StateNotifier interface {
	MarkStateChange(ctx context.Context, sessionID int64) error
}

// sessionFromCtx resolves the active session id from the turn context.
func sessionFromCtx(ctx context.Context) (int64, error) {
	tc := TurnCtx(ctx)
	if tc.SessionID == 0 {
		return 0, fmt.Errorf("no active session for this turn")
	}
	return tc.SessionID, nil
}

// numArg reads a numeric parameter, accepting the float64 the JSON decoder
// produces as well as plain ints.
func numArg(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// applyPreference persists the update and raises the summarization flag.
func applyPreference(ctx context.Context, st *store.Store, notifier StateNotifier, update *store.UpdateSession) error {
	if err := st.UpdateSession(ctx, update); err != nil {
		return err
	}
	return notifier.MarkStateChange(ctx, update.ID)
}

// ---------------------------------------------------------------------------
// select_property
// ---------------------------------------------------------------------------

// SelectPropertyTool records which property the guest picked.
type SelectPropertyTool struct {
	store    *store.Store
	notifier StateNotifier
}

func NewSelectPropertyTool(st *store.Store, notifier StateNotifier) *SelectPropertyTool {
	return &SelectPropertyTool{store: st, notifier: notifier}
}

func (t *SelectPropertyTool) Name() string { return string(ToolSelectProperty) }
func (t *SelectPropertyTool) Description() string {
	return "Record the property the guest selected. Call when the guest settles on a specific farmhouse or hut."
}
func (t *SelectPropertyTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"property_id": {
				"type": "integer",
				"description": "Numeric id of the selected property"
			},
			"property_type": {
				"type": "string",
				"enum": ["farmhouse", "hut"],
				"description": "Kind of property"
			}
		},
		"required": ["property_id"]
	}`)
}

func (t *SelectPropertyTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	sid, err := sessionFromCtx(ctx)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	idf, ok := numArg(params, "property_id")
	if !ok || idf <= 0 {
		return "Error: property_id is required", nil
	}
	propertyID := int64(idf)

	update := &store.UpdateSession{ID: sid, PropertyID: &propertyID}
	if pt, _ := params["property_type"].(string); pt != "" {
		if pt != "farmhouse" && pt != "hut" {
			return fmt.Sprintf("Error: property_type must be farmhouse or hut, got %q", pt), nil
		}
		update.PropertyType = &pt
	}
	if err := applyPreference(ctx, t.store, t.notifier, update); err != nil {
		return "", fmt.Errorf("select property: %w", err)
	}
	return fmt.Sprintf("Property %d selected.", propertyID), nil
}

// ---------------------------------------------------------------------------
// set_booking_date
// ---------------------------------------------------------------------------

// SetBookingDateTool validates and records the requested stay date.
type SetBookingDateTool struct {
	store       *store.Store
	notifier    StateNotifier
	horizonDays int
	now         func() time.Time
}

func NewSetBookingDateTool(st *store.Store, notifier StateNotifier, horizonDays int) *SetBookingDateTool {
	return &SetBookingDateTool{
		store:       st,
		notifier:    notifier,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

func (t *SetBookingDateTool) Name() string { return string(ToolSetBookingDate) }
func (t *SetBookingDateTool) Description() string {
	return "Set the booking date for the stay. Rejects past dates and dates beyond the booking horizon."
}
func (t *SetBookingDateTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"date": {
				"type": "string",
				"description": "Stay date in YYYY-MM-DD format"
			}
		},
		"required": ["date"]
	}`)
}

func (t *SetBookingDateTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	sid, err := sessionFromCtx(ctx)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	raw, _ := params["date"].(string)
	if raw == "" {
		return "Error: date is required", nil
	}
	date, err := ValidateBookingDate(raw, t.now(), t.horizonDays)
	if err != nil {
		return "Error: " + err.Error(), nil
	}

	if err := applyPreference(ctx, t.store, t.notifier, &store.UpdateSession{
		ID: sid, BookingDate: &date,
	}); err != nil {
		return "", fmt.Errorf("set booking date: %w", err)
	}
	return fmt.Sprintf("Booking date set to %s.", date), nil
}

// ---------------------------------------------------------------------------
// set_shift
// ---------------------------------------------------------------------------

// SetShiftTool records which shift the guest wants.
type SetShiftTool struct {
	store    *store.Store
	notifier StateNotifier
}

func NewSetShiftTool(st *store.Store, notifier StateNotifier) *SetShiftTool {
	return &SetShiftTool{store: st, notifier: notifier}
}

func (t *SetShiftTool) Name() string { return string(ToolSetShift) }
func (t *SetShiftTool) Description() string {
	return "Set the booking shift: morning, night, or full_day."
}
func (t *SetShiftTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"shift": {
				"type": "string",
				"enum": ["morning", "night", "full_day"],
				"description": "Requested shift"
			}
		},
		"required": ["shift"]
	}`)
}

func (t *SetShiftTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	sid, err := sessionFromCtx(ctx)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	shift, _ := params["shift"].(string)
	switch shift {
	case "morning", "night", "full_day":
	default:
		return fmt.Sprintf("Error: shift must be morning, night, or full_day, got %q", shift), nil
	}

	if err := applyPreference(ctx, t.store, t.notifier, &store.UpdateSession{
		ID: sid, ShiftType: &shift,
	}); err != nil {
		return "", fmt.Errorf("set shift: %w", err)
	}
	return fmt.Sprintf("Shift set to %s.", shift), nil
}

// ---------------------------------------------------------------------------
// set_budget
// ---------------------------------------------------------------------------

// SetBudgetTool records the guest's price range and group size.
type SetBudgetTool struct {
	store    *store.Store
	notifier StateNotifier
}

func NewSetBudgetTool(st *store.Store, notifier StateNotifier) *SetBudgetTool {
	return &SetBudgetTool{store: st, notifier: notifier}
}

func (t *SetBudgetTool) Name() string { return string(ToolSetBudget) }
func (t *SetBudgetTool) Description() string {
	return "Record the guest's budget range and group size. Provide any subset of the fields."
}
func (t *SetBudgetTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"min_price": {
				"type": "number",
				"description": "Minimum price per stay"
			},
			"max_price": {
				"type": "number",
				"description": "Maximum price per stay"
			},
			"max_occupancy": {
				"type": "integer",
				"description": "Number of guests"
			}
		}
	}`)
}

func (t *SetBudgetTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	sid, err := sessionFromCtx(ctx)
	if err != nil {
		return "Error: " + err.Error(), nil
	}

	update := &store.UpdateSession{ID: sid}
	minPrice, hasMin := numArg(params, "min_price")
	maxPrice, hasMax := numArg(params, "max_price")
	occupancy, hasOcc := numArg(params, "max_occupancy")

	if !hasMin && !hasMax && !hasOcc {
		return "Error: provide at least one of min_price, max_price, max_occupancy", nil
	}
	if hasMin && hasMax && minPrice > maxPrice {
		return fmt.Sprintf("Error: min_price %.0f exceeds max_price %.0f", minPrice, maxPrice), nil
	}
	if hasMin {
		update.MinPrice = &minPrice
	}
	if hasMax {
		update.MaxPrice = &maxPrice
	}
	if hasOcc {
		if occupancy < 1 {
			return "Error: max_occupancy must be at least 1", nil
		}
		n := int64(occupancy)
		update.MaxOccupancy = &n
	}

	if err := applyPreference(ctx, t.store, t.notifier, update); err != nil {
		return "", fmt.Errorf("set budget: %w", err)
	}
	return "Budget preferences saved.", nil
}

// ---------------------------------------------------------------------------
// clear_preferences
// ---------------------------------------------------------------------------

// ClearPreferencesTool drops all recorded preferences so the guest can start
// over. An existing booking id is kept.
type ClearPreferencesTool struct {
	store    *store.Store
	notifier StateNotifier
}

func NewClearPreferencesTool(st *store.Store, notifier StateNotifier) *ClearPreferencesTool {
	return &ClearPreferencesTool{store: st, notifier: notifier}
}

func (t *ClearPreferencesTool) Name() string { return string(ToolClearPreferences) }
func (t *ClearPreferencesTool) Description() string {
	return "Clear all recorded booking preferences (property, date, shift, budget). Keeps any confirmed booking."
}
func (t *ClearPreferencesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ClearPreferencesTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	sid, err := sessionFromCtx(ctx)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	if err := applyPreference(ctx, t.store, t.notifier, &store.UpdateSession{
		ID: sid, ClearBookingFacts: true,
	}); err != nil {
		return "", fmt.Errorf("clear preferences: %w", err)
	}
	return "Preferences cleared.", nil
}
