package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/store/db/sqlite"
)

type fakeNotifier struct {
	marked []int64
}

func (n *fakeNotifier) MarkStateChange(ctx context.Context, sessionID int64) error {
	n.marked = append(n.marked, sessionID)
	return nil
}

func newToolFixture(t *testing.T) (*store.Store, *fakeNotifier, context.Context, int64) {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "tools.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	st := store.New(db)

	sess, err := st.GetOrCreateSession(context.Background(), "whatsapp:tools")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	ctx := WithTurn(context.Background(), TurnContext{SessionID: sess.ID, Channel: "whatsapp", ChatID: "tools"})
	return st, &fakeNotifier{}, ctx, sess.ID
}

func TestSelectProperty(t *testing.T) {
	st, notifier, ctx, sid := newToolFixture(t)
	tool := NewSelectPropertyTool(st, notifier)

	out, err := tool.Execute(ctx, map[string]any{"property_id": float64(12), "property_type": "farmhouse"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.HasPrefix(out, "Error") {
		t.Fatalf("Execute = %q", out)
	}

	sess, err := st.GetSessionByID(ctx, sid)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if sess.PropertyID == nil || *sess.PropertyID != 12 {
		t.Errorf("property_id = %v, want 12", sess.PropertyID)
	}
	if sess.PropertyType == nil || *sess.PropertyType != "farmhouse" {
		t.Errorf("property_type = %v", sess.PropertyType)
	}
	if len(notifier.marked) != 1 || notifier.marked[0] != sid {
		t.Errorf("state change marks = %v, want [%d]", notifier.marked, sid)
	}
}

func TestSelectPropertyRejectsBadInput(t *testing.T) {
	st, notifier, ctx, _ := newToolFixture(t)
	tool := NewSelectPropertyTool(st, notifier)

	out, err := tool.Execute(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out, "Error") {
		t.Errorf("missing property_id should report an error, got %q", out)
	}

	out, _ = tool.Execute(ctx, map[string]any{"property_id": float64(1), "property_type": "castle"})
	if !strings.HasPrefix(out, "Error") {
		t.Errorf("bad property_type should report an error, got %q", out)
	}
	if len(notifier.marked) != 0 {
		t.Errorf("rejected input must not mark a state change, marks = %v", notifier.marked)
	}
}

func TestSetBookingDate(t *testing.T) {
	st, notifier, ctx, sid := newToolFixture(t)
	tool := NewSetBookingDateTool(st, notifier, 365)
	tool.now = func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }

	out, err := tool.Execute(ctx, map[string]any{"date": "2026-09-05"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.HasPrefix(out, "Error") {
		t.Fatalf("Execute = %q", out)
	}

	sess, _ := st.GetSessionByID(ctx, sid)
	if sess.BookingDate == nil || *sess.BookingDate != "2026-09-05" {
		t.Errorf("booking_date = %v", sess.BookingDate)
	}
	if len(notifier.marked) != 1 {
		t.Errorf("state change marks = %v", notifier.marked)
	}

	out, _ = tool.Execute(ctx, map[string]any{"date": "2020-01-01"})
	if !strings.Contains(out, "past") {
		t.Errorf("past date should be rejected, got %q", out)
	}
	sess, _ = st.GetSessionByID(ctx, sid)
	if *sess.BookingDate != "2026-09-05" {
		t.Error("rejected date must not overwrite the stored one")
	}
}

func TestSetShift(t *testing.T) {
	st, notifier, ctx, sid := newToolFixture(t)
	tool := NewSetShiftTool(st, notifier)

	out, err := tool.Execute(ctx, map[string]any{"shift": "night"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.HasPrefix(out, "Error") {
		t.Fatalf("Execute = %q", out)
	}
	sess, _ := st.GetSessionByID(ctx, sid)
	if sess.ShiftType == nil || *sess.ShiftType != "night" {
		t.Errorf("shift_type = %v", sess.ShiftType)
	}

	out, _ = tool.Execute(ctx, map[string]any{"shift": "afternoon"})
	if !strings.HasPrefix(out, "Error") {
		t.Errorf("unknown shift should report an error, got %q", out)
	}
}

func TestSetBudget(t *testing.T) {
	st, notifier, ctx, sid := newToolFixture(t)
	tool := NewSetBudgetTool(st, notifier)

	out, err := tool.Execute(ctx, map[string]any{
		"min_price": float64(5000), "max_price": float64(15000), "max_occupancy": float64(8),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.HasPrefix(out, "Error") {
		t.Fatalf("Execute = %q", out)
	}
	sess, _ := st.GetSessionByID(ctx, sid)
	if sess.MinPrice == nil || *sess.MinPrice != 5000 {
		t.Errorf("min_price = %v", sess.MinPrice)
	}
	if sess.MaxOccupancy == nil || *sess.MaxOccupancy != 8 {
		t.Errorf("max_occupancy = %v", sess.MaxOccupancy)
	}

	out, _ = tool.Execute(ctx, map[string]any{"min_price": float64(9000), "max_price": float64(100)})
	if !strings.HasPrefix(out, "Error") {
		t.Errorf("inverted range should report an error, got %q", out)
	}
	out, _ = tool.Execute(ctx, map[string]any{})
	if !strings.HasPrefix(out, "Error") {
		t.Errorf("empty params should report an error, got %q", out)
	}
}

func TestClearPreferences(t *testing.T) {
	st, notifier, ctx, sid := newToolFixture(t)

	propertyType := "hut"
	date := "2026-09-05"
	bookingID := "BK-7"
	if err := st.UpdateSession(ctx, &store.UpdateSession{
		ID: sid, PropertyType: &propertyType, BookingDate: &date, BookingID: &bookingID,
	}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	tool := NewClearPreferencesTool(st, notifier)
	out, err := tool.Execute(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.HasPrefix(out, "Error") {
		t.Fatalf("Execute = %q", out)
	}

	sess, _ := st.GetSessionByID(ctx, sid)
	if sess.PropertyType != nil || sess.BookingDate != nil {
		t.Error("preferences should be cleared")
	}
	if sess.BookingID == nil || *sess.BookingID != "BK-7" {
		t.Error("booking_id must survive clear_preferences")
	}
	if len(notifier.marked) != 1 {
		t.Errorf("state change marks = %v", notifier.marked)
	}
}

func TestToolsWithoutSession(t *testing.T) {
	st, notifier, _, _ := newToolFixture(t)
	tool := NewSetShiftTool(st, notifier)

	out, err := tool.Execute(context.Background(), map[string]any{"shift": "night"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "no active session") {
		t.Errorf("missing turn context should report no active session, got %q", out)
	}
}

func TestRegistryDefinitions(t *testing.T) {
	st, notifier, _, _ := newToolFixture(t)

	reg := NewRegistryBuilder().
		WithTool(NewSelectPropertyTool(st, notifier)).
		WithTool(NewSetShiftTool(st, notifier)).
		Build()

	if reg.Get("select_property") == nil {
		t.Error("select_property should be registered")
	}
	if reg.Get("nonexistent") != nil {
		t.Error("unknown tool should be nil")
	}

	defs := reg.Definitions()
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	for _, d := range defs {
		if d["type"] != "function" {
			t.Errorf("definition type = %v", d["type"])
		}
		fn, ok := d["function"].(map[string]any)
		if !ok || fn["name"] == "" {
			t.Errorf("malformed function block: %v", d)
		}
	}
}
