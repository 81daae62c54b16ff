package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/farmstay/farmstay/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "farmstay.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "whatsapp:12345")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == 0 {
		t.Fatal("expected non-zero session id")
	}
	if sess.ConversationSummary != nil {
		t.Errorf("new session should have nil summary, got %q", *sess.ConversationSummary)
	}
	if sess.SummaryGenerationCount != 0 {
		t.Errorf("new session generation count = %d, want 0", sess.SummaryGenerationCount)
	}
	if sess.NeedsSummarization {
		t.Error("new session should not need summarization")
	}

	got, err := db.GetSessionByUserKey(ctx, "whatsapp:12345")
	if err != nil {
		t.Fatalf("GetSessionByUserKey: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("GetSessionByUserKey = %+v, want id %d", got, sess.ID)
	}

	missing, err := db.GetSessionByUserKey(ctx, "whatsapp:nobody")
	if err != nil {
		t.Fatalf("GetSessionByUserKey missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown user key, got %+v", missing)
	}
}

func TestUpdateSessionSummaryFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "web:abc")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	summary := "Guest wants a farmhouse for 2026-09-05, night shift."
	now := time.Now().Truncate(time.Second)
	gen := 1
	flag := false
	if err := db.UpdateSession(ctx, &store.UpdateSession{
		ID:                     sess.ID,
		ConversationSummary:    &summary,
		SummaryUpdatedAt:       &now,
		SummaryGenerationCount: &gen,
		NeedsSummarization:     &flag,
	}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := db.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if got.ConversationSummary == nil || *got.ConversationSummary != summary {
		t.Errorf("summary = %v, want %q", got.ConversationSummary, summary)
	}
	if got.SummaryUpdatedAt == nil || !got.SummaryUpdatedAt.Equal(now) {
		t.Errorf("summary_updated_at = %v, want %v", got.SummaryUpdatedAt, now)
	}
	if got.SummaryGenerationCount != 1 {
		t.Errorf("generation count = %d, want 1", got.SummaryGenerationCount)
	}

	// Clearing nulls the summary columns but keeps the generation counter.
	if err := db.UpdateSession(ctx, &store.UpdateSession{ID: sess.ID, ClearSummary: true}); err != nil {
		t.Fatalf("UpdateSession clear: %v", err)
	}
	got, err = db.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID after clear: %v", err)
	}
	if got.ConversationSummary != nil {
		t.Errorf("summary should be nil after clear, got %q", *got.ConversationSummary)
	}
	if got.SummaryUpdatedAt != nil {
		t.Errorf("summary_updated_at should be nil after clear, got %v", got.SummaryUpdatedAt)
	}
	if got.SummaryGenerationCount != 1 {
		t.Errorf("generation count after clear = %d, want 1", got.SummaryGenerationCount)
	}
}

func TestUpdateSessionBookingFacts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "telegram:77")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	propertyType := "farmhouse"
	bookingDate := "2026-09-05"
	shift := "night"
	propertyID := int64(12)
	minPrice, maxPrice := 5000.0, 15000.0
	occupancy := int64(8)
	if err := db.UpdateSession(ctx, &store.UpdateSession{
		ID:           sess.ID,
		PropertyType: &propertyType,
		BookingDate:  &bookingDate,
		ShiftType:    &shift,
		PropertyID:   &propertyID,
		MinPrice:     &minPrice,
		MaxPrice:     &maxPrice,
		MaxOccupancy: &occupancy,
	}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := db.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if got.PropertyType == nil || *got.PropertyType != "farmhouse" {
		t.Errorf("property_type = %v, want farmhouse", got.PropertyType)
	}
	if got.BookingDate == nil || *got.BookingDate != "2026-09-05" {
		t.Errorf("booking_date = %v, want 2026-09-05", got.BookingDate)
	}
	if got.PropertyID == nil || *got.PropertyID != 12 {
		t.Errorf("property_id = %v, want 12", got.PropertyID)
	}
	if got.MaxOccupancy == nil || *got.MaxOccupancy != 8 {
		t.Errorf("max_occupancy = %v, want 8", got.MaxOccupancy)
	}
}

func TestListRecentMessagesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().Unix() - 100
	for i := 0; i < 8; i++ {
		msg := store.Message{
			UserKey:   "whatsapp:1",
			Sender:    "user",
			Content:   string(rune('a' + i)),
			CreatedTs: base + int64(i),
		}
		if _, err := db.CreateMessage(ctx, &msg); err != nil {
			t.Fatalf("CreateMessage %d: %v", i, err)
		}
	}

	got, err := db.ListRecentMessages(ctx, "whatsapp:1", 6)
	if err != nil {
		t.Fatalf("ListRecentMessages: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d messages, want 6", len(got))
	}
	want := []string{"h", "g", "f", "e", "d", "c"}
	for i, m := range got {
		if m.Content != want[i] {
			t.Errorf("message[%d] = %q, want %q", i, m.Content, want[i])
		}
	}

	none, err := db.ListRecentMessages(ctx, "whatsapp:other", 6)
	if err != nil {
		t.Fatalf("ListRecentMessages empty: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no messages for other user, got %d", len(none))
	}
}

func TestDeleteMessagesBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().Unix() - 100
	for i := 0; i < 4; i++ {
		if _, err := db.CreateMessage(ctx, &store.Message{
			UserKey: "web:x", Sender: "user", Content: "m", CreatedTs: base + int64(i*10),
		}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	if err := db.DeleteMessagesBefore(ctx, "web:x", base+20); err != nil {
		t.Fatalf("DeleteMessagesBefore: %v", err)
	}
	got, err := db.ListRecentMessages(ctx, "web:x", 10)
	if err != nil {
		t.Fatalf("ListRecentMessages: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d messages after delete, want 2", len(got))
	}
}

func TestListIdleSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateSession(ctx, "whatsapp:idle"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := db.CreateSession(ctx, "whatsapp:fresh"); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	idle, err := db.ListIdleSessions(ctx, time.Now().Unix()+60)
	if err != nil {
		t.Fatalf("ListIdleSessions: %v", err)
	}
	if len(idle) != 2 {
		t.Errorf("got %d idle sessions, want 2", len(idle))
	}

	idle, err = db.ListIdleSessions(ctx, time.Now().Unix()-3600)
	if err != nil {
		t.Fatalf("ListIdleSessions: %v", err)
	}
	if len(idle) != 0 {
		t.Errorf("got %d idle sessions, want 0", len(idle))
	}
}
