// Package store provides relational persistence for sessions and the
// per-conversation message log. Concrete database drivers live in the
// sqlite and postgres subpackages; callers go through the Store facade.
package store

import (
	"context"
	"database/sql"
	"time"
)

// Session is one conversation between a guest and the bot. It carries both
// the summary metadata maintained by the memory subsystem and the booking
// preference facts mutated by domain tools.
type Session struct {
	ID      int64
	UserKey string // "channel:chat_id", unique per conversation

	ConversationSummary    *string
	SummaryUpdatedAt       *time.Time
	SummaryGenerationCount int
	NeedsSummarization     bool

	PropertyType *string // "farmhouse" | "hut"
	BookingDate  *string // ISO date text (YYYY-MM-DD)
	ShiftType    *string // "morning" | "night" | "full_day"
	PropertyID   *int64
	BookingID    *string
	MinPrice     *float64
	MaxPrice     *float64
	MaxOccupancy *int64

	CreatedTs int64
	UpdatedTs int64
}

// UpdateSession describes a partial session update. Nil pointer fields are
// left untouched. ClearSummary nulls conversation_summary and
// summary_updated_at regardless of the pointer fields. ClearBookingFacts
// nulls the preference fields (property, date, shift, prices, occupancy) but
// keeps booking_id, since an existing booking is not a preference.
type UpdateSession struct {
	ID int64

	ConversationSummary    *string
	SummaryUpdatedAt       *time.Time
	SummaryGenerationCount *int
	NeedsSummarization     *bool
	ClearSummary           bool
	ClearBookingFacts      bool

	PropertyType *string
	BookingDate  *string
	ShiftType    *string
	PropertyID   *int64
	BookingID    *string
	MinPrice     *float64
	MaxPrice     *float64
	MaxOccupancy *int64
}

// Message is one entry of the append-only conversation log.
// Sender is "user" for guest messages, "admin" for human operator replies,
// "assistant" for the bot's own replies.
type Message struct {
	ID        int64
	UserKey   string
	Sender    string
	Content   string
	CreatedTs int64
}

// Driver is the interface a store database driver must implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error
	Migrate(ctx context.Context) error

	// Session model related methods.
	CreateSession(ctx context.Context, userKey string) (*Session, error)
	GetSessionByID(ctx context.Context, id int64) (*Session, error)
	GetSessionByUserKey(ctx context.Context, userKey string) (*Session, error)
	UpdateSession(ctx context.Context, update *UpdateSession) error
	ListIdleSessions(ctx context.Context, updatedBefore int64) ([]*Session, error)
	DeleteSession(ctx context.Context, id int64) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListRecentMessages(ctx context.Context, userKey string, limit int) ([]*Message, error)
	DeleteMessagesBefore(ctx context.Context, userKey string, beforeTs int64) error
}

// Store is the facade the rest of the application talks to.
type Store struct {
	driver Driver
}

func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) Close() error { return s.driver.Close() }

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error { return s.driver.Migrate(ctx) }

// GetSessionByID returns the session with the given id, or nil when absent.
func (s *Store) GetSessionByID(ctx context.Context, id int64) (*Session, error) {
	return s.driver.GetSessionByID(ctx, id)
}

// GetSessionByUserKey returns the session for userKey, or nil when absent.
func (s *Store) GetSessionByUserKey(ctx context.Context, userKey string) (*Session, error) {
	return s.driver.GetSessionByUserKey(ctx, userKey)
}

// GetOrCreateSession returns the session for userKey, creating an empty one
// on first contact.
func (s *Store) GetOrCreateSession(ctx context.Context, userKey string) (*Session, error) {
	sess, err := s.driver.GetSessionByUserKey(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	return s.driver.CreateSession(ctx, userKey)
}

func (s *Store) UpdateSession(ctx context.Context, update *UpdateSession) error {
	return s.driver.UpdateSession(ctx, update)
}

func (s *Store) ListIdleSessions(ctx context.Context, updatedBefore int64) ([]*Session, error) {
	return s.driver.ListIdleSessions(ctx, updatedBefore)
}

func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	return s.driver.DeleteSession(ctx, id)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

// ListRecentMessages returns up to limit messages for userKey ordered
// newest-first.
func (s *Store) ListRecentMessages(ctx context.Context, userKey string, limit int) ([]*Message, error) {
	return s.driver.ListRecentMessages(ctx, userKey, limit)
}

func (s *Store) DeleteMessagesBefore(ctx context.Context, userKey string, beforeTs int64) error {
	return s.driver.DeleteMessagesBefore(ctx, userKey, beforeTs)
}
