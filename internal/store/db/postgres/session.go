package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/farmstay/farmstay/internal/store"
)

const sessionFields = `id, user_key, conversation_summary, summary_updated_at,
	summary_generation_count, needs_summarization, property_type, booking_date,
	shift_type, property_id, booking_id, min_price, max_price, max_occupancy,
	created_ts, updated_ts`

func (d *DB) CreateSession(ctx context.Context, userKey string) (*store.Session, error) {
	now := time.Now().Unix()
	var id int64
	err := d.db.QueryRowContext(ctx,
		`INSERT INTO session (user_key, created_ts, updated_ts) VALUES ($1, $2, $3) RETURNING id`,
		userKey, now, now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return d.GetSessionByID(ctx, id)
}

func (d *DB) GetSessionByID(ctx context.Context, id int64) (*store.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionFields+` FROM session WHERE id = $1`, id)
	return scanSession(row)
}

func (d *DB) GetSessionByUserKey(ctx context.Context, userKey string) (*store.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionFields+` FROM session WHERE user_key = $1`, userKey)
	return scanSession(row)
}

func (d *DB) UpdateSession(ctx context.Context, update *store.UpdateSession) error {
	set, args := []string{}, []any{}
	place := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if update.ClearSummary {
		set = append(set, "conversation_summary = NULL", "summary_updated_at = NULL")
	} else {
		if update.ConversationSummary != nil {
			set, args = append(set, "conversation_summary = "+place()), append(args, *update.ConversationSummary)
		}
		if update.SummaryUpdatedAt != nil {
			set, args = append(set, "summary_updated_at = "+place()), append(args, update.SummaryUpdatedAt.Unix())
		}
	}
	if update.ClearBookingFacts {
		set = append(set,
			"property_type = NULL", "booking_date = NULL", "shift_type = NULL",
			"property_id = NULL", "min_price = NULL", "max_price = NULL",
			"max_occupancy = NULL")
	}
	if update.SummaryGenerationCount != nil {
		set, args = append(set, "summary_generation_count = "+place()), append(args, *update.SummaryGenerationCount)
	}
	if update.NeedsSummarization != nil {
		set, args = append(set, "needs_summarization = "+place()), append(args, *update.NeedsSummarization)
	}
	if update.PropertyType != nil {
		set, args = append(set, "property_type = "+place()), append(args, *update.PropertyType)
	}
	if update.BookingDate != nil {
		set, args = append(set, "booking_date = "+place()), append(args, *update.BookingDate)
	}
	if update.ShiftType != nil {
		set, args = append(set, "shift_type = "+place()), append(args, *update.ShiftType)
	}
	if update.PropertyID != nil {
		set, args = append(set, "property_id = "+place()), append(args, *update.PropertyID)
	}
	if update.BookingID != nil {
		set, args = append(set, "booking_id = "+place()), append(args, *update.BookingID)
	}
	if update.MinPrice != nil {
		set, args = append(set, "min_price = "+place()), append(args, *update.MinPrice)
	}
	if update.MaxPrice != nil {
		set, args = append(set, "max_price = "+place()), append(args, *update.MaxPrice)
	}
	if update.MaxOccupancy != nil {
		set, args = append(set, "max_occupancy = "+place()), append(args, *update.MaxOccupancy)
	}

	if len(set) == 0 {
		return nil
	}

	set, args = append(set, "updated_ts = "+place()), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE session SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(` WHERE id = $%d`, len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (d *DB) ListIdleSessions(ctx context.Context, updatedBefore int64) ([]*store.Session, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+sessionFields+` FROM session WHERE updated_ts < $1 ORDER BY updated_ts ASC`,
		updatedBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		s, err := scanSessionFrom(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate idle sessions: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteSession(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type scanTarget interface {
	Scan(dest ...any) error
}

func scanSession(row *sql.Row) (*store.Session, error) {
	s, err := scanSessionFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func scanSessionFrom(t scanTarget) (*store.Session, error) {
	var (
		s           store.Session
		summaryTs   sql.NullInt64
		propertyID  sql.NullInt64
		maxOccupant sql.NullInt64
	)
	if err := t.Scan(
		&s.ID, &s.UserKey, &s.ConversationSummary, &summaryTs,
		&s.SummaryGenerationCount, &s.NeedsSummarization, &s.PropertyType, &s.BookingDate,
		&s.ShiftType, &propertyID, &s.BookingID, &s.MinPrice, &s.MaxPrice,
		&maxOccupant, &s.CreatedTs, &s.UpdatedTs,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if summaryTs.Valid {
		ts := time.Unix(summaryTs.Int64, 0)
		s.SummaryUpdatedAt = &ts
	}
	if propertyID.Valid {
		s.PropertyID = &propertyID.Int64
	}
	if maxOccupant.Valid {
		s.MaxOccupancy = &maxOccupant.Int64
	}
	return &s, nil
}
