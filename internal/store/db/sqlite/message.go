package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/farmstay/farmstay/internal/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO message (user_key, sender, content, created_ts) VALUES (?, ?, ?, ?)`,
		create.UserKey, create.Sender, create.Content, create.CreatedTs,
	)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create message id: %w", err)
	}
	create.ID = id
	return create, nil
}

// ListRecentMessages returns up to limit messages for userKey, newest-first.
// Ties on created_ts are broken by id so ordering stays stable within a
// single second.
func (d *DB) ListRecentMessages(ctx context.Context, userKey string, limit int) ([]*store.Message, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_key, sender, content, created_ts FROM message
		 WHERE user_key = ? ORDER BY created_ts DESC, id DESC LIMIT ?`,
		userKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.UserKey, &m.Sender, &m.Content, &m.CreatedTs); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteMessagesBefore(ctx context.Context, userKey string, beforeTs int64) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM message WHERE user_key = ? AND created_ts < ?`,
		userKey, beforeTs,
	); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
