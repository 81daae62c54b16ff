package postgres

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
	err := d.db.QueryRowContext(ctx,
		`INSERT INTO message (user_key, sender, content, created_ts) VALUES ($1, $2, $3, $4) RETURNING id`,
		create.UserKey, create.Sender, create.Content, create.CreatedTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return create, nil
}

func (d *DB) ListRecentMessages(ctx context.Context, userKey string, limit int) ([]*store.Message, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_key, sender, content, created_ts FROM message
		 WHERE user_key = $1 ORDER BY created_ts DESC, id DESC LIMIT $2`,
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
		`DELETE FROM message WHERE user_key = $1 AND created_ts < $2`,
		userKey, beforeTs,
	); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
