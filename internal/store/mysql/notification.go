package mysql

import (
	"context"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

type notificationStore struct{ q queryer }

// Create inserts a notification row.
func (s *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications (user_id, title, message, kind) VALUES (?, ?, ?, ?)`
	res, err := s.q.ExecContext(ctx, q, n.UserID, n.Title, n.Message, string(n.Kind))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (s *notificationStore) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	const q = `SELECT id, user_id, title, message, kind, is_read, created_at
	           FROM notifications
	           WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC
	           LIMIT ?`
	rows, err := s.q.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Kind = model.NotificationKind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag for one of the user's notifications.
func (s *notificationStore) MarkRead(ctx context.Context, id, userID uint64) error {
	const q = `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`
	res, err := s.q.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
