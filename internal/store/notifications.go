package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

const notificationColumns = "id, level, title, message, read, created_at"

// CreateNotification 新增通知，返回生成的 uuid
func (s *Store) CreateNotification(n *model.Notification) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, level, title, message) VALUES (?, ?, ?, ?)
	`, id, n.Level, n.Title, n.Message)
	if err != nil {
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}
	return id, nil
}

// GetNotification 按 ID 获取通知，不存在时返回 sql.ErrNoRows
func (s *Store) GetNotification(id string) (*model.Notification, error) {
	row := s.db.QueryRow("SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id)
	return scanNotification(row)
}

// ListNotifications 查询通知列表，最新的排在前面
// unreadOnly 为 true 时只返回未读通知
func (s *Store) ListNotifications(unreadOnly bool, limit int) ([]*model.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications"
	args := []interface{}{}

	if unreadOnly {
		query += " WHERE read = 0"
	}
	query += " ORDER BY created_at DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead 标记单条通知已读
func (s *Store) MarkNotificationRead(id string) error {
	_, err := s.db.Exec("UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead 标记全部通知已读
func (s *Store) MarkAllNotificationsRead() error {
	_, err := s.db.Exec("UPDATE notifications SET read = 1 WHERE read = 0")
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

// CountUnreadNotifications 统计未读通知数量
func (s *Store) CountUnreadNotifications() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE read = 0").Scan(&count)
	return count, err
}

// scanNotification 扫描单行通知记录
func scanNotification(row rowScanner) (*model.Notification, error) {
	n := &model.Notification{}
	var read int
	err := row.Scan(&n.ID, &n.Level, &n.Title, &n.Message, &read, &n.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	n.Read = read != 0
	return n, nil
}
