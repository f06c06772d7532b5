package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbcrumb/bambuddy-sub000/internal/matching"
	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

const queueColumns = "id, printer_id, archive_name, status, position, required_slots, filament_mapping, created_at, started_at, finished_at"

// CreateQueueItem 入队，自动生成 uuid 和队尾 position，返回生成的 ID
func (s *Store) CreateQueueItem(item *model.QueueItem) (string, error) {
	id := uuid.New().String()

	var maxPos sql.NullInt64
	if err := s.db.QueryRow(
		"SELECT MAX(position) FROM queue_items WHERE printer_id = ? AND status = ?",
		item.PrinterID, model.QueueStatusQueued,
	).Scan(&maxPos); err != nil {
		return "", fmt.Errorf("failed to query queue position: %w", err)
	}
	position := int(maxPos.Int64) + 1

	slotsJSON, err := json.Marshal(item.RequiredSlots)
	if err != nil {
		return "", fmt.Errorf("failed to marshal required slots: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO queue_items (id, printer_id, archive_name, status, position, required_slots)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, item.PrinterID, item.ArchiveName, model.QueueStatusQueued, position, string(slotsJSON))
	if err != nil {
		return "", fmt.Errorf("failed to insert queue item: %w", err)
	}
	return id, nil
}

// GetQueueItem 按 ID 获取队列任务，不存在时返回 sql.ErrNoRows
func (s *Store) GetQueueItem(id string) (*model.QueueItem, error) {
	row := s.db.QueryRow("SELECT "+queueColumns+" FROM queue_items WHERE id = ?", id)
	return scanQueueItem(row)
}

// QueueQueryOptions 队列查询选项
type QueueQueryOptions struct {
	PrinterID *int64
	Status    *string
}

// ListQueueItems 查询队列任务列表，按状态与队内顺序排列
func (s *Store) ListQueueItems(opts QueueQueryOptions) ([]*model.QueueItem, error) {
	query := "SELECT " + queueColumns + " FROM queue_items WHERE 1=1"
	args := []interface{}{}

	if opts.PrinterID != nil {
		query += " AND printer_id = ?"
		args = append(args, *opts.PrinterID)
	}
	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, *opts.Status)
	}

	query += " ORDER BY position, created_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue items: %w", err)
	}
	defer rows.Close()

	items := []*model.QueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextQueuedItem 返回指定打印机队列中排在最前的待打印任务
// 没有待打印任务时返回 sql.ErrNoRows
func (s *Store) NextQueuedItem(printerID int64) (*model.QueueItem, error) {
	row := s.db.QueryRow(
		"SELECT "+queueColumns+" FROM queue_items WHERE printer_id = ? AND status = ? ORDER BY position, created_at LIMIT 1",
		printerID, model.QueueStatusQueued,
	)
	return scanQueueItem(row)
}

// MarkQueueItemStarted 标记任务开始打印并记录确认后的位置映射
func (s *Store) MarkQueueItemStarted(id string, mapping []int) error {
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE queue_items SET status = ?, filament_mapping = ?, started_at = ?
		WHERE id = ?
	`, model.QueueStatusPrinting, string(mappingJSON), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item started: %w", err)
	}
	return nil
}

// MarkQueueItemFinished 标记任务结束（成功或失败）
func (s *Store) MarkQueueItemFinished(id string, ok bool) error {
	status := model.QueueStatusDone
	if !ok {
		status = model.QueueStatusFailed
	}

	_, err := s.db.Exec(`
		UPDATE queue_items SET status = ?, finished_at = ? WHERE id = ?
	`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item finished: %w", err)
	}
	return nil
}

// ReorderQueueItem 调整任务在队列中的位置
func (s *Store) ReorderQueueItem(id string, position int) error {
	_, err := s.db.Exec("UPDATE queue_items SET position = ? WHERE id = ?", position, id)
	if err != nil {
		return fmt.Errorf("failed to reorder queue item: %w", err)
	}
	return nil
}

// DeleteQueueItem 删除队列任务
func (s *Store) DeleteQueueItem(id string) error {
	_, err := s.db.Exec("DELETE FROM queue_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete queue item: %w", err)
	}
	return nil
}

// CountQueueItems 按状态统计队列任务数量
func (s *Store) CountQueueItems(status string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM queue_items WHERE status = ?", status).Scan(&count)
	return count, err
}

// scanQueueItem 扫描单行队列任务
func scanQueueItem(row rowScanner) (*model.QueueItem, error) {
	item := &model.QueueItem{}
	var slotsJSON, mappingJSON string
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(&item.ID, &item.PrinterID, &item.ArchiveName, &item.Status, &item.Position,
		&slotsJSON, &mappingJSON, &item.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan queue item: %w", err)
	}

	if startedAt.Valid {
		item.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		item.FinishedAt = &finishedAt.Time
	}

	item.RequiredSlots = []matching.RequiredSlot{}
	if strings.TrimSpace(slotsJSON) != "" {
		if err := json.Unmarshal([]byte(slotsJSON), &item.RequiredSlots); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required slots: %w", err)
		}
	}
	if strings.TrimSpace(mappingJSON) != "" {
		if err := json.Unmarshal([]byte(mappingJSON), &item.FilamentMapping); err != nil {
			return nil, fmt.Errorf("failed to unmarshal filament mapping: %w", err)
		}
	}
	return item, nil
}
