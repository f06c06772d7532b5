package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

const spoolColumns = "id, name, brand, material_type, color, remaining_grams, total_grams, location, created_at"

// CreateSpool 新增一卷耗材，返回自增 ID
func (s *Store) CreateSpool(sp *model.Spool) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO spools (name, brand, material_type, color, remaining_grams, total_grams, location)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sp.Name, sp.Brand, sp.MaterialType, sp.Color, sp.RemainingGrams, sp.TotalGrams, sp.Location)
	if err != nil {
		return 0, fmt.Errorf("failed to insert spool: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get spool id: %w", err)
	}
	return id, nil
}

// GetSpool 按 ID 获取耗材，不存在时返回 sql.ErrNoRows
func (s *Store) GetSpool(id int64) (*model.Spool, error) {
	row := s.db.QueryRow("SELECT "+spoolColumns+" FROM spools WHERE id = ?", id)
	return scanSpool(row)
}

// SpoolQueryOptions 耗材查询选项
type SpoolQueryOptions struct {
	MaterialType *string
	Location     *string
	Limit        int
	Offset       int
}

// ListSpools 查询耗材列表
func (s *Store) ListSpools(opts SpoolQueryOptions) ([]*model.Spool, error) {
	query := "SELECT " + spoolColumns + " FROM spools WHERE 1=1"
	args := []interface{}{}

	if opts.MaterialType != nil {
		query += " AND material_type = ?"
		args = append(args, *opts.MaterialType)
	}
	if opts.Location != nil {
		query += " AND location = ?"
		args = append(args, *opts.Location)
	}

	query += " ORDER BY id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spools: %w", err)
	}
	defer rows.Close()

	spools := []*model.Spool{}
	for rows.Next() {
		sp, err := scanSpool(rows)
		if err != nil {
			return nil, err
		}
		spools = append(spools, sp)
	}
	return spools, rows.Err()
}

// UpdateSpool 部分更新耗材字段
func (s *Store) UpdateSpool(id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}

	for field, value := range updates {
		setClauses = append(setClauses, field+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE spools SET %s WHERE id = ?",
		strings.Join(setClauses, ", "))

	_, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update spool: %w", err)
	}
	return nil
}

// ConsumeSpool 扣减耗材剩余重量，返回扣减后的记录
// 剩余重量不会扣成负数
func (s *Store) ConsumeSpool(id int64, grams float64) (*model.Spool, error) {
	_, err := s.db.Exec(`
		UPDATE spools SET remaining_grams = MAX(0, remaining_grams - ?) WHERE id = ?
	`, grams, id)
	if err != nil {
		return nil, fmt.Errorf("failed to consume spool: %w", err)
	}
	return s.GetSpool(id)
}

// DeleteSpool 删除耗材
func (s *Store) DeleteSpool(id int64) error {
	_, err := s.db.Exec("DELETE FROM spools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete spool: %w", err)
	}
	return nil
}

// CountSpools 统计耗材数量
func (s *Store) CountSpools() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM spools").Scan(&count)
	return count, err
}

// scanSpool 扫描单行耗材记录
func scanSpool(row rowScanner) (*model.Spool, error) {
	sp := &model.Spool{}
	err := row.Scan(&sp.ID, &sp.Name, &sp.Brand, &sp.MaterialType, &sp.Color,
		&sp.RemainingGrams, &sp.TotalGrams, &sp.Location, &sp.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan spool: %w", err)
	}
	return sp, nil
}
