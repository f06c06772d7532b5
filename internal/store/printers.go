package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// printerColumns printers 表的查询列
const printerColumns = "id, name, host, serial_number, access_code, model, active, created_at"

// CreatePrinter 新增打印机，返回自增 ID
func (s *Store) CreatePrinter(p *model.Printer) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO printers (name, host, serial_number, access_code, model, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Name, p.Host, p.SerialNumber, p.AccessCode, p.Model, boolToInt(p.Active))
	if err != nil {
		return 0, fmt.Errorf("failed to insert printer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get printer id: %w", err)
	}
	return id, nil
}

// GetPrinter 按 ID 获取打印机，不存在时返回 sql.ErrNoRows
func (s *Store) GetPrinter(id int64) (*model.Printer, error) {
	row := s.db.QueryRow("SELECT "+printerColumns+" FROM printers WHERE id = ?", id)
	return scanPrinter(row)
}

// PrinterQueryOptions 打印机查询选项
type PrinterQueryOptions struct {
	Active *bool
	Model  *string
}

// ListPrinters 查询打印机列表
func (s *Store) ListPrinters(opts PrinterQueryOptions) ([]*model.Printer, error) {
	query := "SELECT " + printerColumns + " FROM printers WHERE 1=1"
	args := []interface{}{}

	if opts.Active != nil {
		query += " AND active = ?"
		args = append(args, boolToInt(*opts.Active))
	}
	if opts.Model != nil {
		query += " AND model = ?"
		args = append(args, *opts.Model)
	}

	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query printers: %w", err)
	}
	defer rows.Close()

	printers := []*model.Printer{}
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, err
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

// UpdatePrinter 部分更新打印机字段
func (s *Store) UpdatePrinter(id int64, updates map[string]interface{}) error {
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

	query := fmt.Sprintf("UPDATE printers SET %s WHERE id = ?",
		strings.Join(setClauses, ", "))

	_, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update printer: %w", err)
	}
	return nil
}

// DeletePrinter 删除打印机
func (s *Store) DeletePrinter(id int64) error {
	_, err := s.db.Exec("DELETE FROM printers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
	}
	return nil
}

// CountPrinters 统计打印机数量
func (s *Store) CountPrinters() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM printers").Scan(&count)
	return count, err
}

// rowScanner *sql.Row 与 *sql.Rows 共同的 Scan 接口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPrinter 扫描单行打印机记录
func scanPrinter(row rowScanner) (*model.Printer, error) {
	p := &model.Printer{}
	var active int
	err := row.Scan(&p.ID, &p.Name, &p.Host, &p.SerialNumber, &p.AccessCode, &p.Model, &active, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan printer: %w", err)
	}
	p.Active = active != 0
	return p, nil
}

// boolToInt SQLite 布尔列存整数
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
