package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// Exporter 耗材库存 Excel 导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportSpools 导出耗材库存清单到 Excel
func (e *Exporter) ExportSpools(spools []*model.Spool) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "耗材库存"
	f.SetSheetName("Sheet1", sheetName)

	// 设置表头
	headers := []string{
		"名称", "品牌", "材质", "颜色", "剩余重量(克)", "整卷净重(克)", "剩余比例", "存放位置", "录入时间",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	// 设置表头样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetRowStyle(sheetName, 1, 1, headerStyle)

	// 写入数据
	for i, sp := range spools {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), sp.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), sp.Brand)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), sp.MaterialType)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), sp.Color)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), sp.RemainingGrams)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), sp.TotalGrams)
		ratio := 0.0
		if sp.TotalGrams > 0 {
			ratio = sp.RemainingGrams / sp.TotalGrams
		}
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("%.1f%%", ratio*100))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), sp.Location)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), sp.CreatedAt.Format("2006-01-02 15:04"))
	}

	// 设置列宽
	f.SetColWidth(sheetName, "A", "B", 20)
	f.SetColWidth(sheetName, "C", "H", 14)
	f.SetColWidth(sheetName, "I", "I", 18)

	return f, nil
}
