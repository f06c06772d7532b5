package model

import "time"

// Spool 耗材库存中的一卷料（数据库模型）
// 与打印机上报的料盘（matching.LoadedTray）无关，库存只做台账管理
type Spool struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`           // 显示名称
	Brand          string    `json:"brand"`          // 品牌
	MaterialType   string    `json:"materialType"`   // 材质类型，如 PLA/PETG
	Color          string    `json:"color"`          // 十六进制颜色
	RemainingGrams float64   `json:"remainingGrams"` // 剩余重量（克）
	TotalGrams     float64   `json:"totalGrams"`     // 整卷净重（克）
	Location       string    `json:"location"`       // 存放位置，如 AMS-1/货架A
	CreatedAt      time.Time `json:"createdAt"`
}
