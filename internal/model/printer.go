package model

import "time"

// 打印机状态
const (
	PrinterStateIdle     = "idle"     // 空闲
	PrinterStatePrinting = "printing" // 打印中
	PrinterStatePaused   = "paused"   // 暂停
	PrinterStateError    = "error"    // 故障
	PrinterStateOffline  = "offline"  // 离线（从未上报或上报超时）
)

// Printer 打印机（数据库模型）
type Printer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`         // 显示名称
	Host         string    `json:"host"`         // 状态上报接口地址，如 http://192.168.1.30:8883
	SerialNumber string    `json:"serialNumber"` // 机器序列号
	AccessCode   string    `json:"accessCode"`   // 访问码
	Model        string    `json:"model"`        // 机型，如 X1C/P1S/A1
	Active       bool      `json:"active"`       // 是否启用轮询
	CreatedAt    time.Time `json:"createdAt"`
}
