package matching

import "strings"

// ExternalTrayID 外置料架在固件协议中的全局槽位号（保留值）
const ExternalTrayID = 254

// UnassignedTrayID 输出映射中"该槽位未分配料盘"的占位值
const UnassignedTrayID = -1

// Status 单个耗材槽的匹配状态
type Status string

const (
	// StatusMatch 材质与颜色都满足
	StatusMatch Status = "match"
	// StatusTypeOnly 材质满足但颜色差异过大
	StatusTypeOnly Status = "type_only"
	// StatusMismatch 没有找到材质相符的料盘，或手动指定的料盘材质不符
	StatusMismatch Status = "mismatch"
)

// RequiredSlot 切片任务声明的耗材槽需求
type RequiredSlot struct {
	SlotID       int     `json:"slotId"`       // 槽位序号，从 1 开始，可能不连续
	MaterialType string  `json:"materialType"` // 材质类型，如 PLA/PETG，忽略大小写比较
	Color        string  `json:"color"`        // 十六进制颜色，可能带 alpha 字节
	UsedGrams    float64 `json:"usedGrams"`    // 预计用量（克），仅展示用，不参与匹配
}

// LoadedTray 打印机上报的已装载料盘
type LoadedTray struct {
	UnitID       int    `json:"unitId"`       // 料仓单元编号，0-127 为标准 AMS，>=128 为高速单槽仓，-1 为外置料架
	TrayPosition int    `json:"trayPosition"` // 单元内槽位，从 0 开始，外置/单槽仓固定为 0
	External     bool   `json:"external"`     // 是否为外置料架
	MaterialType string `json:"materialType"` // 材质类型
	Color        string `json:"color"`        // 颜色，未上报时按中性灰处理
}

// GlobalID 返回固件协议使用的全局槽位号
// 外置料架固定为 ExternalTrayID，其余为 单元编号*4+槽位
func (t LoadedTray) GlobalID() int {
	if t.External {
		return ExternalTrayID
	}
	return t.UnitID*4 + t.TrayPosition
}

// normalizedColor 料盘颜色归一化，未上报时回落到中性灰
func (t LoadedTray) normalizedColor() string {
	if t.Color == "" {
		return DefaultTrayColor
	}
	return NormalizeColor(t.Color)
}

// Overrides 用户手动指定：槽位序号 -> 全局槽位号
// 只包含用户显式指定过的槽位；失效（换打印机/换任务）由调用方负责清空
type Overrides map[int]int

// MatchResult 单个耗材槽的匹配结果
type MatchResult struct {
	Slot   RequiredSlot `json:"slot"`           // 原始需求
	Tray   *LoadedTray  `json:"tray,omitempty"` // 选中的料盘，无候选时为空
	Status Status       `json:"status"`         // 匹配状态
	Manual bool         `json:"manual"`         // 是否来自手动指定
}

// Match 对每个耗材槽需求计算匹配结果
//
// 手动指定的全局槽位号在任何自动搜索之前全部预占，保证自动匹配
// 不会抢走用户显式分配给其他槽位的料盘。需求按给定顺序处理：
// 有手动指定且目标料盘仍在快照中时无条件采用（只报告差异，不拒绝）；
// 否则在未被占用的料盘中按 材质+颜色完全一致 > 材质+颜色相近 > 仅材质
// 三档优先级顺序搜索，同档内按料盘上报顺序取第一个，选中即占用。
//
// 纯函数：不修改任何输入，相同输入必然得到相同输出。
func Match(slots []RequiredSlot, trays []LoadedTray, overrides Overrides) []MatchResult {
	claimed := make(map[int]bool, len(overrides))
	for _, trayID := range overrides {
		claimed[trayID] = true
	}

	results := make([]MatchResult, 0, len(slots))
	for _, slot := range slots {
		results = append(results, matchSlot(slot, trays, overrides, claimed))
	}
	return results
}

// matchSlot 计算单个槽位的匹配结果，自动选中的料盘会写入 claimed
func matchSlot(slot RequiredSlot, trays []LoadedTray, overrides Overrides, claimed map[int]bool) MatchResult {
	// 手动指定优先：目标料盘仍在当前快照中就无条件采用
	if trayID, ok := overrides[slot.SlotID]; ok {
		if tray := findTray(trays, trayID); tray != nil {
			return MatchResult{
				Slot:   slot,
				Tray:   tray,
				Status: compareSlotTray(slot, *tray),
				Manual: true,
			}
		}
		// 指定的料盘已经不在快照里，退回自动匹配
	}

	wantColor := NormalizeColor(slot.Color)

	// 三档候选：颜色完全一致 / 颜色相近 / 仅材质一致
	var exact, similar, typeOnly *LoadedTray
	for i := range trays {
		tray := &trays[i]
		if claimed[tray.GlobalID()] {
			continue
		}
		if !sameMaterial(slot.MaterialType, tray.MaterialType) {
			continue
		}
		trayColor := tray.normalizedColor()
		switch {
		case exact == nil && EqualColors(wantColor, trayColor):
			exact = tray
		case similar == nil && SimilarColors(wantColor, trayColor):
			similar = tray
		case typeOnly == nil:
			typeOnly = tray
		}
		if exact != nil {
			break
		}
	}

	switch {
	case exact != nil:
		claimed[exact.GlobalID()] = true
		return MatchResult{Slot: slot, Tray: copyTray(exact), Status: StatusMatch}
	case similar != nil:
		claimed[similar.GlobalID()] = true
		return MatchResult{Slot: slot, Tray: copyTray(similar), Status: StatusMatch}
	case typeOnly != nil:
		claimed[typeOnly.GlobalID()] = true
		return MatchResult{Slot: slot, Tray: copyTray(typeOnly), Status: StatusTypeOnly}
	default:
		return MatchResult{Slot: slot, Status: StatusMismatch}
	}
}

// compareSlotTray 计算需求与料盘之间的匹配状态（用于手动指定的结果报告）
func compareSlotTray(slot RequiredSlot, tray LoadedTray) Status {
	if !sameMaterial(slot.MaterialType, tray.MaterialType) {
		return StatusMismatch
	}
	wantColor := NormalizeColor(slot.Color)
	trayColor := tray.normalizedColor()
	if EqualColors(wantColor, trayColor) || SimilarColors(wantColor, trayColor) {
		return StatusMatch
	}
	return StatusTypeOnly
}

// sameMaterial 材质类型比较，忽略大小写
func sameMaterial(a, b string) bool {
	return strings.EqualFold(a, b)
}

// findTray 按全局槽位号查找料盘，不存在时返回 nil
func findTray(trays []LoadedTray, globalID int) *LoadedTray {
	for i := range trays {
		if trays[i].GlobalID() == globalID {
			return copyTray(&trays[i])
		}
	}
	return nil
}

// copyTray 返回料盘的副本，避免结果持有输入切片的内部指针
func copyTray(t *LoadedTray) *LoadedTray {
	c := *t
	return &c
}

// BuildMapping 根据匹配结果构建固件协议要求的位置映射
//
// 长度为需求中最大的槽位序号，下标为 槽位序号-1，未分配的位置填 -1。
// 需求中不存在的槽位序号对应的位置保持 -1。
func BuildMapping(results []MatchResult) []int {
	maxSlot := 0
	for _, r := range results {
		if r.Slot.SlotID > maxSlot {
			maxSlot = r.Slot.SlotID
		}
	}

	mapping := make([]int, maxSlot)
	for i := range mapping {
		mapping[i] = UnassignedTrayID
	}
	for _, r := range results {
		if r.Slot.SlotID <= 0 || r.Tray == nil {
			continue
		}
		mapping[r.Slot.SlotID-1] = r.Tray.GlobalID()
	}
	return mapping
}
