package matching

import (
	"strconv"
	"strings"
)

// DefaultTrayColor 料盘未上报颜色时的默认值（中性灰）
const DefaultTrayColor = "808080"

// similarThreshold 颜色相近判定的单通道差值上限
const similarThreshold = 40

// NormalizeColor 归一化颜色字符串
// 去掉前导 #，截掉 6 位之后的 alpha 字节，统一转小写
func NormalizeColor(color string) string {
	color = strings.TrimPrefix(color, "#")
	if len(color) > 6 {
		color = color[:6]
	}
	return strings.ToLower(color)
}

// parseRGB 将归一化后的 6 位十六进制颜色拆成 R/G/B 三个通道
// 格式不合法时 ok 为 false
func parseRGB(color string) (r, g, b int, ok bool) {
	if len(color) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(color, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16), int(v >> 8 & 0xff), int(v & 0xff), true
}

// EqualColors 判断两个颜色（任意原始格式）归一化后是否完全相同
// 任一侧格式不合法时视为不相同
func EqualColors(a, b string) bool {
	na := NormalizeColor(a)
	nb := NormalizeColor(b)
	if _, _, _, ok := parseRGB(na); !ok {
		return false
	}
	if _, _, _, ok := parseRGB(nb); !ok {
		return false
	}
	return na == nb
}

// SimilarColors 判断两个颜色是否相近
// R/G/B 每个通道的差值都不超过 similarThreshold 才算相近
// 任一侧格式不合法时视为不相近
func SimilarColors(a, b string) bool {
	ra, ga, ba, ok := parseRGB(NormalizeColor(a))
	if !ok {
		return false
	}
	rb, gb, bb, ok := parseRGB(NormalizeColor(b))
	if !ok {
		return false
	}
	return absInt(ra-rb) <= similarThreshold &&
		absInt(ga-gb) <= similarThreshold &&
		absInt(ba-bb) <= similarThreshold
}

// absInt 整数绝对值
func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
