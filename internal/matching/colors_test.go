package matching

import "testing"

// TestNormalizeColor 测试颜色归一化
func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"小写透传", "ff0000", "ff0000"},
		{"大写转小写", "FF0000", "ff0000"},
		{"去掉前导井号", "#FF0000", "ff0000"},
		{"截掉alpha字节", "FF0000FF", "ff0000"},
		{"井号加alpha", "#00ff00aa", "00ff00"},
		{"空字符串", "", ""},
		{"过短保持原样", "abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeColor(tt.input); got != tt.expected {
				t.Errorf("NormalizeColor(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestEqualColors 测试颜色完全一致判断
func TestEqualColors(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"相同颜色", "FF0000", "ff0000", true},
		{"带井号与alpha", "#FF0000FF", "ff0000", true},
		{"不同颜色", "ff0000", "00ff00", false},
		{"左侧格式不合法", "xyzxyz", "ff0000", false},
		{"右侧过短", "ff0000", "fff", false},
		{"两侧都为空", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EqualColors(tt.a, tt.b); got != tt.expected {
				t.Errorf("EqualColors(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

// TestSimilarColors 测试颜色相近判断的阈值边界
func TestSimilarColors(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"完全相同", "808080", "808080", true},
		// 0x28 = 40，每个通道都正好差 40，应判定相近
		{"每通道正好差40", "000000", "282828", true},
		// 0x29 = 41，任一通道超过阈值即不相近
		{"红色通道差41", "000000", "290000", false},
		{"绿色通道差41", "002900", "000000", false},
		{"单通道差40其余为0", "280000", "000000", true},
		{"差距悬殊", "ff0000", "ffaaaa", false},
		{"格式不合法", "red", "ff0000", false},
		{"空字符串", "", "808080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SimilarColors(tt.a, tt.b); got != tt.expected {
				t.Errorf("SimilarColors(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}
