package modem

import (
	"math"
	"strconv"
	"strings"
)

// responseValue 在响应行中查找包含前缀的行，按冒号与逗号切分后取第 index 个字段。
// 字段宽容解析：去引号、去空白；找不到返回空串。
func responseValue(lines []string, prefix string, index int) string {
	for _, line := range lines {
		if !strings.Contains(line, prefix) {
			continue
		}
		parts := splitFields(line)
		if len(parts) > index {
			return unquote(parts[index])
		}
	}
	return ""
}

// splitFields 按冒号与逗号切分一行。
func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ':' || r == ','
	})
}

func unquote(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// parseNullableInt 宽容整数解析：接受正负号、前导零与 0x 前缀，失败返回 nil。
func parseNullableInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return nil
	}
	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return nil
	}
	n := int(v)
	return &n
}

// parseNullableFloat 宽容浮点解析，失败返回 nil。
func parseNullableFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func floatPtr(v float64) *float64 { return &v }

// lteBandRange EARFCN 下行频点到 LTE 频段的映射区间。
type lteBandRange struct {
	lo, hi int
	band   string
}

var lteBands = []lteBandRange{
	{0, 599, "B1"},
	{600, 1199, "B2"},
	{1200, 1949, "B3"},
	{1950, 2399, "B4"},
	{2400, 2649, "B5"},
	{2650, 2749, "B6"},
	{2750, 3449, "B7"},
	{3450, 3799, "B8"},
	{3800, 4149, "B9"},
	{4150, 4749, "B10"},
	{4750, 4949, "B11"},
	{5010, 5179, "B12"},
	{5180, 5279, "B13"},
	{5280, 5379, "B14"},
	{5730, 5849, "B17"},
	{5850, 5999, "B18"},
	{6000, 6149, "B19"},
	{6150, 6449, "B20"},
	{6450, 6599, "B21"},
	{8040, 8689, "B25"},
	{8690, 9039, "B26"},
	{9210, 9659, "B28"},
	{37750, 38249, "B38"},
	{38250, 38649, "B39"},
	{38650, 39649, "B40"},
	{39650, 41589, "B41"},
	{66436, 67335, "B66"},
}

// bandLTE 将下行 EARFCN 转换为频段名，未知频点返回空串。
func bandLTE(earfcn int) string {
	for _, r := range lteBands {
		if earfcn >= r.lo && earfcn <= r.hi {
			return r.band
		}
	}
	return ""
}

// bandwidthMHz XLEC 带宽编码到 MHz 的映射。
func bandwidthMHz(code int) *float64 {
	mapping := map[int]float64{0: 1.4, 1: 3.0, 2: 5.0, 3: 10.0, 4: 15.0, 5: 20.0}
	if v, ok := mapping[code]; ok {
		return &v
	}
	return nil
}

// prbCount 带宽编码对应的物理资源块数。
var prbCount = map[int]int{0: 6, 1: 15, 2: 25, 3: 50, 4: 75, 5: 100}

// rsrpToRSSI 由 RSRP 与带宽推算 RSSI：RSSI = RSRP + 10*log10(12*N_prb)。
func rsrpToRSSI(rsrp *float64, bwCode *int) *float64 {
	if rsrp == nil || bwCode == nil {
		return nil
	}
	nprb, ok := prbCount[*bwCode]
	if !ok || nprb == 0 {
		return floatPtr(-113.0)
	}
	return floatPtr(*rsrp + 10*math.Log10(float64(12*nprb)))
}
