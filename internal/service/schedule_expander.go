package service

import (
	"sort"
	"time"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── 日历实例 ──

// 日历实例来源与状态常量
const (
	SourceBaseline    = "baseline"
	SourceOvertime    = "overtime"
	SourceLeave       = "leave"
	SourceAppointment = "appointment"

	InstanceAvailable    = "available"
	InstanceBooked       = "booked"
	InstanceLeaveBlocked = "leave_blocked"
)

// CalendarInstance 日历实例：员工某日一段可用性时间窗。
// 纯派生数据，每次查询即时计算，从不持久化。
type CalendarInstance struct {
	WorkerID  string    `json:"worker_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"` // "HH:MM"
	EndTime   string    `json:"end_time"`
	Source    string    `json:"source"`               // baseline | overtime | leave | appointment
	Status    string    `json:"status"`               // available | booked | leave_blocked
	ShiftName string    `json:"shift_name,omitempty"` // 基线实例所属班次名（single_shift 请假匹配用）
}

// sortInstances 按 (日期, 起始时刻) 排序
func sortInstances(instances []CalendarInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		if !instances[i].Date.Equal(instances[j].Date) {
			return instances[i].Date.Before(instances[j].Date)
		}
		return instances[i].StartTime < instances[j].StartTime
	})
}

// ── 排班展开 ──
//
// 将员工的周期性排班登记展开为日期区间内的具体基线实例。
// 展开是历史感知的：每个日期取生效日期不晚于该日的最近一条已审批登记；
// 没有任何登记覆盖的日期按 fixed 全覆盖处理（新员工默认全职）。

// ExpandWorkerSchedule 展开单个员工在 [from, to]（含两端）的基线排班。
// templates 为当前启用的班次模板集合；regs 须为该员工全部已审批登记，
// 按 effective_date 升序（ListApprovedByWorker 的输出顺序）。
func ExpandWorkerSchedule(workerID string, from, to time.Time, templates []model.ShiftTemplate, regs []model.ScheduleRegistration) ([]CalendarInstance, error) {
	slotTable, err := SplitAll(templates)
	if err != nil {
		return nil, err
	}
	// 子时段标识 → 班次名（弹性实例回填班次名用）
	slotShift := make(map[string]string)
	for name, slots := range slotTable {
		for _, s := range slots {
			slotShift[s.ID()] = name
		}
	}

	var instances []CalendarInstance
	for d := dateOnly(from); !d.After(dateOnly(to)); d = d.AddDate(0, 0, 1) {
		reg := registrationFor(regs, d)

		if reg == nil || reg.Mode == model.ModeFixed {
			// fixed：该星期适用的每个启用模板各产生一条实例
			weekday := int(d.Weekday())
			for i := range templates {
				t := &templates[i]
				if !t.ApplicableWeekdays.Contains(weekday) {
					continue
				}
				startMin, err := ParseClock(t.StartTime)
				if err != nil {
					return nil, err
				}
				endMin, err := ParseClock(t.EndTime)
				if err != nil {
					return nil, err
				}
				instances = append(instances, CalendarInstance{
					WorkerID:  workerID,
					Date:      d,
					StartTime: FormatClock(startMin),
					EndTime:   FormatClock(endMin),
					Source:    SourceBaseline,
					Status:    InstanceAvailable,
					ShiftName: t.Name,
				})
			}
			continue
		}

		// flexible：按周时段选择展开
		if reg.WeeklySlots.IsEmpty() {
			// 管理员不应审批空登记；属数据完整性问题而非用户输入错误
			return nil, pkgerrors.Configuration("员工 %s 的弹性登记 %s 已审批但无周时段数据", workerID, reg.RegistrationID)
		}
		for _, slotID := range reg.WeeklySlots[int(d.Weekday())] {
			startMin, endMin, err := ParseSubSlotID(slotID)
			if err != nil {
				return nil, pkgerrors.Configuration("员工 %s 的弹性登记含无效子时段 %q", workerID, slotID)
			}
			instances = append(instances, CalendarInstance{
				WorkerID:  workerID,
				Date:      d,
				StartTime: FormatClock(startMin),
				EndTime:   FormatClock(endMin),
				Source:    SourceBaseline,
				Status:    InstanceAvailable,
				ShiftName: slotShift[FormatClock(startMin)+"-"+FormatClock(endMin)],
			})
		}
	}

	sortInstances(instances)
	return instances, nil
}

// registrationFor 返回覆盖日期 d 的登记：生效日期不晚于 d 的最近一条。
// regs 按 effective_date 升序；无覆盖时返回 nil（调用方按 fixed 默认处理）。
func registrationFor(regs []model.ScheduleRegistration, d time.Time) *model.ScheduleRegistration {
	var match *model.ScheduleRegistration
	for i := range regs {
		if regs[i].EffectiveDate == nil {
			continue
		}
		if dateOnly(*regs[i].EffectiveDate).After(d) {
			break
		}
		match = &regs[i]
	}
	return match
}

// dateOnly 截断到日期（丢弃时刻部分）
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
