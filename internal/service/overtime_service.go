package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── OvertimeService 接口 ──────────────────────────────────
//
// 加班登记面向单个具体日期 + 一个子时段。提交校验：
//   1. 子时段须存在于某个启用模板该日的拆分结果中；
//   2. 不得与员工当日生效的基线排班相交（加班只加在基线之外）；
//   3. 不得与当日已有 pending/approved 加班重叠。
// 审批流转与排班登记共用同一状态机。
// ─────────────────────────────────────────────────────────────

// OvertimeService 加班登记业务接口
type OvertimeService interface {
	Register(ctx context.Context, req *dto.RegisterOvertimeRequest, workerID string) (*dto.OvertimeResponse, error)
	ListMy(ctx context.Context, workerID string, page, pageSize int) ([]dto.OvertimeResponse, int64, error)
	Approve(ctx context.Context, overtimeID, approverID string) (*dto.OvertimeResponse, error)
	Reject(ctx context.Context, overtimeID, reason, approverID string) (*dto.OvertimeResponse, error)
	Cancel(ctx context.Context, overtimeID, callerID string) error
}

type overtimeService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger

	wf Workflow
}

// NewOvertimeService 创建 OvertimeService 实例
func NewOvertimeService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) OvertimeService {
	return &overtimeService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		wf:       Workflow{Kind: "加班登记"},
	}
}

// ════════════════════════════════════════════════════════════
// Register — 提交加班登记
// ════════════════════════════════════════════════════════════

func (s *overtimeService) Register(ctx context.Context, req *dto.RegisterOvertimeRequest, workerID string) (*dto.OvertimeResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, pkgerrors.Validation("无效的日期 %q", req.Date)
	}
	if date.Before(dateOnly(time.Now())) {
		return nil, pkgerrors.Validation("不能登记过去日期的加班")
	}

	newStart, newEnd, err := ParseSubSlotID(req.SubSlot)
	if err != nil {
		return nil, pkgerrors.Validation("无效的子时段 %q", req.SubSlot)
	}

	templates, err := s.repo.ShiftTemplate.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询班次模板失败", zap.Error(err))
		return nil, err
	}

	// 1. 子时段须是该日某个适用模板的合法拆分结果
	if err := s.validateSubSlot(templates, date, req.SubSlot); err != nil {
		return nil, err
	}

	// 2. 与当日基线排班相交则拒绝
	regs, err := s.repo.ScheduleRegistration.ListApprovedByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	baseline, err := ExpandWorkerSchedule(workerID, date, date, templates, regs)
	if err != nil {
		if pkgerrors.IsKind(err, pkgerrors.KindConfiguration) {
			// 基线展开失败不应阻塞加班登记，记警后按无基线处理
			s.logger.Warn("基线展开失败，跳过基线冲突检查",
				zap.String("worker_id", workerID), zap.Error(err))
		} else {
			return nil, err
		}
	}
	for _, inst := range baseline {
		bs, be, perr := parseInstanceWindow(inst)
		if perr != nil {
			continue
		}
		if overlaps(newStart, newEnd, bs, be) {
			return nil, pkgerrors.Conflict("子时段 %s 与当日基线排班 %s-%s 冲突", req.SubSlot, inst.StartTime, inst.EndTime)
		}
	}

	// 3. 与当日其他未终结的加班重叠则拒绝
	existing, err := s.repo.Overtime.ListActiveByWorkerAndDate(ctx, workerID, date)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		es, ee, perr := ParseSubSlotID(existing[i].SubSlot)
		if perr != nil {
			continue
		}
		if overlaps(newStart, newEnd, es, ee) {
			return nil, pkgerrors.Conflict("子时段 %s 与已有加班登记 %s 重叠", req.SubSlot, existing[i].SubSlot)
		}
	}

	ot := model.OvertimeRegistration{
		WorkerID: workerID,
		Date:     date,
		SubSlot:  req.SubSlot,
		Reason:   req.Reason,
		Status:   model.StatusPending,
	}
	ot.CreatedBy = &workerID
	if err := s.repo.Overtime.Create(ctx, &ot); err != nil {
		s.logger.Error("创建加班登记失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("加班登记已提交",
		zap.String("worker_id", workerID),
		zap.String("overtime_id", ot.OvertimeID),
		zap.String("date", req.Date),
		zap.String("sub_slot", req.SubSlot),
	)

	resp := toOvertimeResponse(&ot)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 审批流转
// ════════════════════════════════════════════════════════════

func (s *overtimeService) Approve(ctx context.Context, overtimeID, approverID string) (*dto.OvertimeResponse, error) {
	ot, err := s.getOvertime(ctx, overtimeID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.EnsureTransition(ot.Status, model.StatusApproved); err != nil {
		return nil, err
	}

	approved, err := s.repo.Overtime.Approve(ctx, overtimeID, approverID)
	if err != nil {
		s.logger.Error("审批加班登记失败", zap.Error(err))
		return nil, err
	}

	s.notifier.Publish(ctx, approved.WorkerID, model.EventOvertimeApproved,
		"overtime_registration", approved.OvertimeID,
		"加班登记已通过",
		fmt.Sprintf("您 %s %s 的加班登记已审批通过", approved.Date.Format("2006-01-02"), approved.SubSlot),
	)

	resp := toOvertimeResponse(approved)
	return &resp, nil
}

func (s *overtimeService) Reject(ctx context.Context, overtimeID, reason, approverID string) (*dto.OvertimeResponse, error) {
	ot, err := s.getOvertime(ctx, overtimeID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.EnsureTransition(ot.Status, model.StatusRejected); err != nil {
		return nil, err
	}

	now := time.Now()
	ot.Status = model.StatusRejected
	ot.RejectReason = reason
	ot.ApprovedBy = &approverID
	ot.ApprovedAt = &now
	ot.UpdatedBy = &approverID
	if err := s.repo.Overtime.UpdateStatus(ctx, ot); err != nil {
		s.logger.Error("拒绝加班登记失败", zap.Error(err))
		return nil, err
	}

	s.notifier.Publish(ctx, ot.WorkerID, model.EventOvertimeRejected,
		"overtime_registration", ot.OvertimeID,
		"加班登记被拒绝",
		fmt.Sprintf("您 %s %s 的加班登记被拒绝：%s", ot.Date.Format("2006-01-02"), ot.SubSlot, reason),
	)

	resp := toOvertimeResponse(ot)
	return &resp, nil
}

func (s *overtimeService) Cancel(ctx context.Context, overtimeID, callerID string) error {
	ot, err := s.getOvertime(ctx, overtimeID)
	if err != nil {
		return err
	}
	if err := s.wf.EnsureCancellable(ot.Status, ot.WorkerID, callerID); err != nil {
		return err
	}

	ot.Status = model.StatusCancelled
	ot.UpdatedBy = &callerID
	if err := s.repo.Overtime.UpdateStatus(ctx, ot); err != nil {
		s.logger.Error("取消加班登记失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *overtimeService) ListMy(ctx context.Context, workerID string, page, pageSize int) ([]dto.OvertimeResponse, int64, error) {
	offset := (page - 1) * pageSize
	ots, total, err := s.repo.Overtime.ListByWorker(ctx, workerID, offset, pageSize)
	if err != nil {
		s.logger.Error("查询加班登记失败", zap.Error(err))
		return nil, 0, err
	}

	resps := make([]dto.OvertimeResponse, 0, len(ots))
	for i := range ots {
		resps = append(resps, toOvertimeResponse(&ots[i]))
	}
	return resps, total, nil
}

// ── 内部辅助 ──

func (s *overtimeService) getOvertime(ctx context.Context, id string) (*model.OvertimeRegistration, error) {
	ot, err := s.repo.Overtime.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("加班登记不存在")
		}
		return nil, err
	}
	return ot, nil
}

// validateSubSlot 校验子时段为该日某个适用模板的拆分结果
func (s *overtimeService) validateSubSlot(templates []model.ShiftTemplate, date time.Time, subSlotID string) error {
	weekday := int(date.Weekday())
	for i := range templates {
		if !templates[i].ApplicableWeekdays.Contains(weekday) {
			continue
		}
		slots, err := SplitTemplate(&templates[i])
		if err != nil {
			s.logger.Warn("班次模板拆分失败", zap.String("template", templates[i].Name), zap.Error(err))
			continue
		}
		for _, slot := range slots {
			if slot.ID() == subSlotID {
				return nil
			}
		}
	}
	return pkgerrors.Validation("子时段 %q 不是该日期的合法加班时段", subSlotID)
}

// overlaps 判断两个半开区间 [aStart,aEnd) 与 [bStart,bEnd) 是否相交
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

func parseInstanceWindow(inst CalendarInstance) (startMin, endMin int, err error) {
	startMin, err = ParseClock(inst.StartTime)
	if err != nil {
		return 0, 0, err
	}
	endMin, err = ParseClock(inst.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return startMin, endMin, nil
}

func toOvertimeResponse(ot *model.OvertimeRegistration) dto.OvertimeResponse {
	return dto.OvertimeResponse{
		ID:           ot.OvertimeID,
		WorkerID:     ot.WorkerID,
		Date:         ot.Date,
		SubSlot:      ot.SubSlot,
		Reason:       ot.Reason,
		Status:       ot.Status,
		ApprovedBy:   ot.ApprovedBy,
		ApprovedAt:   ot.ApprovedAt,
		RejectReason: ot.RejectReason,
		CreatedAt:    ot.CreatedAt,
	}
}
