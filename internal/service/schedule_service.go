package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/config"
	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── ScheduleService 接口 ──────────────────────────────────
//
// 设计说明：
//   - 弹性排班登记走统一审批状态机（workflow.go），提交校验在本层：
//     每个子时段标识必须对应某个启用模板在该星期的合法拆分结果。
//   - 全选检测：提交选中了每个启用模板在每个适用星期的全部子时段时，
//     归一化为 fixed 模式后落库（与"自动全职"识别规则一致）。
//   - 审批通过设置 effective_date 并取代该员工此前的当前登记；
//     被取代的登记保留生效区间，供历史日期的展开使用。
//   - 同一员工的审批在 Repository 层以员工行锁串行化。
// ─────────────────────────────────────────────────────────────

// ScheduleService 排班登记业务接口
type ScheduleService interface {
	// RegisterFlexible 提交弹性排班登记
	RegisterFlexible(ctx context.Context, req *dto.RegisterFlexibleRequest, workerID string) (*dto.RegistrationResponse, error)
	// ListMyRegistrations 查询本人登记历史
	ListMyRegistrations(ctx context.Context, workerID string, page, pageSize int) ([]dto.RegistrationResponse, int64, error)
	// Approve 审批通过（管理员）
	Approve(ctx context.Context, registrationID string, req *dto.ApproveRegistrationRequest, processorID string) (*dto.RegistrationResponse, error)
	// Reject 拒绝（管理员）
	Reject(ctx context.Context, registrationID, reason, processorID string) (*dto.RegistrationResponse, error)
	// Cancel 取消（仅发起人，仅 pending）
	Cancel(ctx context.Context, registrationID, callerID string) error
}

type scheduleService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier NotificationService
	logger   *zap.Logger

	wf Workflow
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.Config, repo *repository.Repository, notifier NotificationService, logger *zap.Logger) ScheduleService {
	return &scheduleService{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		wf:       Workflow{Kind: "排班登记"},
	}
}

// ════════════════════════════════════════════════════════════
// RegisterFlexible — 提交弹性排班登记
// ════════════════════════════════════════════════════════════

func (s *scheduleService) RegisterFlexible(ctx context.Context, req *dto.RegisterFlexibleRequest, workerID string) (*dto.RegistrationResponse, error) {
	templates, err := s.repo.ShiftTemplate.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询班次模板失败", zap.Error(err))
		return nil, err
	}
	if len(templates) == 0 {
		return nil, pkgerrors.Configuration("无启用的班次模板，无法登记")
	}

	// 合法子时段表：weekday → 子时段标识集合
	validSlots, err := weekdaySlotTable(templates)
	if err != nil {
		return nil, err
	}

	// 1. 校验每个提交的子时段
	cleaned := make(model.WeeklySlots)
	for weekday, slots := range req.WeeklySlots {
		if weekday < 0 || weekday > 6 {
			return nil, pkgerrors.Validation("无效的星期 %d", weekday)
		}
		seen := make(map[string]bool)
		for _, slotID := range slots {
			if !validSlots[weekday][slotID] {
				return nil, pkgerrors.Validation("子时段 %q 不是星期 %d 的合法选项", slotID, weekday)
			}
			if !seen[slotID] {
				seen[slotID] = true
				cleaned[weekday] = append(cleaned[weekday], slotID)
			}
		}
	}
	if cleaned.IsEmpty() {
		return nil, pkgerrors.Validation("至少须选择一个子时段")
	}

	// 2. 同一员工仅允许一条待审批登记
	if _, err := s.repo.ScheduleRegistration.GetPendingByWorker(ctx, workerID); err == nil {
		return nil, pkgerrors.Conflict("已存在待审批的排班登记，请先取消或等待处理")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 全选归一化为 fixed
	reg := model.ScheduleRegistration{
		WorkerID: workerID,
		Mode:     model.ModeFlexible,
		Status:   model.StatusPending,
	}
	if isFullSelection(cleaned, validSlots) {
		reg.Mode = model.ModeFixed
		reg.WeeklySlots = nil
	} else {
		reg.WeeklySlots = cleaned
	}
	reg.CreatedBy = &workerID

	if err := s.repo.ScheduleRegistration.Create(ctx, &reg); err != nil {
		s.logger.Error("创建排班登记失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("排班登记已提交",
		zap.String("worker_id", workerID),
		zap.String("registration_id", reg.RegistrationID),
		zap.String("mode", reg.Mode),
	)

	resp := toRegistrationResponse(&reg)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 审批流转
// ════════════════════════════════════════════════════════════

func (s *scheduleService) Approve(ctx context.Context, registrationID string, req *dto.ApproveRegistrationRequest, processorID string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.EnsureTransition(reg.Status, model.StatusApproved); err != nil {
		return nil, err
	}

	// 已审批的弹性登记必须有时段数据（管理员不应审批空登记）
	if reg.Mode == model.ModeFlexible && reg.WeeklySlots.IsEmpty() {
		return nil, pkgerrors.Configuration("弹性登记无周时段数据，不能审批")
	}

	// 生效日期：缺省为审批日 + 提前量（惯例次日生效），不得早于当日
	today := dateOnly(time.Now())
	effectiveDate := today.AddDate(0, 0, s.cfg.Calendar.EffectiveLeadDays)
	if req.EffectiveDate != "" {
		d, err := time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			return nil, pkgerrors.Validation("无效的生效日期 %q", req.EffectiveDate)
		}
		if d.Before(today) {
			return nil, pkgerrors.Validation("生效日期不得早于当日")
		}
		effectiveDate = d
	}

	approved, err := s.repo.ScheduleRegistration.Approve(ctx, registrationID, processorID, effectiveDate)
	if err != nil {
		s.logger.Error("审批排班登记失败", zap.Error(err))
		return nil, err
	}

	s.notifier.Publish(ctx, approved.WorkerID, model.EventRegistrationApproved,
		"schedule_registration", approved.RegistrationID,
		"排班登记已通过",
		fmt.Sprintf("您的排班登记已审批通过，自 %s 起生效", effectiveDate.Format("2006-01-02")),
	)

	resp := toRegistrationResponse(approved)
	return &resp, nil
}

func (s *scheduleService) Reject(ctx context.Context, registrationID, reason, processorID string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if err := s.wf.EnsureTransition(reg.Status, model.StatusRejected); err != nil {
		return nil, err
	}

	now := time.Now()
	reg.Status = model.StatusRejected
	reg.RejectReason = reason
	reg.ProcessedBy = &processorID
	reg.ProcessedAt = &now
	reg.UpdatedBy = &processorID
	if err := s.repo.ScheduleRegistration.UpdateStatus(ctx, reg); err != nil {
		s.logger.Error("拒绝排班登记失败", zap.Error(err))
		return nil, err
	}

	s.notifier.Publish(ctx, reg.WorkerID, model.EventRegistrationRejected,
		"schedule_registration", reg.RegistrationID,
		"排班登记被拒绝",
		fmt.Sprintf("您的排班登记被拒绝：%s，可修改后重新提交", reason),
	)

	resp := toRegistrationResponse(reg)
	return &resp, nil
}

func (s *scheduleService) Cancel(ctx context.Context, registrationID, callerID string) error {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return err
	}
	if err := s.wf.EnsureCancellable(reg.Status, reg.WorkerID, callerID); err != nil {
		return err
	}

	reg.Status = model.StatusCancelled
	reg.UpdatedBy = &callerID
	if err := s.repo.ScheduleRegistration.UpdateStatus(ctx, reg); err != nil {
		s.logger.Error("取消排班登记失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *scheduleService) ListMyRegistrations(ctx context.Context, workerID string, page, pageSize int) ([]dto.RegistrationResponse, int64, error) {
	offset := (page - 1) * pageSize
	regs, total, err := s.repo.ScheduleRegistration.ListByWorker(ctx, workerID, offset, pageSize)
	if err != nil {
		s.logger.Error("查询排班登记失败", zap.Error(err))
		return nil, 0, err
	}

	resps := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		resps = append(resps, toRegistrationResponse(&regs[i]))
	}
	return resps, total, nil
}

// ── 内部辅助 ──

func (s *scheduleService) getRegistration(ctx context.Context, id string) (*model.ScheduleRegistration, error) {
	reg, err := s.repo.ScheduleRegistration.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("排班登记不存在")
		}
		return nil, err
	}
	return reg, nil
}

// weekdaySlotTable 构建 weekday → 合法子时段标识集合
func weekdaySlotTable(templates []model.ShiftTemplate) (map[int]map[string]bool, error) {
	table := make(map[int]map[string]bool)
	for i := range templates {
		slots, err := SplitTemplate(&templates[i])
		if err != nil {
			return nil, err
		}
		for _, w := range templates[i].ApplicableWeekdays {
			if table[w] == nil {
				table[w] = make(map[string]bool)
			}
			for _, slot := range slots {
				table[w][slot.ID()] = true
			}
		}
	}
	return table, nil
}

// isFullSelection 判断提交是否覆盖了全部合法子时段（语义上等价于 fixed）
func isFullSelection(selected model.WeeklySlots, validSlots map[int]map[string]bool) bool {
	for weekday, slots := range validSlots {
		chosen := make(map[string]bool, len(selected[weekday]))
		for _, id := range selected[weekday] {
			chosen[id] = true
		}
		for id := range slots {
			if !chosen[id] {
				return false
			}
		}
	}
	return true
}

func toRegistrationResponse(reg *model.ScheduleRegistration) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:            reg.RegistrationID,
		WorkerID:      reg.WorkerID,
		Mode:          reg.Mode,
		WeeklySlots:   reg.WeeklySlots,
		Status:        reg.Status,
		EffectiveDate: reg.EffectiveDate,
		RejectReason:  reg.RejectReason,
		CreatedAt:     reg.CreatedAt,
	}
}
