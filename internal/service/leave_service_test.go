package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

func newLeaveTestService(t *testing.T) (LeaveService, *repository.Repository) {
	t.Helper()
	repo := newTestRepo()
	if err := repo.ShiftTemplate.Create(context.Background(), morningTemplate()); err != nil {
		t.Fatalf("初始化班次模板失败: %v", err)
	}
	notifier := NewNotificationService(repo, zap.NewNop())
	return NewLeaveService(repo, notifier, zap.NewNop()), repo
}

func TestSubmitFullDayLeave(t *testing.T) {
	svc, _ := newLeaveTestService(t)

	resp, err := svc.Submit(context.Background(), &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-10",
		Reason:    "家中有事",
	}, "w1")
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if resp.Status != model.StatusPending || resp.LeaveType != model.LeaveFullDay {
		t.Errorf("提交结果不符: %+v", resp)
	}
	if resp.DateTo != nil {
		t.Errorf("单日请假不应有 date_to: %v", resp.DateTo)
	}
}

func TestSubmitMultipleDaysLeave(t *testing.T) {
	svc, _ := newLeaveTestService(t)
	ctx := context.Background()

	// 缺 date_to
	_, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveMultipleDays,
		DateFrom:  "2026-09-10",
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("缺 date_to 期望 KindValidation, 实际 %v", err)
	}

	// date_to 早于 date_from
	_, err = svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveMultipleDays,
		DateFrom:  "2026-09-10",
		DateTo:    strPtr("2026-09-09"),
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("倒序日期期望 KindValidation, 实际 %v", err)
	}

	resp, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveMultipleDays,
		DateFrom:  "2026-09-10",
		DateTo:    strPtr("2026-09-12"),
	}, "w1")
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if resp.DateTo == nil || !resp.DateTo.Equal(mustDate("2026-09-12")) {
		t.Errorf("date_to 未保存: %v", resp.DateTo)
	}
}

func TestSubmitSingleShiftLeave(t *testing.T) {
	svc, _ := newLeaveTestService(t)
	ctx := context.Background()

	// 缺 shift_name
	_, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveSingleShift,
		DateFrom:  "2026-09-10",
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("缺 shift_name 期望 KindValidation, 实际 %v", err)
	}

	// 班次不存在
	_, err = svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveSingleShift,
		DateFrom:  "2026-09-10",
		ShiftName: strPtr("night"),
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("未知班次期望 KindValidation, 实际 %v", err)
	}

	resp, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveSingleShift,
		DateFrom:  "2026-09-10",
		ShiftName: strPtr("morning"),
	}, "w1")
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if resp.ShiftName == nil || *resp.ShiftName != "morning" {
		t.Errorf("shift_name 未保存: %v", resp.ShiftName)
	}
}

func TestSubmitTimeRangeLeave(t *testing.T) {
	svc, _ := newLeaveTestService(t)
	ctx := context.Background()

	// 缺时刻
	_, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveTimeRange,
		DateFrom:  "2026-09-10",
		TimeFrom:  strPtr("09:00"),
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("缺 time_to 期望 KindValidation, 实际 %v", err)
	}

	// 时刻倒序
	_, err = svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveTimeRange,
		DateFrom:  "2026-09-10",
		TimeFrom:  strPtr("11:00"),
		TimeTo:    strPtr("09:00"),
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("时刻倒序期望 KindValidation, 实际 %v", err)
	}

	if _, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveTimeRange,
		DateFrom:  "2026-09-10",
		TimeFrom:  strPtr("09:00"),
		TimeTo:    strPtr("11:00"),
	}, "w1"); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
}

func TestSubmitLeaveRejectsOverlap(t *testing.T) {
	svc, _ := newLeaveTestService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveMultipleDays,
		DateFrom:  "2026-09-10",
		DateTo:    strPtr("2026-09-12"),
	}, "w1"); err != nil {
		t.Fatalf("首次提交失败: %v", err)
	}

	// 区间任一日重叠即拒绝，类型不同也一样
	_, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-12",
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("区间重叠期望 KindConflict, 实际 %v", err)
	}

	// 相邻不重叠的日期可提交
	if _, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-13",
	}, "w1"); err != nil {
		t.Errorf("相邻日期提交不应报错: %v", err)
	}

	// 其他员工不受影响
	if _, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-11",
	}, "w2"); err != nil {
		t.Errorf("其他员工提交不应报错: %v", err)
	}
}

func TestLeaveApprovalFlow(t *testing.T) {
	svc, repo := newLeaveTestService(t)
	ctx := context.Background()

	created, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-10",
	}, "w1")
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	approved, err := svc.Approve(ctx, created.ID, "admin-1")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if approved.Status != model.StatusApproved {
		t.Errorf("期望 approved, 实际 %s", approved.Status)
	}
	if approved.ProcessedBy == nil || *approved.ProcessedBy != "admin-1" {
		t.Errorf("处理人未记录: %v", approved.ProcessedBy)
	}

	count, err := repo.Notification.CountUnread(ctx, "w1")
	if err != nil || count != 1 {
		t.Errorf("期望 1 条未读通知, 实际 %d (err=%v)", count, err)
	}

	if _, err := svc.Approve(ctx, created.ID, "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("重复审批期望 KindConflict, 实际 %v", err)
	}
}

func TestLeaveApproveRechecksOverlap(t *testing.T) {
	svc, repo := newLeaveTestService(t)
	ctx := context.Background()

	// 模拟并发提交：两条日期重叠的待审申请都通过了提交期的重叠检查
	first := &model.LeaveRequest{WorkerID: "w1", LeaveType: model.LeaveFullDay,
		DateFrom: mustDate("2026-09-10"), Status: model.StatusPending}
	second := &model.LeaveRequest{WorkerID: "w1", LeaveType: model.LeaveFullDay,
		DateFrom: mustDate("2026-09-10"), Status: model.StatusPending}
	if err := repo.Leave.Create(ctx, first); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := repo.Leave.Create(ctx, second); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	if _, err := svc.Approve(ctx, first.LeaveRequestID, "admin-1"); err != nil {
		t.Fatalf("首条审批失败: %v", err)
	}
	// 审批串行化后的锁内复核应拦截第二条
	if _, err := svc.Approve(ctx, second.LeaveRequestID, "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("重叠申请审批期望 KindConflict, 实际 %v", err)
	}
}

func TestLeaveRejectAndCancel(t *testing.T) {
	svc, _ := newLeaveTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-10",
	}, "w1")
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	rejected, err := svc.Reject(ctx, first.ID, "排班紧张", "admin-1")
	if err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}
	if rejected.Status != model.StatusRejected || rejected.RejectReason != "排班紧张" {
		t.Errorf("拒绝结果不符: %+v", rejected)
	}

	// 被拒绝后同区间可重新提交
	second, err := svc.Submit(ctx, &dto.CreateLeaveRequest{
		LeaveType: model.LeaveFullDay,
		DateFrom:  "2026-09-10",
	}, "w1")
	if err != nil {
		t.Fatalf("拒绝后重新提交失败: %v", err)
	}

	if err := svc.Cancel(ctx, second.ID, "w2"); !pkgerrors.IsKind(err, pkgerrors.KindAuthorization) {
		t.Errorf("他人取消期望 KindAuthorization, 实际 %v", err)
	}
	if err := svc.Cancel(ctx, second.ID, "w1"); err != nil {
		t.Errorf("发起人取消不应报错: %v", err)
	}
}

func TestLeaveNotFound(t *testing.T) {
	svc, _ := newLeaveTestService(t)

	if _, err := svc.Approve(context.Background(), "no-such-id", "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindNotFound) {
		t.Errorf("期望 KindNotFound, 实际 %v", err)
	}
}
