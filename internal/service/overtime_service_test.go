package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

func newOvertimeTestService(t *testing.T) (OvertimeService, *repository.Repository) {
	t.Helper()
	repo := newTestRepo()
	ctx := context.Background()
	if err := repo.ShiftTemplate.Create(ctx, morningTemplate()); err != nil {
		t.Fatalf("初始化班次模板失败: %v", err)
	}
	if err := repo.ShiftTemplate.Create(ctx, afternoonTemplate()); err != nil {
		t.Fatalf("初始化班次模板失败: %v", err)
	}
	notifier := NewNotificationService(repo, zap.NewNop())
	return NewOvertimeService(repo, notifier, zap.NewNop()), repo
}

// seedFlexibleBaseline 给 w1 一条已生效的弹性登记：仅周一 07:00-09:30
func seedFlexibleBaseline(t *testing.T, repo *repository.Repository) {
	t.Helper()
	reg := model.ScheduleRegistration{
		WorkerID:      "w1",
		Mode:          model.ModeFlexible,
		Status:        model.StatusApproved,
		EffectiveDate: datePtr(mustDate("2020-01-01")),
		WeeklySlots:   model.WeeklySlots{1: {"07:00-09:30"}},
	}
	if err := repo.ScheduleRegistration.Create(context.Background(), &reg); err != nil {
		t.Fatalf("初始化排班登记失败: %v", err)
	}
}

// nextWeekday 返回不早于明日的下一个指定星期
func nextWeekday(w time.Weekday) time.Time {
	d := dateOnly(time.Now()).AddDate(0, 0, 1)
	for d.Weekday() != w {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestRegisterOvertimeOutsideBaseline(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	seedFlexibleBaseline(t, repo)
	monday := nextWeekday(time.Monday).Format("2006-01-02")

	// 周一基线仅 07:00-09:30，其余合法子时段均可加班
	resp, err := svc.Register(context.Background(), &dto.RegisterOvertimeRequest{
		Date:    monday,
		SubSlot: "09:30-12:00",
		Reason:  "门诊人手不足",
	}, "w1")
	if err != nil {
		t.Fatalf("加班登记失败: %v", err)
	}
	if resp.Status != model.StatusPending || resp.SubSlot != "09:30-12:00" {
		t.Errorf("登记结果不符: %+v", resp)
	}
}

func TestRegisterOvertimeConflictsWithBaseline(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	seedFlexibleBaseline(t, repo)
	monday := nextWeekday(time.Monday).Format("2006-01-02")

	_, err := svc.Register(context.Background(), &dto.RegisterOvertimeRequest{
		Date:    monday,
		SubSlot: "07:00-09:30",
	}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("与基线重叠期望 KindConflict, 实际 %v", err)
	}
}

func TestRegisterOvertimeFixedWorkerFullyBlocked(t *testing.T) {
	// 无登记的员工默认 fixed 全覆盖，任何合法子时段都与基线冲突
	svc, _ := newOvertimeTestService(t)
	monday := nextWeekday(time.Monday).Format("2006-01-02")

	for _, slot := range []string{"07:00-09:30", "09:30-12:00", "13:00-15:00", "15:00-17:00"} {
		_, err := svc.Register(context.Background(), &dto.RegisterOvertimeRequest{
			Date:    monday,
			SubSlot: slot,
		}, "w9")
		if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
			t.Errorf("子时段 %s 期望 KindConflict, 实际 %v", slot, err)
		}
	}
}

func TestRegisterOvertimeRejectsInvalidInput(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	seedFlexibleBaseline(t, repo)
	ctx := context.Background()

	// 过去日期
	yesterday := dateOnly(time.Now()).AddDate(0, 0, -1).Format("2006-01-02")
	if _, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: yesterday, SubSlot: "09:30-12:00"}, "w1"); !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("过去日期期望 KindValidation, 实际 %v", err)
	}

	// 非任何模板的拆分结果
	monday := nextWeekday(time.Monday).Format("2006-01-02")
	if _, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "08:00-09:00"}, "w1"); !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("非法子时段期望 KindValidation, 实际 %v", err)
	}

	// afternoon 周日不适用
	sunday := nextWeekday(time.Sunday).Format("2006-01-02")
	if _, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: sunday, SubSlot: "13:00-15:00"}, "w1"); !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("不适用星期期望 KindValidation, 实际 %v", err)
	}

	// 标识格式错误
	if _, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "0930-1200"}, "w1"); !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("格式错误期望 KindValidation, 实际 %v", err)
	}
}

func TestRegisterOvertimeRejectsOverlapWithExisting(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	seedFlexibleBaseline(t, repo)
	ctx := context.Background()
	monday := nextWeekday(time.Monday).Format("2006-01-02")

	if _, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "09:30-12:00"}, "w1"); err != nil {
		t.Fatalf("首次登记失败: %v", err)
	}

	// pending 状态的已有登记也参与重叠检查
	_, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "09:30-12:00"}, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("重叠加班期望 KindConflict, 实际 %v", err)
	}

	// 不重叠的另一子时段可继续登记
	if _, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "13:00-15:00"}, "w1"); err != nil {
		t.Errorf("不重叠子时段登记不应报错: %v", err)
	}
}

func TestOvertimeApproveFlow(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	seedFlexibleBaseline(t, repo)
	ctx := context.Background()
	monday := nextWeekday(time.Monday).Format("2006-01-02")

	created, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "09:30-12:00"}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	approved, err := svc.Approve(ctx, created.ID, "admin-1")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if approved.Status != model.StatusApproved {
		t.Errorf("期望 approved, 实际 %s", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != "admin-1" {
		t.Errorf("审批人未记录: %v", approved.ApprovedBy)
	}

	count, err := repo.Notification.CountUnread(ctx, "w1")
	if err != nil || count != 1 {
		t.Errorf("期望 1 条未读通知, 实际 %d (err=%v)", count, err)
	}

	// 终态不可再流转
	if _, err := svc.Reject(ctx, created.ID, "理由", "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("已审批后拒绝期望 KindConflict, 实际 %v", err)
	}
}

func TestOvertimeApproveRechecksOverlap(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	ctx := context.Background()
	monday := dateOnly(nextWeekday(time.Monday))

	// 模拟并发提交：两条重叠的待审记录都通过了提交期的重叠检查
	first := &model.OvertimeRegistration{WorkerID: "w1", Date: monday, SubSlot: "09:30-12:00", Status: model.StatusPending}
	second := &model.OvertimeRegistration{WorkerID: "w1", Date: monday, SubSlot: "09:30-12:00", Status: model.StatusPending}
	if err := repo.Overtime.Create(ctx, first); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if err := repo.Overtime.Create(ctx, second); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	if _, err := svc.Approve(ctx, first.OvertimeID, "admin-1"); err != nil {
		t.Fatalf("首条审批失败: %v", err)
	}
	// 审批串行化后的锁内复核应拦截第二条
	if _, err := svc.Approve(ctx, second.OvertimeID, "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("重叠记录审批期望 KindConflict, 实际 %v", err)
	}
}

func TestOvertimeRejectAndCancel(t *testing.T) {
	svc, repo := newOvertimeTestService(t)
	seedFlexibleBaseline(t, repo)
	ctx := context.Background()
	monday := nextWeekday(time.Monday).Format("2006-01-02")

	first, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "09:30-12:00"}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	rejected, err := svc.Reject(ctx, first.ID, "当日无需加班", "admin-1")
	if err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}
	if rejected.Status != model.StatusRejected || rejected.RejectReason != "当日无需加班" {
		t.Errorf("拒绝结果不符: %+v", rejected)
	}

	// 被拒绝的登记不再占用该子时段
	second, err := svc.Register(ctx, &dto.RegisterOvertimeRequest{Date: monday, SubSlot: "09:30-12:00"}, "w1")
	if err != nil {
		t.Fatalf("拒绝后重新登记失败: %v", err)
	}

	if err := svc.Cancel(ctx, second.ID, "w2"); !pkgerrors.IsKind(err, pkgerrors.KindAuthorization) {
		t.Errorf("他人取消期望 KindAuthorization, 实际 %v", err)
	}
	if err := svc.Cancel(ctx, second.ID, "w1"); err != nil {
		t.Errorf("发起人取消不应报错: %v", err)
	}
}

func TestOvertimeNotFound(t *testing.T) {
	svc, _ := newOvertimeTestService(t)

	if _, err := svc.Approve(context.Background(), "no-such-id", "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindNotFound) {
		t.Errorf("期望 KindNotFound, 实际 %v", err)
	}
}
