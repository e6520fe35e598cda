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

func newScheduleTestService(t *testing.T) (ScheduleService, *repository.Repository) {
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
	return NewScheduleService(testConfig(), repo, notifier, zap.NewNop()), repo
}

func TestRegisterFlexiblePartialSelection(t *testing.T) {
	svc, _ := newScheduleTestService(t)

	resp, err := svc.RegisterFlexible(context.Background(), &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{
			1: {"07:00-09:30", "13:00-15:00"},
			3: {"09:30-12:00"},
		},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	if resp.Mode != model.ModeFlexible {
		t.Errorf("部分选择期望 flexible, 实际 %s", resp.Mode)
	}
	if resp.Status != model.StatusPending {
		t.Errorf("新登记期望 pending, 实际 %s", resp.Status)
	}
	if len(resp.WeeklySlots[1]) != 2 || len(resp.WeeklySlots[3]) != 1 {
		t.Errorf("周时段未按提交保存: %v", resp.WeeklySlots)
	}
}

func TestRegisterFlexibleFullSelectionBecomesFixed(t *testing.T) {
	svc, _ := newScheduleTestService(t)

	// morning 全周两段 + afternoon 工作日两段 = 全量选择
	slots := make(map[int][]string)
	for w := 0; w <= 6; w++ {
		slots[w] = []string{"07:00-09:30", "09:30-12:00"}
	}
	for w := 1; w <= 5; w++ {
		slots[w] = append(slots[w], "13:00-15:00", "15:00-17:00")
	}

	resp, err := svc.RegisterFlexible(context.Background(), &dto.RegisterFlexibleRequest{WeeklySlots: slots}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	if resp.Mode != model.ModeFixed {
		t.Errorf("全量选择期望归一化为 fixed, 实际 %s", resp.Mode)
	}
	if resp.WeeklySlots != nil {
		t.Errorf("fixed 登记不应保存周时段, 实际 %v", resp.WeeklySlots)
	}
}

func TestRegisterFlexibleRejectsInvalidSlot(t *testing.T) {
	svc, _ := newScheduleTestService(t)

	cases := []map[int][]string{
		{1: {"08:00-09:00"}}, // 不是任何模板的拆分结果
		{0: {"13:00-15:00"}}, // afternoon 周日不适用
		{7: {"07:00-09:30"}}, // 非法星期
		{2: {}},              // 空选择
	}
	for i, slots := range cases {
		_, err := svc.RegisterFlexible(context.Background(), &dto.RegisterFlexibleRequest{WeeklySlots: slots}, "w1")
		if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
			t.Errorf("用例 %d 期望 KindValidation, 实际 %v", i, err)
		}
	}
}

func TestRegisterFlexibleDedupesSlots(t *testing.T) {
	svc, _ := newScheduleTestService(t)

	resp, err := svc.RegisterFlexible(context.Background(), &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30", "07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}
	if len(resp.WeeklySlots[1]) != 1 {
		t.Errorf("重复子时段应去重, 实际 %v", resp.WeeklySlots[1])
	}
}

func TestRegisterFlexibleRejectsDuplicatePending(t *testing.T) {
	svc, _ := newScheduleTestService(t)
	ctx := context.Background()
	req := &dto.RegisterFlexibleRequest{WeeklySlots: map[int][]string{1: {"07:00-09:30"}}}

	if _, err := svc.RegisterFlexible(ctx, req, "w1"); err != nil {
		t.Fatalf("首次登记失败: %v", err)
	}

	_, err := svc.RegisterFlexible(ctx, req, "w1")
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("重复待审批登记期望 KindConflict, 实际 %v", err)
	}

	// 其他员工不受影响
	if _, err := svc.RegisterFlexible(ctx, req, "w2"); err != nil {
		t.Errorf("其他员工登记不应受影响: %v", err)
	}
}

func TestApproveSetsDefaultEffectiveDate(t *testing.T) {
	svc, repo := newScheduleTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	approved, err := svc.Approve(ctx, created.ID, &dto.ApproveRegistrationRequest{}, "admin-1")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}

	if approved.Status != model.StatusApproved {
		t.Errorf("期望 approved, 实际 %s", approved.Status)
	}
	want := dateOnly(time.Now()).AddDate(0, 0, 1) // 提前量 1 天 → 次日生效
	if approved.EffectiveDate == nil || !approved.EffectiveDate.Equal(want) {
		t.Errorf("缺省生效日期期望 %s, 实际 %v", want.Format("2006-01-02"), approved.EffectiveDate)
	}

	// 审批应产生一条通知
	count, err := repo.Notification.CountUnread(ctx, "w1")
	if err != nil || count != 1 {
		t.Errorf("期望 1 条未读通知, 实际 %d (err=%v)", count, err)
	}
}

func TestApproveExplicitEffectiveDate(t *testing.T) {
	svc, _ := newScheduleTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	future := dateOnly(time.Now()).AddDate(0, 0, 14).Format("2006-01-02")
	approved, err := svc.Approve(ctx, created.ID, &dto.ApproveRegistrationRequest{EffectiveDate: future}, "admin-1")
	if err != nil {
		t.Fatalf("审批失败: %v", err)
	}
	if approved.EffectiveDate.Format("2006-01-02") != future {
		t.Errorf("生效日期期望 %s, 实际 %s", future, approved.EffectiveDate.Format("2006-01-02"))
	}
}

func TestApproveRejectsPastEffectiveDate(t *testing.T) {
	svc, _ := newScheduleTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	past := dateOnly(time.Now()).AddDate(0, 0, -1).Format("2006-01-02")
	_, err = svc.Approve(ctx, created.ID, &dto.ApproveRegistrationRequest{EffectiveDate: past}, "admin-1")
	if !pkgerrors.IsKind(err, pkgerrors.KindValidation) {
		t.Errorf("过去的生效日期期望 KindValidation, 实际 %v", err)
	}
}

func TestApproveRejectsTerminalStates(t *testing.T) {
	svc, _ := newScheduleTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}
	if _, err := svc.Approve(ctx, created.ID, &dto.ApproveRegistrationRequest{}, "admin-1"); err != nil {
		t.Fatalf("审批失败: %v", err)
	}

	// 已审批的登记不可再次流转
	if _, err := svc.Approve(ctx, created.ID, &dto.ApproveRegistrationRequest{}, "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("重复审批期望 KindConflict, 实际 %v", err)
	}
	if _, err := svc.Reject(ctx, created.ID, "不符合要求", "admin-1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("已审批后拒绝期望 KindConflict, 实际 %v", err)
	}
	if err := svc.Cancel(ctx, created.ID, "w1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("已审批后取消期望 KindConflict, 实际 %v", err)
	}
}

func TestRejectRecordsReason(t *testing.T) {
	svc, _ := newScheduleTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	rejected, err := svc.Reject(ctx, created.ID, "排班人力不足", "admin-1")
	if err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}
	if rejected.Status != model.StatusRejected || rejected.RejectReason != "排班人力不足" {
		t.Errorf("拒绝结果不符: %+v", rejected)
	}

	// 被拒绝后可重新提交
	if _, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{2: {"09:30-12:00"}},
	}, "w1"); err != nil {
		t.Errorf("被拒绝后重新提交不应报错: %v", err)
	}
}

func TestCancelOnlyByOwner(t *testing.T) {
	svc, _ := newScheduleTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterFlexible(ctx, &dto.RegisterFlexibleRequest{
		WeeklySlots: map[int][]string{1: {"07:00-09:30"}},
	}, "w1")
	if err != nil {
		t.Fatalf("登记失败: %v", err)
	}

	if err := svc.Cancel(ctx, created.ID, "w2"); !pkgerrors.IsKind(err, pkgerrors.KindAuthorization) {
		t.Errorf("他人取消期望 KindAuthorization, 实际 %v", err)
	}
	if err := svc.Cancel(ctx, created.ID, "w1"); err != nil {
		t.Errorf("发起人取消不应报错: %v", err)
	}
}

func TestApproveNotFound(t *testing.T) {
	svc, _ := newScheduleTestService(t)

	_, err := svc.Approve(context.Background(), "no-such-id", &dto.ApproveRegistrationRequest{}, "admin-1")
	if !pkgerrors.IsKind(err, pkgerrors.KindNotFound) {
		t.Errorf("期望 KindNotFound, 实际 %v", err)
	}
}
