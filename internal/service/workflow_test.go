package service

import (
	"testing"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{model.StatusPending, model.StatusApproved, true},
		{model.StatusPending, model.StatusRejected, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusApproved, model.StatusCancelled, false},
		{model.StatusApproved, model.StatusRejected, false},
		{model.StatusRejected, model.StatusApproved, false},
		{model.StatusCancelled, model.StatusPending, false},
		{model.StatusApproved, model.StatusPending, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, 期望 %v", c.from, c.to, got, c.want)
		}
	}
}

func TestWorkflowEnsureTransition(t *testing.T) {
	w := Workflow{Kind: "请假申请"}

	if err := w.EnsureTransition(model.StatusPending, model.StatusApproved); err != nil {
		t.Errorf("pending→approved 不应报错: %v", err)
	}

	err := w.EnsureTransition(model.StatusApproved, model.StatusCancelled)
	if err == nil {
		t.Fatal("终态流转期望报错")
	}
	if !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("期望 KindConflict, 实际 %v", err)
	}
}

func TestWorkflowEnsureOwner(t *testing.T) {
	w := Workflow{Kind: "加班登记"}

	if err := w.EnsureOwner("u1", "u1"); err != nil {
		t.Errorf("本人操作不应报错: %v", err)
	}

	err := w.EnsureOwner("u1", "u2")
	if err == nil {
		t.Fatal("他人操作期望报错")
	}
	if !pkgerrors.IsKind(err, pkgerrors.KindAuthorization) {
		t.Errorf("期望 KindAuthorization, 实际 %v", err)
	}
}

func TestWorkflowEnsureCancellable(t *testing.T) {
	w := Workflow{Kind: "排班登记"}

	if err := w.EnsureCancellable(model.StatusPending, "u1", "u1"); err != nil {
		t.Errorf("发起人取消 pending 不应报错: %v", err)
	}

	// 属主校验优先于状态校验
	if err := w.EnsureCancellable(model.StatusApproved, "u1", "u2"); !pkgerrors.IsKind(err, pkgerrors.KindAuthorization) {
		t.Errorf("期望 KindAuthorization, 实际 %v", err)
	}
	if err := w.EnsureCancellable(model.StatusApproved, "u1", "u1"); !pkgerrors.IsKind(err, pkgerrors.KindConflict) {
		t.Errorf("期望 KindConflict, 实际 %v", err)
	}
}
