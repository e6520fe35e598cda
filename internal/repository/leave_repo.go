package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// LeaveRepository 请假申请数据访问接口
type LeaveRepository interface {
	Create(ctx context.Context, lr *model.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*model.LeaveRequest, error)
	// ListActiveOverlapping 返回日期区间与 [from, to] 相交的未终结请假记录，
	// 供提交时的重叠检查使用。
	ListActiveOverlapping(ctx context.Context, workerID string, from, to time.Time) ([]model.LeaveRequest, error)
	ListApprovedInRange(ctx context.Context, workerIDs []string, from, to time.Time) ([]model.LeaveRequest, error)
	ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.LeaveRequest, int64, error)
	// Approve 审批通过：锁定员工行后复核日期重叠并更新状态
	Approve(ctx context.Context, leaveRequestID, processorID string) (*model.LeaveRequest, error)
	UpdateStatus(ctx context.Context, lr *model.LeaveRequest) error
}

type leaveRepo struct {
	db *gorm.DB
}

// NewLeaveRepo 创建 LeaveRepository 实例
func NewLeaveRepo(db *gorm.DB) LeaveRepository {
	return &leaveRepo{db: db}
}

func (r *leaveRepo) Create(ctx context.Context, lr *model.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(lr).Error
}

func (r *leaveRepo) GetByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	var lr model.LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("Worker").
		Where("leave_request_id = ?", id).
		First(&lr).Error
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *leaveRepo) ListActiveOverlapping(ctx context.Context, workerID string, from, to time.Time) ([]model.LeaveRequest, error) {
	var lrs []model.LeaveRequest
	// date_to 为空时按 date_from 处理
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND status IN ? AND date_from <= ? AND COALESCE(date_to, date_from) >= ?",
			workerID, []string{model.StatusPending, model.StatusApproved},
			to.Format("2006-01-02"), from.Format("2006-01-02")).
		Find(&lrs).Error
	return lrs, err
}

func (r *leaveRepo) ListApprovedInRange(ctx context.Context, workerIDs []string, from, to time.Time) ([]model.LeaveRequest, error) {
	var lrs []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("worker_id IN ? AND status = ? AND date_from <= ? AND COALESCE(date_to, date_from) >= ?",
			workerIDs, model.StatusApproved,
			to.Format("2006-01-02"), from.Format("2006-01-02")).
		Order("worker_id ASC, date_from ASC").
		Find(&lrs).Error
	return lrs, err
}

func (r *leaveRepo) ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.LeaveRequest, int64, error) {
	var lrs []model.LeaveRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.LeaveRequest{}).
		Where("worker_id = ?", workerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("date_from DESC, created_at DESC").
		Find(&lrs).Error
	return lrs, total, err
}

func (r *leaveRepo) Approve(ctx context.Context, leaveRequestID, processorID string) (*model.LeaveRequest, error) {
	var approved *model.LeaveRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lr model.LeaveRequest
		if err := tx.Where("leave_request_id = ?", leaveRequestID).First(&lr).Error; err != nil {
			return err
		}

		var worker model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", lr.WorkerID).
			First(&worker).Error; err != nil {
			return err
		}

		if lr.Status != model.StatusPending {
			return pkgerrors.Conflict("请假申请状态已变更为 %s，无法审批", lr.Status)
		}

		// 锁内复核：并发提交可能同时通过提交期的重叠检查，
		// 审批串行化后需再次确认日期区间与已通过的请假不相交
		var overlapCount int64
		if err := tx.Model(&model.LeaveRequest{}).
			Where("worker_id = ? AND status = ? AND leave_request_id <> ? AND date_from <= ? AND COALESCE(date_to, date_from) >= ?",
				lr.WorkerID, model.StatusApproved, lr.LeaveRequestID,
				lr.EndDate().Format("2006-01-02"), lr.DateFrom.Format("2006-01-02")).
			Count(&overlapCount).Error; err != nil {
			return err
		}
		if overlapCount > 0 {
			return pkgerrors.Conflict("请假日期区间与已通过的请假记录重叠")
		}

		now := time.Now()
		result := tx.Model(&lr).
			Where("leave_request_id = ? AND version = ?", lr.LeaveRequestID, lr.Version).
			Updates(map[string]interface{}{
				"status":       model.StatusApproved,
				"processed_by": processorID,
				"processed_at": now,
				"updated_by":   processorID,
				"version":      lr.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		lr.Status = model.StatusApproved
		lr.ProcessedBy = &processorID
		lr.ProcessedAt = &now
		lr.Version++
		approved = &lr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (r *leaveRepo) UpdateStatus(ctx context.Context, lr *model.LeaveRequest) error {
	oldVersion := lr.Version
	result := r.db.WithContext(ctx).
		Model(lr).
		Where("leave_request_id = ? AND version = ?", lr.LeaveRequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":        lr.Status,
			"reject_reason": lr.RejectReason,
			"processed_by":  lr.ProcessedBy,
			"processed_at":  lr.ProcessedAt,
			"updated_by":    lr.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	lr.Version = oldVersion + 1
	return nil
}
