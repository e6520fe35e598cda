package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ScheduleRegistrationRepository 排班登记数据访问接口
type ScheduleRegistrationRepository interface {
	Create(ctx context.Context, reg *model.ScheduleRegistration) error
	GetByID(ctx context.Context, id string) (*model.ScheduleRegistration, error)
	// ListApprovedByWorker 返回员工全部已审批登记，按 effective_date 升序。
	// 展开器据此做生效区间判定（历史感知）。
	ListApprovedByWorker(ctx context.Context, workerID string) ([]model.ScheduleRegistration, error)
	ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.ScheduleRegistration, int64, error)
	GetPendingByWorker(ctx context.Context, workerID string) (*model.ScheduleRegistration, error)
	// Approve 审批通过：在单事务中锁定员工行后更新状态与生效日期，
	// 防止并发审批产生两条同时"当前生效"的登记。
	Approve(ctx context.Context, registrationID, processorID string, effectiveDate time.Time) (*model.ScheduleRegistration, error)
	// UpdateStatus 拒绝/取消等仅状态流转的更新（乐观锁）
	UpdateStatus(ctx context.Context, reg *model.ScheduleRegistration) error
}

type scheduleRegistrationRepo struct {
	db *gorm.DB
}

// NewScheduleRegistrationRepo 创建 ScheduleRegistrationRepository 实例
func NewScheduleRegistrationRepo(db *gorm.DB) ScheduleRegistrationRepository {
	return &scheduleRegistrationRepo{db: db}
}

func (r *scheduleRegistrationRepo) Create(ctx context.Context, reg *model.ScheduleRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *scheduleRegistrationRepo) GetByID(ctx context.Context, id string) (*model.ScheduleRegistration, error) {
	var reg model.ScheduleRegistration
	err := r.db.WithContext(ctx).
		Preload("Worker").
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *scheduleRegistrationRepo) ListApprovedByWorker(ctx context.Context, workerID string) ([]model.ScheduleRegistration, error) {
	var regs []model.ScheduleRegistration
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND status = ?", workerID, model.StatusApproved).
		Order("effective_date ASC").
		Find(&regs).Error
	return regs, err
}

func (r *scheduleRegistrationRepo) ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.ScheduleRegistration, int64, error) {
	var regs []model.ScheduleRegistration
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ScheduleRegistration{}).
		Where("worker_id = ?", workerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&regs).Error
	return regs, total, err
}

func (r *scheduleRegistrationRepo) GetPendingByWorker(ctx context.Context, workerID string) (*model.ScheduleRegistration, error) {
	var reg model.ScheduleRegistration
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND status = ?", workerID, model.StatusPending).
		Order("created_at DESC").
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *scheduleRegistrationRepo) Approve(ctx context.Context, registrationID, processorID string, effectiveDate time.Time) (*model.ScheduleRegistration, error) {
	var approved *model.ScheduleRegistration

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg model.ScheduleRegistration
		if err := tx.Where("registration_id = ?", registrationID).First(&reg).Error; err != nil {
			return err
		}

		// 以员工行为锁锚点，串行化同一员工的审批
		var worker model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", reg.WorkerID).
			First(&worker).Error; err != nil {
			return err
		}

		// 加锁后复核状态，并发审批只有一个能通过
		if reg.Status != model.StatusPending {
			return pkgerrors.Conflict("登记状态已变更为 %s，无法审批", reg.Status)
		}

		now := time.Now()
		result := tx.Model(&reg).
			Where("registration_id = ? AND version = ?", reg.RegistrationID, reg.Version).
			Updates(map[string]interface{}{
				"status":         model.StatusApproved,
				"effective_date": effectiveDate,
				"processed_by":   processorID,
				"processed_at":   now,
				"updated_by":     processorID,
				"version":        reg.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		reg.Status = model.StatusApproved
		reg.EffectiveDate = &effectiveDate
		reg.ProcessedBy = &processorID
		reg.ProcessedAt = &now
		reg.Version++
		approved = &reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (r *scheduleRegistrationRepo) UpdateStatus(ctx context.Context, reg *model.ScheduleRegistration) error {
	oldVersion := reg.Version
	result := r.db.WithContext(ctx).
		Model(reg).
		Where("registration_id = ? AND version = ?", reg.RegistrationID, oldVersion).
		Updates(map[string]interface{}{
			"status":        reg.Status,
			"reject_reason": reg.RejectReason,
			"processed_by":  reg.ProcessedBy,
			"processed_at":  reg.ProcessedAt,
			"updated_by":    reg.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reg.Version = oldVersion + 1
	return nil
}
