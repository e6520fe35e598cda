package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// OvertimeRepository 加班登记数据访问接口
type OvertimeRepository interface {
	Create(ctx context.Context, ot *model.OvertimeRegistration) error
	GetByID(ctx context.Context, id string) (*model.OvertimeRegistration, error)
	// ListActiveByWorkerAndDate 返回指定日期未终结（pending/approved）的加班记录，
	// 供提交时的重叠检查使用。
	ListActiveByWorkerAndDate(ctx context.Context, workerID string, date time.Time) ([]model.OvertimeRegistration, error)
	ListApprovedInRange(ctx context.Context, workerIDs []string, from, to time.Time) ([]model.OvertimeRegistration, error)
	ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.OvertimeRegistration, int64, error)
	// Approve 审批通过：锁定员工行后复核重叠并更新状态
	Approve(ctx context.Context, overtimeID, approverID string) (*model.OvertimeRegistration, error)
	UpdateStatus(ctx context.Context, ot *model.OvertimeRegistration) error
}

type overtimeRepo struct {
	db *gorm.DB
}

// NewOvertimeRepo 创建 OvertimeRepository 实例
func NewOvertimeRepo(db *gorm.DB) OvertimeRepository {
	return &overtimeRepo{db: db}
}

func (r *overtimeRepo) Create(ctx context.Context, ot *model.OvertimeRegistration) error {
	return r.db.WithContext(ctx).Create(ot).Error
}

func (r *overtimeRepo) GetByID(ctx context.Context, id string) (*model.OvertimeRegistration, error) {
	var ot model.OvertimeRegistration
	err := r.db.WithContext(ctx).
		Preload("Worker").
		Where("overtime_id = ?", id).
		First(&ot).Error
	if err != nil {
		return nil, err
	}
	return &ot, nil
}

func (r *overtimeRepo) ListActiveByWorkerAndDate(ctx context.Context, workerID string, date time.Time) ([]model.OvertimeRegistration, error) {
	var ots []model.OvertimeRegistration
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND date = ? AND status IN ?",
			workerID, date.Format("2006-01-02"), []string{model.StatusPending, model.StatusApproved}).
		Find(&ots).Error
	return ots, err
}

func (r *overtimeRepo) ListApprovedInRange(ctx context.Context, workerIDs []string, from, to time.Time) ([]model.OvertimeRegistration, error) {
	var ots []model.OvertimeRegistration
	err := r.db.WithContext(ctx).
		Where("worker_id IN ? AND status = ? AND date BETWEEN ? AND ?",
			workerIDs, model.StatusApproved, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("worker_id ASC, date ASC, sub_slot ASC").
		Find(&ots).Error
	return ots, err
}

func (r *overtimeRepo) ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.OvertimeRegistration, int64, error) {
	var ots []model.OvertimeRegistration
	var total int64

	db := r.db.WithContext(ctx).Model(&model.OvertimeRegistration{}).
		Where("worker_id = ?", workerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("date DESC, created_at DESC").
		Find(&ots).Error
	return ots, total, err
}

func (r *overtimeRepo) Approve(ctx context.Context, overtimeID, approverID string) (*model.OvertimeRegistration, error) {
	var approved *model.OvertimeRegistration

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ot model.OvertimeRegistration
		if err := tx.Where("overtime_id = ?", overtimeID).First(&ot).Error; err != nil {
			return err
		}

		var worker model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", ot.WorkerID).
			First(&worker).Error; err != nil {
			return err
		}

		if ot.Status != model.StatusPending {
			return pkgerrors.Conflict("加班登记状态已变更为 %s，无法审批", ot.Status)
		}

		// 锁内复核：并发提交可能同时通过提交期的重叠检查，
		// 审批串行化后需再次确认与同日已通过记录不重叠
		var others []model.OvertimeRegistration
		if err := tx.Where("worker_id = ? AND date = ? AND status = ? AND overtime_id <> ?",
			ot.WorkerID, ot.Date.Format("2006-01-02"), model.StatusApproved, ot.OvertimeID).
			Find(&others).Error; err != nil {
			return err
		}
		for i := range others {
			if subSlotsOverlap(ot.SubSlot, others[i].SubSlot) {
				return pkgerrors.Conflict("加班时段 %s 与已通过的加班记录重叠", ot.SubSlot)
			}
		}

		now := time.Now()
		result := tx.Model(&ot).
			Where("overtime_id = ? AND version = ?", ot.OvertimeID, ot.Version).
			Updates(map[string]interface{}{
				"status":      model.StatusApproved,
				"approved_by": approverID,
				"approved_at": now,
				"updated_by":  approverID,
				"version":     ot.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		ot.Status = model.StatusApproved
		ot.ApprovedBy = &approverID
		ot.ApprovedAt = &now
		ot.Version++
		approved = &ot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// subSlotsOverlap 判断两个 "HH:MM-HH:MM" 子时段是否相交。
// 时刻零填充，可直接按字典序比较。
func subSlotsOverlap(a, b string) bool {
	if len(a) != 11 || len(b) != 11 {
		return a == b
	}
	return a[:5] < b[6:] && b[:5] < a[6:]
}

func (r *overtimeRepo) UpdateStatus(ctx context.Context, ot *model.OvertimeRegistration) error {
	oldVersion := ot.Version
	result := r.db.WithContext(ctx).
		Model(ot).
		Where("overtime_id = ? AND version = ?", ot.OvertimeID, oldVersion).
		Updates(map[string]interface{}{
			"status":        ot.Status,
			"reject_reason": ot.RejectReason,
			"approved_by":   ot.ApprovedBy,
			"approved_at":   ot.ApprovedAt,
			"updated_by":    ot.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ot.Version = oldVersion + 1
	return nil
}
