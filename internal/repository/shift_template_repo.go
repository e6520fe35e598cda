package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ShiftTemplateRepository 班次模板数据访问接口
type ShiftTemplateRepository interface {
	Create(ctx context.Context, t *model.ShiftTemplate) error
	GetByID(ctx context.Context, id string) (*model.ShiftTemplate, error)
	GetByName(ctx context.Context, name string) (*model.ShiftTemplate, error)
	ListActive(ctx context.Context) ([]model.ShiftTemplate, error)
	List(ctx context.Context, includeInactive bool) ([]model.ShiftTemplate, error)
	Update(ctx context.Context, t *model.ShiftTemplate) error
}

type shiftTemplateRepo struct {
	db *gorm.DB
}

// NewShiftTemplateRepo 创建 ShiftTemplateRepository 实例
func NewShiftTemplateRepo(db *gorm.DB) ShiftTemplateRepository {
	return &shiftTemplateRepo{db: db}
}

func (r *shiftTemplateRepo) Create(ctx context.Context, t *model.ShiftTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *shiftTemplateRepo) GetByID(ctx context.Context, id string) (*model.ShiftTemplate, error) {
	var t model.ShiftTemplate
	err := r.db.WithContext(ctx).Where("shift_template_id = ?", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *shiftTemplateRepo) GetByName(ctx context.Context, name string) (*model.ShiftTemplate, error) {
	var t model.ShiftTemplate
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *shiftTemplateRepo) ListActive(ctx context.Context) ([]model.ShiftTemplate, error) {
	var templates []model.ShiftTemplate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("start_time ASC, name ASC").
		Find(&templates).Error
	return templates, err
}

func (r *shiftTemplateRepo) List(ctx context.Context, includeInactive bool) ([]model.ShiftTemplate, error) {
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	var templates []model.ShiftTemplate
	err := db.Order("start_time ASC, name ASC").Find(&templates).Error
	return templates, err
}

func (r *shiftTemplateRepo) Update(ctx context.Context, t *model.ShiftTemplate) error {
	oldVersion := t.Version
	result := r.db.WithContext(ctx).
		Model(t).
		Where("shift_template_id = ? AND version = ?", t.ShiftTemplateID, oldVersion).
		Updates(map[string]interface{}{
			"display_name":        t.DisplayName,
			"start_time":          t.StartTime,
			"end_time":            t.EndTime,
			"applicable_weekdays": t.ApplicableWeekdays,
			"is_active":           t.IsActive,
			"updated_by":          t.UpdatedBy,
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	t.Version = oldVersion + 1
	return nil
}
