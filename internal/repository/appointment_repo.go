package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/internal/model"
)

// AppointmentRepository 预约数据只读访问接口
// appointments 表由外部预约系统写入，本服务只读
type AppointmentRepository interface {
	// ListConfirmed 返回指定员工在日期区间内的已确认/进行中/已完成预约
	ListConfirmed(ctx context.Context, workerIDs []string, from, to time.Time) ([]model.Appointment, error)
}

type appointmentRepo struct {
	db *gorm.DB
}

// NewAppointmentRepo 创建 AppointmentRepository 实例
func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) ListConfirmed(ctx context.Context, workerIDs []string, from, to time.Time) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("worker_id IN ? AND status IN ? AND date BETWEEN ? AND ?",
			workerIDs,
			[]string{model.AppointmentConfirmed, model.AppointmentInProgress, model.AppointmentCompleted},
			from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("worker_id ASC, date ASC, start_time ASC").
		Find(&appts).Error
	return appts, err
}
