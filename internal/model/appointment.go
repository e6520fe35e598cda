package model

import "time"

// 预约状态常量
const (
	AppointmentConfirmed  = "confirmed"
	AppointmentInProgress = "in_progress"
	AppointmentCompleted  = "completed"
	AppointmentCancelled  = "cancelled"
)

// Appointment 预约表 — 对应 appointments
// 外部预约系统的只读投影，本服务只消费其时间窗用于标记已预约，从不写入。
type Appointment struct {
	AppointmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"appointment_id"`
	WorkerID      string    `gorm:"type:uuid;not null"                             json:"worker_id"`
	Date          time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime     string    `gorm:"type:time;not null"                             json:"start_time"`
	EndTime       string    `gorm:"type:time;not null"                             json:"end_time"`
	Status        string    `gorm:"type:varchar(20);not null"                      json:"status"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Appointment) TableName() string { return "appointments" }
