package model

import "time"

// OvertimeRegistration 加班登记表 — 对应 overtime_registrations
// 单一日期 + 单一子时段的加班申报，区别于周期性的排班登记。
// 提交时校验：子时段落在该员工当日基线排班内的申报直接拒绝（普通工时不得重复计为加班）。
type OvertimeRegistration struct {
	OvertimeID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"overtime_id"`
	WorkerID     string     `gorm:"type:uuid;not null"                             json:"worker_id"`
	Date         time.Time  `gorm:"type:date;not null"                             json:"date"`
	SubSlot      string     `gorm:"type:varchar(11);not null"                      json:"sub_slot"` // "HH:MM-HH:MM"
	Reason       string     `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ApprovedBy   *string    `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectReason string     `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"`
	VersionedModel

	// 关联
	Worker *User `gorm:"foreignKey:WorkerID;references:UserID" json:"worker,omitempty"`
}

// TableName 指定表名
func (OvertimeRegistration) TableName() string { return "overtime_registrations" }
