package dto

// ── 班次模板模块 ──

// UpsertShiftTemplateRequest 创建/更新班次模板请求
type UpsertShiftTemplateRequest struct {
	Name               string `json:"name" binding:"required,max=50"`
	DisplayName        string `json:"display_name" binding:"required,max=100"`
	StartTime          string `json:"start_time" binding:"required"` // "HH:MM"
	EndTime            string `json:"end_time" binding:"required"`
	ApplicableWeekdays []int  `json:"applicable_weekdays" binding:"required,dive,min=0,max=6"` // 0=周日 .. 6=周六
}

// SubSlotResponse 子时段响应
type SubSlotResponse struct {
	ID    string `json:"id"` // "HH:MM-HH:MM"
	Start string `json:"start"`
	End   string `json:"end"`
}

// ShiftTemplateResponse 班次模板响应
type ShiftTemplateResponse struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	DisplayName        string            `json:"display_name"`
	StartTime          string            `json:"start_time"`
	EndTime            string            `json:"end_time"`
	ApplicableWeekdays []int             `json:"applicable_weekdays"`
	IsActive           bool              `json:"is_active"`
	SubSlots           []SubSlotResponse `json:"sub_slots"`
}
