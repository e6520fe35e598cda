package dto

import "time"

// ── 排班登记模块 ──

// RegisterFlexibleRequest 弹性排班登记请求
// weekly_slots 键为星期（0=周日 .. 6=周六），值为子时段标识集合
type RegisterFlexibleRequest struct {
	WeeklySlots map[int][]string `json:"weekly_slots" binding:"required"`
}

// ApproveRegistrationRequest 排班登记审批请求
type ApproveRegistrationRequest struct {
	EffectiveDate string `json:"effective_date" binding:"omitempty,datetime=2006-01-02"` // 为空时默认次日生效
}

// RejectRequest 拒绝请求（三类申请共用）
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RegistrationResponse 排班登记响应
type RegistrationResponse struct {
	ID            string           `json:"id"`
	WorkerID      string           `json:"worker_id"`
	Mode          string           `json:"mode"`
	WeeklySlots   map[int][]string `json:"weekly_slots,omitempty"`
	Status        string           `json:"status"`
	EffectiveDate *time.Time       `json:"effective_date,omitempty"`
	RejectReason  string           `json:"reject_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ── 加班登记模块 ──

// RegisterOvertimeRequest 加班登记请求
type RegisterOvertimeRequest struct {
	Date    string `json:"date" binding:"required,datetime=2006-01-02"`
	SubSlot string `json:"sub_slot" binding:"required"` // "HH:MM-HH:MM"
	Reason  string `json:"reason" binding:"omitempty,max=500"`
}

// OvertimeResponse 加班登记响应
type OvertimeResponse struct {
	ID           string     `json:"id"`
	WorkerID     string     `json:"worker_id"`
	Date         time.Time  `json:"date"`
	SubSlot      string     `json:"sub_slot"`
	Reason       string     `json:"reason,omitempty"`
	Status       string     `json:"status"`
	ApprovedBy   *string    `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
