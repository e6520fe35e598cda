package dto

import (
	"fmt"
	"time"
)

// ── 请假模块 ──

// CreateLeaveRequest 请假申请请求
type CreateLeaveRequest struct {
	LeaveType string  `json:"leave_type" binding:"required,oneof=full_day single_shift time_range multiple_days"`
	DateFrom  string  `json:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo    *string `json:"date_to" binding:"omitempty,datetime=2006-01-02"` // 为空时默认等于 date_from
	ShiftName *string `json:"shift_name" binding:"omitempty,max=50"`           // 仅 single_shift
	TimeFrom  *string `json:"time_from" binding:"omitempty"`                   // "HH:MM"，仅 time_range
	TimeTo    *string `json:"time_to" binding:"omitempty"`
	Reason    string  `json:"reason" binding:"omitempty,max=500"`
}

// Validate 校验业务规则（leave_type 与各字段的联动约束）
func (r *CreateLeaveRequest) Validate() error {
	switch r.LeaveType {
	case "single_shift":
		if r.ShiftName == nil || *r.ShiftName == "" {
			return fmt.Errorf("single_shift 类型必须指定 shift_name")
		}
		if r.DateTo != nil && *r.DateTo != r.DateFrom {
			return fmt.Errorf("single_shift 类型仅限单日")
		}
	case "time_range":
		if r.TimeFrom == nil || r.TimeTo == nil {
			return fmt.Errorf("time_range 类型必须指定 time_from 与 time_to")
		}
		if r.DateTo != nil && *r.DateTo != r.DateFrom {
			return fmt.Errorf("time_range 类型仅限单日")
		}
	case "multiple_days":
		if r.DateTo == nil {
			return fmt.Errorf("multiple_days 类型必须指定 date_to")
		}
	}
	return nil
}

// LeaveResponse 请假申请响应
type LeaveResponse struct {
	ID           string     `json:"id"`
	WorkerID     string     `json:"worker_id"`
	LeaveType    string     `json:"leave_type"`
	DateFrom     time.Time  `json:"date_from"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	ShiftName    *string    `json:"shift_name,omitempty"`
	TimeFrom     *string    `json:"time_from,omitempty"`
	TimeTo       *string    `json:"time_to,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	Status       string     `json:"status"`
	ProcessedBy  *string    `json:"processed_by,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
