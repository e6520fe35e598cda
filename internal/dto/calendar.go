package dto

// ── 日历聚合模块 ──

// CalendarViewRequest 日历查询请求
// types 为逗号分隔的种类子集（baseline,overtime,leave,appointments），为空时取全部
type CalendarViewRequest struct {
	UserIDs  string `form:"user_ids" binding:"required"` // 逗号分隔
	DateFrom string `form:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"required,datetime=2006-01-02"`
	Types    string `form:"types" binding:"omitempty"`
}

// CalendarInstanceResponse 单条日历实例响应
type CalendarInstanceResponse struct {
	Date         string `json:"date"` // "YYYY-MM-DD"
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	ScheduleType string `json:"schedule_type"` // baseline | overtime | leave | appointment
	Status       string `json:"status"`        // available | booked | leave_blocked
	ShiftName    string `json:"shift_name,omitempty"`
}

// WorkerCalendarResponse 单个员工的日历
type WorkerCalendarResponse struct {
	WorkerID  string                     `json:"worker_id"`
	Instances []CalendarInstanceResponse `json:"instances"`
}

// CalendarViewResponse 日历聚合响应
// 单个员工的数据完整性告警不影响其余员工的结果（部分可用优于整体失败）
type CalendarViewResponse struct {
	Workers  []WorkerCalendarResponse `json:"workers"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// ── 通知模块 ──

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	IsRead      bool    `json:"is_read"`
	RelatedType *string `json:"related_type,omitempty"`
	RelatedID   *string `json:"related_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
