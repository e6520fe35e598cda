package dto

// ── 员工目录模块 ──

// CreateUserRequest 新建员工请求（管理员）
type CreateUserRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	EmployeeCode string  `json:"employee_code" binding:"required,max=20"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=8,max=72"`
	Role         string  `json:"role" binding:"required,oneof=doctor staff admin"`
	Specialty    *string `json:"specialty" binding:"omitempty,max=100"`
}
