package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// UserService 员工目录业务接口
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error)
	List(ctx context.Context, role string, page, pageSize int) ([]dto.UserResponse, int64, error)
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context, role string, page, pageSize int) ([]dto.UserResponse, int64, error) {
	if role != "" && role != model.RoleDoctor && role != model.RoleStaff && role != model.RoleAdmin {
		return nil, 0, pkgerrors.Validation("无效的角色 %q", role)
	}
	offset := (page - 1) * pageSize
	users, total, err := s.repo.User.List(ctx, role, offset, pageSize)
	if err != nil {
		s.logger.Error("查询员工列表失败", zap.Error(err))
		return nil, 0, err
	}

	resps := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resps = append(resps, toUserResponse(&users[i]))
	}
	return resps, total, nil
}

// Create 新建员工（管理员）；新员工无排班登记时日历按全职基线展开
func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmployeeCode(ctx, req.EmployeeCode); err == nil {
		return nil, pkgerrors.Conflict("工号 %s 已存在", req.EmployeeCode)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Name:         req.Name,
		EmployeeCode: req.EmployeeCode,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Specialty:    req.Specialty,
	}
	if err := s.repo.User.Create(ctx, &user); err != nil {
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("员工已创建",
		zap.String("user_id", user.UserID),
		zap.String("employee_code", user.EmployeeCode),
		zap.String("role", user.Role),
	)

	resp := toUserResponse(&user)
	return &resp, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.UserID,
		Name:         u.Name,
		EmployeeCode: u.EmployeeCode,
		Email:        u.Email,
		Role:         u.Role,
		Specialty:    u.Specialty,
	}
}
