package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/config"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.EmployeeCode
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeCode(_ context.Context, code string) (*model.User, error) {
	for _, u := range m.users {
		if u.EmployeeCode == code {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, role string, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			result = append(result, *u)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock ShiftTemplateRepository ──

type mockShiftTemplateRepo struct {
	templates map[string]*model.ShiftTemplate
}

func newMockShiftTemplateRepo() *mockShiftTemplateRepo {
	return &mockShiftTemplateRepo{templates: make(map[string]*model.ShiftTemplate)}
}

func (m *mockShiftTemplateRepo) Create(_ context.Context, t *model.ShiftTemplate) error {
	if t.ShiftTemplateID == "" {
		t.ShiftTemplateID = "tpl-" + t.Name
	}
	m.templates[t.ShiftTemplateID] = t
	return nil
}

func (m *mockShiftTemplateRepo) GetByID(_ context.Context, id string) (*model.ShiftTemplate, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftTemplateRepo) GetByName(_ context.Context, name string) (*model.ShiftTemplate, error) {
	for _, t := range m.templates {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftTemplateRepo) ListActive(_ context.Context) ([]model.ShiftTemplate, error) {
	var result []model.ShiftTemplate
	for _, t := range m.templates {
		if t.IsActive {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

func (m *mockShiftTemplateRepo) List(_ context.Context, includeInactive bool) ([]model.ShiftTemplate, error) {
	var result []model.ShiftTemplate
	for _, t := range m.templates {
		if includeInactive || t.IsActive {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime < result[j].StartTime })
	return result, nil
}

func (m *mockShiftTemplateRepo) Update(_ context.Context, t *model.ShiftTemplate) error {
	m.templates[t.ShiftTemplateID] = t
	return nil
}

// ── Mock ScheduleRegistrationRepository ──

type mockScheduleRegRepo struct {
	regs map[string]*model.ScheduleRegistration
	seq  int
}

func newMockScheduleRegRepo() *mockScheduleRegRepo {
	return &mockScheduleRegRepo{regs: make(map[string]*model.ScheduleRegistration)}
}

func (m *mockScheduleRegRepo) Create(_ context.Context, reg *model.ScheduleRegistration) error {
	if reg.RegistrationID == "" {
		m.seq++
		reg.RegistrationID = fmt.Sprintf("reg-%d", m.seq)
	}
	reg.CreatedAt = time.Now()
	m.regs[reg.RegistrationID] = reg
	return nil
}

func (m *mockScheduleRegRepo) GetByID(_ context.Context, id string) (*model.ScheduleRegistration, error) {
	if r, ok := m.regs[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRegRepo) ListApprovedByWorker(_ context.Context, workerID string) ([]model.ScheduleRegistration, error) {
	var result []model.ScheduleRegistration
	for _, r := range m.regs {
		if r.WorkerID == workerID && r.Status == model.StatusApproved {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EffectiveDate.Before(*result[j].EffectiveDate)
	})
	return result, nil
}

func (m *mockScheduleRegRepo) ListByWorker(_ context.Context, workerID string, _, _ int) ([]model.ScheduleRegistration, int64, error) {
	var result []model.ScheduleRegistration
	for _, r := range m.regs {
		if r.WorkerID == workerID {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockScheduleRegRepo) GetPendingByWorker(_ context.Context, workerID string) (*model.ScheduleRegistration, error) {
	for _, r := range m.regs {
		if r.WorkerID == workerID && r.Status == model.StatusPending {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRegRepo) Approve(_ context.Context, registrationID, processorID string, effectiveDate time.Time) (*model.ScheduleRegistration, error) {
	r, ok := m.regs[registrationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	now := time.Now()
	r.Status = model.StatusApproved
	r.EffectiveDate = &effectiveDate
	r.ProcessedBy = &processorID
	r.ProcessedAt = &now
	return r, nil
}

func (m *mockScheduleRegRepo) UpdateStatus(_ context.Context, reg *model.ScheduleRegistration) error {
	m.regs[reg.RegistrationID] = reg
	return nil
}

// ── Mock OvertimeRepository ──

type mockOvertimeRepo struct {
	overtimes map[string]*model.OvertimeRegistration
	seq       int
}

func newMockOvertimeRepo() *mockOvertimeRepo {
	return &mockOvertimeRepo{overtimes: make(map[string]*model.OvertimeRegistration)}
}

func (m *mockOvertimeRepo) Create(_ context.Context, ot *model.OvertimeRegistration) error {
	if ot.OvertimeID == "" {
		m.seq++
		ot.OvertimeID = fmt.Sprintf("ot-%d", m.seq)
	}
	ot.CreatedAt = time.Now()
	m.overtimes[ot.OvertimeID] = ot
	return nil
}

func (m *mockOvertimeRepo) GetByID(_ context.Context, id string) (*model.OvertimeRegistration, error) {
	if ot, ok := m.overtimes[id]; ok {
		return ot, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOvertimeRepo) ListActiveByWorkerAndDate(_ context.Context, workerID string, date time.Time) ([]model.OvertimeRegistration, error) {
	var result []model.OvertimeRegistration
	for _, ot := range m.overtimes {
		if ot.WorkerID == workerID && sameDate(ot.Date, date) &&
			(ot.Status == model.StatusPending || ot.Status == model.StatusApproved) {
			result = append(result, *ot)
		}
	}
	return result, nil
}

func (m *mockOvertimeRepo) ListApprovedInRange(_ context.Context, workerIDs []string, from, to time.Time) ([]model.OvertimeRegistration, error) {
	idSet := make(map[string]bool, len(workerIDs))
	for _, id := range workerIDs {
		idSet[id] = true
	}
	var result []model.OvertimeRegistration
	for _, ot := range m.overtimes {
		if idSet[ot.WorkerID] && ot.Status == model.StatusApproved &&
			!ot.Date.Before(from) && !ot.Date.After(to) {
			result = append(result, *ot)
		}
	}
	return result, nil
}

func (m *mockOvertimeRepo) ListByWorker(_ context.Context, workerID string, _, _ int) ([]model.OvertimeRegistration, int64, error) {
	var result []model.OvertimeRegistration
	for _, ot := range m.overtimes {
		if ot.WorkerID == workerID {
			result = append(result, *ot)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockOvertimeRepo) Approve(_ context.Context, overtimeID, approverID string) (*model.OvertimeRegistration, error) {
	ot, ok := m.overtimes[overtimeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 与真实仓储一致：审批串行化后复核与已通过记录的重叠
	for id, other := range m.overtimes {
		if id == overtimeID || other.WorkerID != ot.WorkerID || other.Status != model.StatusApproved {
			continue
		}
		if !dateOnly(other.Date).Equal(dateOnly(ot.Date)) {
			continue
		}
		as, ae, err1 := ParseSubSlotID(ot.SubSlot)
		bs, be, err2 := ParseSubSlotID(other.SubSlot)
		if err1 == nil && err2 == nil && overlaps(as, ae, bs, be) {
			return nil, pkgerrors.Conflict("加班时段 %s 与已通过的加班记录重叠", ot.SubSlot)
		}
	}
	now := time.Now()
	ot.Status = model.StatusApproved
	ot.ApprovedBy = &approverID
	ot.ApprovedAt = &now
	return ot, nil
}

func (m *mockOvertimeRepo) UpdateStatus(_ context.Context, ot *model.OvertimeRegistration) error {
	m.overtimes[ot.OvertimeID] = ot
	return nil
}

// ── Mock LeaveRepository ──

type mockLeaveRepo struct {
	leaves map[string]*model.LeaveRequest
	seq    int
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*model.LeaveRequest)}
}

func (m *mockLeaveRepo) Create(_ context.Context, lr *model.LeaveRequest) error {
	if lr.LeaveRequestID == "" {
		m.seq++
		lr.LeaveRequestID = fmt.Sprintf("leave-%d", m.seq)
	}
	lr.CreatedAt = time.Now()
	m.leaves[lr.LeaveRequestID] = lr
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.LeaveRequest, error) {
	if lr, ok := m.leaves[id]; ok {
		return lr, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) ListActiveOverlapping(_ context.Context, workerID string, from, to time.Time) ([]model.LeaveRequest, error) {
	var result []model.LeaveRequest
	for _, lr := range m.leaves {
		if lr.WorkerID == workerID &&
			(lr.Status == model.StatusPending || lr.Status == model.StatusApproved) &&
			!lr.DateFrom.After(to) && !lr.EndDate().Before(from) {
			result = append(result, *lr)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) ListApprovedInRange(_ context.Context, workerIDs []string, from, to time.Time) ([]model.LeaveRequest, error) {
	idSet := make(map[string]bool, len(workerIDs))
	for _, id := range workerIDs {
		idSet[id] = true
	}
	var result []model.LeaveRequest
	for _, lr := range m.leaves {
		if idSet[lr.WorkerID] && lr.Status == model.StatusApproved &&
			!lr.DateFrom.After(to) && !lr.EndDate().Before(from) {
			result = append(result, *lr)
		}
	}
	return result, nil
}

func (m *mockLeaveRepo) ListByWorker(_ context.Context, workerID string, _, _ int) ([]model.LeaveRequest, int64, error) {
	var result []model.LeaveRequest
	for _, lr := range m.leaves {
		if lr.WorkerID == workerID {
			result = append(result, *lr)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockLeaveRepo) Approve(_ context.Context, leaveRequestID, processorID string) (*model.LeaveRequest, error) {
	lr, ok := m.leaves[leaveRequestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 与真实仓储一致：审批串行化后复核与已通过请假的日期重叠
	for id, other := range m.leaves {
		if id == leaveRequestID || other.WorkerID != lr.WorkerID || other.Status != model.StatusApproved {
			continue
		}
		if !dateOnly(lr.DateFrom).After(dateOnly(other.EndDate())) &&
			!dateOnly(other.DateFrom).After(dateOnly(lr.EndDate())) {
			return nil, pkgerrors.Conflict("请假日期区间与已通过的请假记录重叠")
		}
	}
	now := time.Now()
	lr.Status = model.StatusApproved
	lr.ProcessedBy = &processorID
	lr.ProcessedAt = &now
	return lr, nil
}

func (m *mockLeaveRepo) UpdateStatus(_ context.Context, lr *model.LeaveRequest) error {
	m.leaves[lr.LeaveRequestID] = lr
	return nil
}

// ── Mock AppointmentRepository ──

type mockAppointmentRepo struct {
	appointments []model.Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{}
}

func (m *mockAppointmentRepo) ListConfirmed(_ context.Context, workerIDs []string, from, to time.Time) ([]model.Appointment, error) {
	idSet := make(map[string]bool, len(workerIDs))
	for _, id := range workerIDs {
		idSet[id] = true
	}
	var result []model.Appointment
	for _, ap := range m.appointments {
		if idSet[ap.WorkerID] && ap.Status != model.AppointmentCancelled &&
			!ap.Date.Before(from) && !ap.Date.After(to) {
			result = append(result, ap)
		}
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []*model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.seq++
	n.NotificationID = fmt.Sprintf("notif-%d", m.seq)
	n.CreatedAt = time.Now()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, *n)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	for _, n := range m.notifications {
		if n.NotificationID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// ── 测试装配辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Calendar: config.CalendarConfig{
			MaxWorkersPerQuery: 20,
			MaxRangeDays:       31,
			EffectiveLeadDays:  1,
		},
	}
}

func newTestRepo() *repository.Repository {
	return &repository.Repository{
		User:                 newMockUserRepo(),
		ShiftTemplate:        newMockShiftTemplateRepo(),
		ScheduleRegistration: newMockScheduleRegRepo(),
		Overtime:             newMockOvertimeRepo(),
		Leave:                newMockLeaveRepo(),
		Appointment:          newMockAppointmentRepo(),
		Notification:         newMockNotificationRepo(),
	}
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// morningTemplate 07:00-12:00 全周适用
func morningTemplate() *model.ShiftTemplate {
	return &model.ShiftTemplate{
		ShiftTemplateID:    "tpl-morning",
		Name:               "morning",
		DisplayName:        "上午班",
		StartTime:          "07:00",
		EndTime:            "12:00",
		ApplicableWeekdays: model.IntArray{0, 1, 2, 3, 4, 5, 6},
		IsActive:           true,
	}
}

// afternoonTemplate 13:00-17:00 仅工作日适用
func afternoonTemplate() *model.ShiftTemplate {
	return &model.ShiftTemplate{
		ShiftTemplateID:    "tpl-afternoon",
		Name:               "afternoon",
		DisplayName:        "下午班",
		StartTime:          "13:00",
		EndTime:            "17:00",
		ApplicableWeekdays: model.IntArray{1, 2, 3, 4, 5},
		IsActive:           true,
	}
}

func strPtr(s string) *string { return &s }

func datePtr(t time.Time) *time.Time { return &t }

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
