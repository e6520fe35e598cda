package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/TQuyenG/clinic-system-sub004/config"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ── ExportService ──────────────────────────────────────────
//
// 日历导出：
//   - Excel (.xlsx)：日期 × 员工 的排班矩阵，单元格列出当日全部时间窗
//   - iCalendar (RFC 5545)：单个员工的日历实例流，供外部日历订阅
//
// 两种导出均复用 CalendarService.Aggregate，不各自重算。
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// ─────────────────────────────────────────────────────────────

// ExportService 导出业务接口
type ExportService interface {
	// ExportCalendarExcel 导出员工集合的日历矩阵为 Excel
	ExportCalendarExcel(ctx context.Context, workerIDs []string, from, to time.Time) (*bytes.Buffer, string, error)
	// ExportICS 导出单个员工的日历为 iCalendar 内容
	ExportICS(ctx context.Context, workerID string, from, to time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg      *config.Config
	calendar CalendarService
	repo     *repository.Repository
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, calendar CalendarService, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, calendar: calendar, repo: repo, logger: logger}
}

// 日历状态的中文单元格文案
var statusLabels = map[string]string{
	InstanceAvailable:    "可用",
	InstanceBooked:       "已预约",
	InstanceLeaveBlocked: "请假",
}

var sourceLabels = map[string]string{
	SourceBaseline:    "排班",
	SourceOvertime:    "加班",
	SourceLeave:       "请假",
	SourceAppointment: "预约",
}

// ════════════════════════════════════════════════════════════
// ExportCalendarExcel — 导出日历矩阵为 Excel
// ════════════════════════════════════════════════════════════
//
// 输出格式：
//   - 行：日期（含星期文案）
//   - 列：员工（姓名 + 工号）
//   - 单元格：当日全部时间窗，每行 "HH:MM-HH:MM 来源/状态"

func (s *exportService) ExportCalendarExcel(ctx context.Context, workerIDs []string, from, to time.Time) (*bytes.Buffer, string, error) {
	byWorker, _, err := s.calendar.Aggregate(ctx, workerIDs, from, to, allCalendarTypes())
	if err != nil {
		return nil, "", err
	}

	// 列头须含姓名，批量取员工档案
	users, err := s.repo.User.ListByIDs(ctx, workerIDs)
	if err != nil {
		s.logger.Error("查询员工档案失败", zap.Error(err))
		return nil, "", err
	}
	nameOf := make(map[string]string, len(users))
	for i := range users {
		nameOf[users[i].UserID] = fmt.Sprintf("%s (%s)", users[i].Name, users[i].EmployeeCode)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "工作日历"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 16)
	for i := range workerIDs {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetColWidth(sheetName, col, col, 28)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("工作日历 %s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", cell(colName(len(workerIDs)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "日期")
	for i, workerID := range workerIDs {
		label := nameOf[workerID]
		if label == "" {
			label = workerID
		}
		f.SetCellValue(sheetName, cell(colName(1+i), row), label)
	}

	// 数据行：逐日期一行
	dayNames := []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}
	row = 3
	for d := dateOnly(from); !d.After(dateOnly(to)); d = d.AddDate(0, 0, 1) {
		f.SetCellValue(sheetName, cell("A", row),
			fmt.Sprintf("%s %s", d.Format("2006-01-02"), dayNames[int(d.Weekday())]))

		for i, workerID := range workerIDs {
			var lines string
			for _, inst := range byWorker[workerID] {
				if !dateOnly(inst.Date).Equal(d) {
					continue
				}
				if lines != "" {
					lines += "\n"
				}
				lines += fmt.Sprintf("%s-%s %s/%s",
					inst.StartTime, inst.EndTime, sourceLabels[inst.Source], statusLabels[inst.Status])
			}
			if lines == "" {
				lines = "-"
			}
			f.SetCellValue(sheetName, cell(colName(1+i), row), lines)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", pkgerrors.Configuration("生成 Excel 文件失败")
	}

	filename := fmt.Sprintf("工作日历_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// ExportICS — 导出 iCalendar 订阅内容
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, workerID string, from, to time.Time) (*bytes.Buffer, string, error) {
	byWorker, _, err := s.calendar.Aggregate(ctx, []string{workerID}, from, to, allCalendarTypes())
	if err != nil {
		return nil, "", err
	}

	loc, err := time.LoadLocation(s.cfg.Database.Timezone)
	if err != nil {
		loc = time.Local
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//clinic-system//calendar//ZH")

	now := time.Now().In(loc)
	for i, inst := range byWorker[workerID] {
		startMin, endMin, perr := ParseSubSlotID(inst.StartTime + "-" + inst.EndTime)
		if perr != nil {
			s.logger.Warn("导出跳过无效实例", zap.String("worker_id", workerID), zap.Error(perr))
			continue
		}

		d := inst.Date
		startAt := time.Date(d.Year(), d.Month(), d.Day(), startMin/60, startMin%60, 0, 0, loc)
		endAt := time.Date(d.Year(), d.Month(), d.Day(), endMin/60, endMin%60, 0, 0, loc)

		evt := cal.AddEvent(fmt.Sprintf("%s-%d@clinic-system", workerID, i))
		evt.SetDtStampTime(now)
		evt.SetStartAt(startAt)
		evt.SetEndAt(endAt)
		evt.SetSummary(icsSummary(inst))
		if inst.ShiftName != "" {
			evt.SetDescription("班次: " + inst.ShiftName)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("calendar_%s.ics", from.Format("20060102"))
	return buf, filename, nil
}

// icsSummary 生成事件标题
func icsSummary(inst CalendarInstance) string {
	label := sourceLabels[inst.Source]
	if inst.Status == InstanceBooked {
		label += "（已预约）"
	}
	if inst.Status == InstanceLeaveBlocked {
		label = "请假"
	}
	if inst.ShiftName != "" {
		label += " " + inst.ShiftName
	}
	return label
}

// allCalendarTypes 全部日历种类
func allCalendarTypes() map[string]bool {
	return map[string]bool{
		SourceBaseline:    true,
		SourceOvertime:    true,
		SourceLeave:       true,
		SourceAppointment: true,
	}
}

// ── Excel 坐标辅助 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
