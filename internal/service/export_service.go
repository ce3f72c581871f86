package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Isaaja/wimas-app-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoLoans      = errors.New("暂无可导出的借用记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出全量借用台账为 Excel (.xlsx)，一张借用单占一行，绑定单元合并为序列号列表
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportLoans 导出借用台账为 Excel
	ExportLoans(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportLoans — 导出借用台账为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式（单 Sheet "借用台账"）：
//   - 列：SPT 编号 | 借用人 | 目的地 | 起止日期 | 状态 | 借出单元 | 提交时间
//   - 借出单元列为 "物资名/序列号" 逗号拼接；仍生效的绑定加 * 标记

func (s *exportService) ExportLoans(ctx context.Context) (*bytes.Buffer, string, error) {
	// 1. 查询全量借用单（含关联）
	loans, err := s.repo.Loan.ListAllForExport(ctx)
	if err != nil {
		s.logger.Error("查询借用台账失败", zap.Error(err))
		return nil, "", err
	}
	if len(loans) == 0 {
		return nil, "", ErrExportNoLoans
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "借用台账"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	widths := []float64{18, 14, 20, 22, 10, 40, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	headers := []string{"SPT 编号", "借用人", "目的地", "起止日期", "状态", "借出单元", "提交时间"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, cell(col, 1), h)
		f.SetCellStyle(sheetName, cell(col, 1), cell(col, 1), headerStyle)
	}

	// 数据行
	row := 2
	for i := range loans {
		loan := &loans[i]

		sptNumber, destination, dateRange := "-", "-", "-"
		if loan.Report != nil {
			sptNumber = loan.Report.SPTNumber
			destination = loan.Report.Destination
			dateRange = fmt.Sprintf("%s ~ %s",
				loan.Report.StartDate.Format("2006-01-02"),
				loan.Report.EndDate.Format("2006-01-02"))
		}

		borrowerName := loan.BorrowerID
		if loan.Borrower != nil {
			borrowerName = loan.Borrower.Name
		}

		unitsText := "-"
		if len(loan.Items) > 0 {
			var parts []string
			for j := range loan.Items {
				item := &loan.Items[j]
				text := item.UnitID
				if item.Unit != nil {
					text = item.Unit.SerialNumber
					if item.Unit.Product != nil {
						text = item.Unit.Product.Name + "/" + text
					}
				}
				if item.ReleasedAt == nil {
					text += " *"
				}
				parts = append(parts, text)
			}
			unitsText = strings.Join(parts, ", ")
		}

		values := []interface{}{
			sptNumber,
			borrowerName,
			destination,
			dateRange,
			loan.Status,
			unitsText,
			loan.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheetName, cell(col, row), v)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("借用台账_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
