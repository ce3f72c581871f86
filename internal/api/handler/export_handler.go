package handler

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Isaaja/wimas-app-sub000/internal/service"
	"github.com/Isaaja/wimas-app-sub000/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportLoans 导出借用台账为 Excel
// GET /api/v1/export/loans
func (h *ExportHandler) ExportLoans(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportLoans(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExportNoLoans):
			response.NotFound(c, 14101, "暂无可导出的借用记录")
		default:
			response.InternalError(c)
		}
		return
	}

	// 文件名含中文，走 RFC 5987 编码
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
