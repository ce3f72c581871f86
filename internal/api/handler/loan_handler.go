package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Isaaja/wimas-app-sub000/config"
	"github.com/Isaaja/wimas-app-sub000/internal/dto"
	"github.com/Isaaja/wimas-app-sub000/internal/service"
	pkgerrors "github.com/Isaaja/wimas-app-sub000/pkg/errors"
	"github.com/Isaaja/wimas-app-sub000/pkg/response"
)

// LoanHandler 借用模块 HTTP 处理器
type LoanHandler struct {
	cfg     *config.Config
	loanSvc service.LoanService
}

// NewLoanHandler 创建 LoanHandler
func NewLoanHandler(cfg *config.Config, loanSvc service.LoanService) *LoanHandler {
	return &LoanHandler{cfg: cfg, loanSvc: loanSvc}
}

// Create 提交借用申请
// POST /api/v1/loans
//
// multipart/form-data：
//   - payload: CreateLoanRequest 的 JSON
//   - spt_file: SPT 附件（可选，PDF，大小受 upload.max_file_size 限制）
func (h *LoanHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	payload := c.PostForm("payload")
	if payload == "" {
		response.BadRequest(c, 10001, "缺少 payload 字段")
		return
	}

	var req dto.CreateLoanRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		response.BadRequest(c, 10001, "payload 不是合法 JSON")
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	// 附件校验在 Handler 层完成，Service 只关心上传本身
	var file *service.SPTFile
	fileHeader, err := c.FormFile("spt_file")
	if err == nil && fileHeader != nil {
		if fileHeader.Size > h.cfg.Upload.MaxFileSize {
			response.BadRequest(c, 12001, "附件超出大小限制")
			return
		}
		contentType := fileHeader.Header.Get("Content-Type")
		if !h.mimeAllowed(contentType) {
			response.BadRequest(c, 12002, "附件类型不受支持")
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			response.InternalError(c)
			return
		}
		defer f.Close()

		file = &service.SPTFile{
			Reader:      f,
			FileName:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: contentType,
		}
	}

	result, err := h.loanSvc.Create(c.Request.Context(), &req, file, userID)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateItems 批准前整单替换申请行
// PUT /api/v1/loans/:id/items
func (h *LoanHandler) UpdateItems(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateLoanItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.loanSvc.UpdateRequestItems(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.OK(c, result)
}

// Approve 批准并绑定单元
// POST /api/v1/loans/:id/approve
func (h *LoanHandler) Approve(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ApproveLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.loanSvc.Approve(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 驳回借用申请
// POST /api/v1/loans/:id/reject
func (h *LoanHandler) Reject(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.loanSvc.Reject(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.OK(c, result)
}

// Return 借用人归还
// POST /api/v1/loans/:id/return
func (h *LoanHandler) Return(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.loanSvc.Return(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.OK(c, result)
}

// Done 管理员验收完成
// POST /api/v1/loans/:id/done
func (h *LoanHandler) Done(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CompleteLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.loanSvc.Complete(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.OK(c, result)
}

// List 借用单列表（管理员全量，借用人仅本人）
// GET /api/v1/loans
func (h *LoanHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	var req dto.LoanListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	req.Normalize()

	list, total, err := h.loanSvc.List(c.Request.Context(), &req, userID, role)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Get 借用单详情
// GET /api/v1/loans/:id
func (h *LoanHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	result, err := h.loanSvc.GetByID(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.writeLoanError(c, err)
		return
	}

	response.OK(c, result)
}

// ── 内部辅助方法 ──

func (h *LoanHandler) mimeAllowed(contentType string) bool {
	for _, m := range h.cfg.Upload.AllowedMIMEs {
		if m == contentType {
			return true
		}
	}
	return false
}

// writeLoanError 将借用模块业务错误映射为 HTTP 响应
func (h *LoanHandler) writeLoanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLoanNotFound):
		response.NotFound(c, 12101, "借用单不存在")
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 12102, err.Error())
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrUnitNotFound),
		errors.Is(err, service.ErrInvitedUserNotFound):
		response.BadRequest(c, 12103, err.Error())
	case errors.Is(err, service.ErrDuplicateProduct),
		errors.Is(err, service.ErrDuplicateUnit),
		errors.Is(err, service.ErrNoRequestItems):
		response.BadRequest(c, 12104, err.Error())
	case errors.Is(err, service.ErrQuantityMismatch),
		errors.Is(err, service.ErrProductNotRequested),
		errors.Is(err, service.ErrUnitProductMismatch):
		response.BadRequest(c, 12105, err.Error())
	case errors.Is(err, service.ErrConditionIncomplete),
		errors.Is(err, service.ErrUnitNotInLoan):
		response.BadRequest(c, 12106, err.Error())
	case errors.Is(err, service.ErrLoanAlreadyDecided),
		errors.Is(err, service.ErrLoanNotReturnable),
		errors.Is(err, service.ErrLoanNotCompletable):
		response.Conflict(c, 12107, err.Error())
	case errors.Is(err, service.ErrUnitNotAssignable),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, pkgerrors.ErrOptimisticLock),
		errors.Is(err, pkgerrors.ErrStatusConflict):
		response.Conflict(c, 12108, err.Error())
	case errors.Is(err, service.ErrNotLoanOwner):
		response.Forbidden(c, 12109, "无权限操作该借用单")
	case errors.Is(err, service.ErrUploadFailed):
		response.Error(c, http.StatusBadGateway, 12110, "附件上传失败，请稍后重试")
	default:
		response.InternalError(c)
	}
}
