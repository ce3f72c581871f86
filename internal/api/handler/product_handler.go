package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Isaaja/wimas-app-sub000/internal/dto"
	"github.com/Isaaja/wimas-app-sub000/internal/service"
	"github.com/Isaaja/wimas-app-sub000/pkg/response"
)

// ProductHandler 物资模块 HTTP 处理器
type ProductHandler struct {
	productSvc service.ProductService
}

// NewProductHandler 创建 ProductHandler
func NewProductHandler(productSvc service.ProductService) *ProductHandler {
	return &ProductHandler{productSvc: productSvc}
}

// List 物资列表
// GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	req.Normalize()

	list, total, err := h.productSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Get 物资详情
// GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	result, err := h.productSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.NotFound(c, 13101, "物资不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ListUnits 物资下的序列化单元（批准界面的单元选择器）
// GET /api/v1/products/:id/units?status=AVAILABLE
func (h *ProductHandler) ListUnits(c *gin.Context) {
	var req dto.UnitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.productSvc.ListUnits(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.NotFound(c, 13101, "物资不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// RepairUnit 受损单元修复回池
// PUT /api/v1/products/:id/units/repair
func (h *ProductHandler) RepairUnit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RepairUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.productSvc.RepairUnit(c.Request.Context(), &req, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnitNotFound):
			response.NotFound(c, 13102, "单元不存在")
		case errors.Is(err, service.ErrUnitNotDamaged):
			response.Conflict(c, 13103, "仅受损单元可执行修复")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// StockCheck 库存对账
// GET /api/v1/products/stock-check
func (h *ProductHandler) StockCheck(c *gin.Context) {
	result, err := h.productSvc.StockCheck(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
