package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/usedbooks/internal/application/order"
	"github.com/xiebiao/usedbooks/internal/interface/http/dto"
	"github.com/xiebiao/usedbooks/internal/interface/http/middleware"
	"github.com/xiebiao/usedbooks/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	confirmPurchaseUseCase *apporder.ConfirmPurchaseUseCase
	listOrdersUseCase      *apporder.ListOrdersUseCase
	updateStatusUseCase    *apporder.UpdateOrderStatusUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	confirmPurchaseUseCase *apporder.ConfirmPurchaseUseCase,
	listOrdersUseCase *apporder.ListOrdersUseCase,
	updateStatusUseCase *apporder.UpdateOrderStatusUseCase,
) *OrderHandler {
	return &OrderHandler{
		confirmPurchaseUseCase: confirmPurchaseUseCase,
		listOrdersUseCase:      listOrdersUseCase,
		updateStatusUseCase:    updateStatusUseCase,
	}
}

// ConfirmPurchase 确认购买
// @Summary      确认购买
// @Description  原子扣减库存后把订单写入买家、卖家、全局三处；任一步失败会回滚已完成的步骤
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ConfirmPurchaseRequest true "购买信息"
// @Success      200 {object} response.Response{data=apporder.OrderDTO} "下单成功"
// @Failure      200 {object} response.Response "40001 库存不足 / 40100 未登录 / 40405 库存记录不存在 / 40406 卖家不存在"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) ConfirmPurchase(c *gin.Context) {
	var req dto.ConfirmPurchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.confirmPurchaseUseCase.Execute(c.Request.Context(), middleware.SessionFrom(c), apporder.ConfirmPurchaseRequest{
		BookID:    req.BookID,
		Quantity:  req.Quantity,
		BookName:  req.BookName,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListBuyerOrders 我买到的
// @Summary      买家订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apporder.OrderDTO}
// @Failure      200 {object} response.Response "40100 未登录"
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListBuyerOrders(c *gin.Context) {
	result, err := h.listOrdersUseCase.ListBuyerOrders(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListSellerOrders 我卖出的
// @Summary      卖家订单
// @Description  当前用户从未上架过图书时返回空列表
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apporder.OrderDTO}
// @Failure      200 {object} response.Response "40100 未登录"
// @Router       /api/v1/seller/orders [get]
func (h *OrderHandler) ListSellerOrders(c *gin.Context) {
	result, err := h.listOrdersUseCase.ListSellerOrders(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateStatus 卖家更新订单状态
// @Summary      更新订单状态
// @Description  只有订单的卖家可以操作，状态只能向前推进
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                       true "订单ID"
// @Param        request body dto.UpdateOrderStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      200 {object} response.Response "40002 状态非法 / 40104 无权限 / 40403 订单不存在"
// @Router       /api/v1/seller/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.updateStatusUseCase.Execute(c.Request.Context(), middleware.SessionFrom(c), apporder.UpdateOrderStatusRequest{
		OrderID: c.Param("id"),
		Status:  req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
