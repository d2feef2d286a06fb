package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/usedbooks/internal/application/cart"
	"github.com/xiebiao/usedbooks/internal/interface/http/dto"
	"github.com/xiebiao/usedbooks/internal/interface/http/middleware"
	"github.com/xiebiao/usedbooks/pkg/response"
)

// CartHandler 购物车HTTP处理器
type CartHandler struct {
	cartUseCase *appcart.UseCase
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(cartUseCase *appcart.UseCase) *CartHandler {
	return &CartHandler{cartUseCase: cartUseCase}
}

// GetCart 查看购物车
// @Summary      查看购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]dto.CartEntry}
// @Failure      200 {object} response.Response "40100 未登录"
// @Router       /api/v1/cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	entries, err := h.cartUseCase.GetCart(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	list := make([]dto.CartEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, dto.CartEntry{BookID: e.BookID, AddedAt: e.AddedAt.Format(time.RFC3339)})
	}
	response.Success(c, list)
}

// AddToCart 加入购物车
// @Summary      加入购物车
// @Description  已在购物车时不报错，outcome为already_in_cart
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Param        bookId path string true "图书ID"
// @Success      200 {object} response.Response{data=dto.CartOutcome}
// @Failure      200 {object} response.Response "40100 未登录"
// @Router       /api/v1/cart/{bookId} [post]
func (h *CartHandler) AddToCart(c *gin.Context) {
	bookID := c.Param("bookId")
	outcome, err := h.cartUseCase.AddToCart(c.Request.Context(), middleware.SessionFrom(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, outcome.Message(), dto.CartOutcome{BookID: bookID, Outcome: string(outcome)})
}

// RemoveFromCart 移出购物车
// @Summary      移出购物车
// @Description  不在购物车时不报错，outcome为not_in_cart
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Param        bookId path string true "图书ID"
// @Success      200 {object} response.Response{data=dto.CartOutcome}
// @Failure      200 {object} response.Response "40100 未登录"
// @Router       /api/v1/cart/{bookId} [delete]
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	bookID := c.Param("bookId")
	outcome, err := h.cartUseCase.RemoveFromCart(c.Request.Context(), middleware.SessionFrom(c), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, outcome.Message(), dto.CartOutcome{BookID: bookID, Outcome: string(outcome)})
}
