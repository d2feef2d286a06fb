package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/usedbooks/internal/application/catalog"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/internal/interface/http/dto"
	"github.com/xiebiao/usedbooks/internal/interface/http/middleware"
	"github.com/xiebiao/usedbooks/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listBooksUseCase     *catalog.ListBooksUseCase
	getBookUseCase       *catalog.GetBookUseCase
	createListingUseCase *catalog.CreateListingUseCase
	watchStockUseCase    *catalog.WatchStockUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listBooksUseCase *catalog.ListBooksUseCase,
	getBookUseCase *catalog.GetBookUseCase,
	createListingUseCase *catalog.CreateListingUseCase,
	watchStockUseCase *catalog.WatchStockUseCase,
) *BookHandler {
	return &BookHandler{
		listBooksUseCase:     listBooksUseCase,
		getBookUseCase:       getBookUseCase,
		createListingUseCase: createListingUseCase,
		watchStockUseCase:    watchStockUseCase,
	}
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询在售图书，附带当前库存
// @Tags         图书
// @Produce      json
// @Param        page      query int    false "页码"     default(1)
// @Param        page_size query int    false "每页数量" default(20)
// @Param        keyword   query string false "书名/作者关键字"
// @Param        category  query string false "分类"
// @Success      200 {object} response.Response{data=response.PageData{list=[]catalog.BookDTO}}
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), catalog.ListBooksRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
		Category: req.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// GetBook 图书详情
// @Summary      图书详情
// @Description  图书信息和当前库存，库存记录不存在时不返回quantity
// @Tags         图书
// @Produce      json
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=catalog.BookDTO}
// @Failure      200 {object} response.Response "40402 图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	result, err := h.getBookUseCase.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CreateListing 上架图书
// @Summary      上架图书
// @Description  创建图书并写入初始库存，当前用户自动成为卖家
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateListingRequest true "图书信息"
// @Success      200 {object} response.Response{data=catalog.BookDTO}
// @Failure      200 {object} response.Response "40100 未登录 / 40900 参数错误"
// @Router       /api/v1/books [post]
func (h *BookHandler) CreateListing(c *gin.Context) {
	var req dto.CreateListingRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.createListingUseCase.Execute(c.Request.Context(), middleware.SessionFrom(c), catalog.CreateListingRequest{
		Name:            req.Name,
		ISBN:            req.ISBN,
		Author:          req.Author,
		Description:     req.Description,
		Category:        req.Category,
		Language:        req.Language,
		PublicationYear: req.PublicationYear,
		Price:           req.Price,
		CoverPics:       req.CoverPics,
		Quantity:        req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// StreamStock 库存实时推送
// @Summary      库存实时推送
// @Description  Server-Sent Events：先推送当前库存，之后每次变化推送一条stock事件
// @Tags         图书
// @Produce      text/event-stream
// @Param        id path string true "图书ID"
// @Success      200 {object} dto.StockEvent
// @Failure      200 {object} response.Response "40405 库存记录不存在"
// @Router       /api/v1/books/{id}/stock/stream [get]
func (h *BookHandler) StreamStock(c *gin.Context) {
	bookID := c.Param("id")
	watch, err := h.watchStockUseCase.Execute(c.Request.Context(), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer watch.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	initial := &dto.StockEvent{
		BookID:    bookID,
		Quantity:  watch.Initial,
		ChangedAt: time.Now().Format(time.RFC3339),
	}

	// 每一步写完后Stream会Flush，首条事件也放在step里发送
	c.Stream(func(w io.Writer) bool {
		if initial != nil {
			c.SSEvent("stock", *initial)
			initial = nil
			return true
		}
		select {
		case <-c.Request.Context().Done():
			return false
		case change, ok := <-watch.Changes:
			if !ok {
				return false
			}
			c.SSEvent("stock", toStockEvent(change))
			return true
		}
	})
}

func toStockEvent(change stock.Change) dto.StockEvent {
	return dto.StockEvent{
		BookID:    change.BookID,
		Quantity:  change.Quantity,
		ChangedAt: change.ChangedAt.Format(time.RFC3339),
	}
}
