// Package router 注册HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/interface/http/handler"
	"github.com/xiebiao/usedbooks/internal/interface/http/middleware"
	"github.com/xiebiao/usedbooks/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User   *handler.UserHandler
	Book   *handler.BookHandler
	Cart   *handler.CartHandler
	Order  *handler.OrderHandler
	Upload *handler.UploadHandler
}

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	AllowOrigins  []string
	EnableSwagger bool
}

// New 创建Gin引擎并注册全部路由
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware, logger *zap.Logger) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(opts.AllowOrigins),
		middleware.Metrics(),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		// swag init 生成 docs/ 后访问 /swagger/index.html
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 图片中转
	r.POST("/upload", h.Upload.Upload)

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.User.Register)
			users.POST("/login", h.User.Login)
			users.POST("/federated", h.User.FederatedLogin)
			users.POST("/refresh", h.User.Refresh)
			users.POST("/logout", auth.RequireAuth(), h.User.Logout)
			users.GET("/me", auth.RequireAuth(), h.User.Me)
		}

		books := v1.Group("/books")
		{
			books.GET("", h.Book.ListBooks)
			books.GET("/:id", h.Book.GetBook)
			books.GET("/:id/stock/stream", h.Book.StreamStock)
			books.POST("", auth.RequireAuth(), h.Book.CreateListing)
		}

		cart := v1.Group("/cart")
		cart.Use(auth.RequireAuth())
		{
			cart.GET("", h.Cart.GetCart)
			cart.POST("/:bookId", h.Cart.AddToCart)
			cart.DELETE("/:bookId", h.Cart.RemoveFromCart)
		}

		orders := v1.Group("/orders")
		orders.Use(auth.RequireAuth())
		{
			orders.POST("", h.Order.ConfirmPurchase)
			orders.GET("", h.Order.ListBuyerOrders)
		}

		seller := v1.Group("/seller")
		seller.Use(auth.RequireAuth())
		{
			seller.GET("/orders", h.Order.ListSellerOrders)
			seller.PATCH("/orders/:id/status", h.Order.UpdateStatus)
		}
	}

	return r
}
