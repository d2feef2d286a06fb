//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 运行 `wire gen ./cmd/api` 生成 wire_gen.go；
// 生成前 main.go 使用 assemble() 手工组装，两边共用 providers.go 中的 provider。

package main

import (
	"github.com/google/wire"

	appcart "github.com/xiebiao/usedbooks/internal/application/cart"
	"github.com/xiebiao/usedbooks/internal/application/catalog"
	apporder "github.com/xiebiao/usedbooks/internal/application/order"
	appuser "github.com/xiebiao/usedbooks/internal/application/user"
	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/internal/infrastructure/config"
	boltstore "github.com/xiebiao/usedbooks/internal/infrastructure/persistence/bolt"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/usedbooks/internal/interface/http/handler"
	"github.com/xiebiao/usedbooks/internal/interface/http/middleware"
)

// infrastructureSet 连接与外部存储
var infrastructureSet = wire.NewSet(
	provideLogger,
	provideDB,
	provideRedis,
	provideCaller,
	provideStockLedger,
	wire.Bind(new(stock.Ledger), new(*redis.StockLedger)),
	provideJournal,
	wire.Bind(new(order.Journal), new(*boltstore.Journal)),
	provideOrderPublisher,
	provideVerifier,
	provideMediaStore,
	provideJWTManager,
	provideSessionStore,
	provideBookCache,
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewCartRepository,
	mysql.NewOrderRepository,
	mysql.NewSellerRepository,
	mysql.NewTxManager,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	provideUserService,
	book.NewService,
	seller.NewDirectory,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	provideLogoutUseCase,
	appuser.NewRefreshUseCase,
	appuser.NewProfileUseCase,
	catalog.NewListBooksUseCase,
	provideGetBookUseCase,
	provideCreateListingUseCase,
	catalog.NewWatchStockUseCase,
	appcart.NewUseCase,
	provideConfirmPurchaseUseCase,
	apporder.NewListOrdersUseCase,
	provideUpdateStatusUseCase,
	provideReconciler,
	provideUploadUseCase,
)

// httpSet 处理器、中间件与路由
var httpSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewCartHandler,
	handler.NewOrderHandler,
	handler.NewUploadHandler,
	provideHandlers,
	provideAuthMiddleware,
	provideEngine,
)

// InitializeApp 组装整个应用，返回的cleanup按创建的逆序释放资源
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		httpSet,
		newApp,
	)
	return nil, nil, nil
}
