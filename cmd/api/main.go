package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "github.com/xiebiao/usedbooks/docs"
	appcart "github.com/xiebiao/usedbooks/internal/application/cart"
	"github.com/xiebiao/usedbooks/internal/application/catalog"
	apporder "github.com/xiebiao/usedbooks/internal/application/order"
	appuser "github.com/xiebiao/usedbooks/internal/application/user"
	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/infrastructure/config"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/usedbooks/internal/interface/http/handler"
	"github.com/xiebiao/usedbooks/pkg/metrics"
	"github.com/xiebiao/usedbooks/pkg/tracing"
)

// @title        二手书交易平台 API
// @version      1.0
// @description  图书浏览、上架、购物车、确认购买与图片中转
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	app, cleanup, err := assemble(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	defer cleanup()

	logger := app.Logger
	metrics.InitMetrics()

	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Warn("初始化链路追踪失败，继续运行", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reconcile.Enabled {
		go app.Reconciler.Run(ctx, cfg.Reconcile.Interval)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("服务启动",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.Server.Mode),
			zap.String("database", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
			zap.String("redis", cfg.Redis.Addr()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("收到退出信号，开始优雅关闭")
	case err := <-errCh:
		logger.Error("服务异常退出", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("优雅关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务已停止")
}

// assemble 手工组装依赖
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
// 与 wire.go 中的 InitializeApp 使用同一组 provider
func assemble(cfg *config.Config) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	logger, flush, err := provideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, flush)

	// 基础设施层
	db, closeDB, err := provideDB(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	redisClient, closeRedis, err := provideRedis(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)

	call := provideCaller(cfg)
	ledger, err := provideStockLedger(redisClient, call, logger)
	if err != nil {
		return fail(err)
	}

	journal, closeJournal, err := provideJournal(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeJournal)

	publisher, closePublisher, err := provideOrderPublisher(cfg, call, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closePublisher)

	verifier, err := provideVerifier(cfg)
	if err != nil {
		return fail(err)
	}

	userRepo := mysql.NewUserRepository(db, call)
	bookRepo := mysql.NewBookRepository(db, call)
	cartRepo := mysql.NewCartRepository(db, call)
	orderRepo := mysql.NewOrderRepository(db, call)
	sellerRepo := mysql.NewSellerRepository(db, call)
	txManager := mysql.NewTxManager(db)
	sessionStore := provideSessionStore(redisClient, call)
	bookCache := provideBookCache(redisClient, call)
	mediaStore := provideMediaStore(cfg, logger)
	jwtManager := provideJWTManager(cfg)

	// 领域层
	userService := provideUserService(userRepo, cfg)
	bookService := book.NewService(bookRepo)
	sellers := seller.NewDirectory(sellerRepo)

	// 应用层
	registerUseCase := appuser.NewRegisterUseCase(userService)
	loginUseCase := provideLoginUseCase(userService, verifier, jwtManager, sessionStore, cfg, logger)
	logoutUseCase := provideLogoutUseCase(sessionStore, jwtManager)
	refreshUseCase := appuser.NewRefreshUseCase(jwtManager)
	profileUseCase := appuser.NewProfileUseCase(userService)

	listBooksUseCase := catalog.NewListBooksUseCase(bookService, ledger, logger)
	getBookUseCase := provideGetBookUseCase(bookService, bookCache, ledger, cfg, logger)
	createListingUseCase := provideCreateListingUseCase(bookService, bookRepo, bookCache, ledger, sellers, cfg, logger)
	watchStockUseCase := catalog.NewWatchStockUseCase(ledger)

	cartUseCase := appcart.NewUseCase(cartRepo)

	confirmPurchaseUseCase := provideConfirmPurchaseUseCase(ledger, sellers, bookService, orderRepo, journal, publisher, cfg, logger)
	listOrdersUseCase := apporder.NewListOrdersUseCase(orderRepo, sellers)
	updateStatusUseCase := provideUpdateStatusUseCase(orderRepo, txManager, logger)
	reconciler := provideReconciler(journal, orderRepo, ledger, cfg, logger)

	uploadUseCase := provideUploadUseCase(mediaStore, cfg, logger)

	// 接口层
	handlers := provideHandlers(
		handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase, refreshUseCase, profileUseCase),
		handler.NewBookHandler(listBooksUseCase, getBookUseCase, createListingUseCase, watchStockUseCase),
		handler.NewCartHandler(cartUseCase),
		handler.NewOrderHandler(confirmPurchaseUseCase, listOrdersUseCase, updateStatusUseCase),
		handler.NewUploadHandler(uploadUseCase),
	)
	authMiddleware := provideAuthMiddleware(jwtManager, sessionStore, logger)
	engine := provideEngine(cfg, handlers, authMiddleware, logger)

	return newApp(cfg, logger, engine, reconciler), cleanup, nil
}
