package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/usedbooks/internal/application/catalog"
	apporder "github.com/xiebiao/usedbooks/internal/application/order"
	"github.com/xiebiao/usedbooks/internal/application/upload"
	appuser "github.com/xiebiao/usedbooks/internal/application/user"
	"github.com/xiebiao/usedbooks/internal/domain/book"
	"github.com/xiebiao/usedbooks/internal/domain/media"
	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/seller"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	"github.com/xiebiao/usedbooks/internal/domain/user"
	"github.com/xiebiao/usedbooks/internal/infrastructure/config"
	"github.com/xiebiao/usedbooks/internal/infrastructure/federated"
	mediastore "github.com/xiebiao/usedbooks/internal/infrastructure/media"
	"github.com/xiebiao/usedbooks/internal/infrastructure/messaging"
	boltstore "github.com/xiebiao/usedbooks/internal/infrastructure/persistence/bolt"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/usedbooks/internal/interface/http/handler"
	"github.com/xiebiao/usedbooks/internal/interface/http/middleware"
	"github.com/xiebiao/usedbooks/internal/interface/http/router"
	"github.com/xiebiao/usedbooks/pkg/jwt"
	"github.com/xiebiao/usedbooks/pkg/logger"
	"github.com/xiebiao/usedbooks/pkg/mq"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

// App 组装完成的应用
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Engine     *gin.Engine
	Reconciler *apporder.Reconciler
}

func newApp(cfg *config.Config, log *zap.Logger, engine *gin.Engine, reconciler *apporder.Reconciler) *App {
	return &App{Config: cfg, Logger: log, Engine: engine, Reconciler: reconciler}
}

// ---- 基础设施 ----

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, flush, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	}, zap.String("service", "usedbooks-api"))
	if err != nil {
		return nil, nil, err
	}
	// response.Error 通过全局Logger记录内部错误
	zap.ReplaceGlobals(log)
	return log, func() { _ = flush() }, nil
}

func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideCaller(cfg *config.Config) remote.Caller {
	return remote.NewCaller(cfg.Remote.CallTimeout)
}

func provideStockLedger(client *goredis.Client, call remote.Caller, log *zap.Logger) (*redis.StockLedger, error) {
	ledger := redis.NewStockLedger(client, call, log)
	ctx, cancel := context.WithTimeout(context.Background(), call.Timeout)
	defer cancel()
	if err := ledger.LoadScripts(ctx); err != nil {
		return nil, fmt.Errorf("加载库存脚本失败: %w", err)
	}
	return ledger, nil
}

func provideJournal(cfg *config.Config, log *zap.Logger) (*boltstore.Journal, func(), error) {
	if dir := filepath.Dir(cfg.Reconcile.JournalPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("创建对账日志目录失败: %w", err)
		}
	}
	db, err := boltstore.Open(cfg.Reconcile.JournalPath, cfg.Remote.CallTimeout)
	if err != nil {
		return nil, nil, err
	}
	journal := boltstore.NewJournal(db, log)
	return journal, func() { _ = journal.Close() }, nil
}

// provideOrderPublisher MQ未启用时事件直接丢弃
func provideOrderPublisher(cfg *config.Config, call remote.Caller, log *zap.Logger) (order.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		return messaging.NopPublisher{}, func() {}, nil
	}
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewOrderPublisher(publisher, call, log), func() { _ = publisher.Close() }, nil
}

// provideVerifier 未启用第三方登录时返回nil
func provideVerifier(cfg *config.Config) (user.IdentityVerifier, error) {
	if !cfg.Federated.Enabled {
		return nil, nil
	}
	v, err := federated.NewVerifier(cfg.Federated)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func provideMediaStore(cfg *config.Config, log *zap.Logger) media.Store {
	return mediastore.NewCloudinaryStore(cfg.Media, cfg.Remote, log)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideSessionStore(client *goredis.Client, call remote.Caller) *redis.SessionStore {
	return redis.NewSessionStore(client, call)
}

func provideBookCache(client *goredis.Client, call remote.Caller) *redis.BookCache {
	return redis.NewBookCache(client, call)
}

// ---- 领域服务 ----

func provideUserService(repo user.Repository, cfg *config.Config) user.Service {
	return user.NewService(repo, cfg.JWT.BcryptCost)
}

// ---- 用例 ----

func provideLoginUseCase(
	users user.Service,
	verifier user.IdentityVerifier,
	jwtManager *jwt.Manager,
	sessions *redis.SessionStore,
	cfg *config.Config,
	log *zap.Logger,
) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(users, verifier, jwtManager, sessions, cfg.JWT.RefreshTokenExpire, log)
}

func provideLogoutUseCase(sessions *redis.SessionStore, jwtManager *jwt.Manager) *appuser.LogoutUseCase {
	return appuser.NewLogoutUseCase(sessions, jwtManager)
}

func provideGetBookUseCase(books book.Service, cache *redis.BookCache, ledger stock.Ledger, cfg *config.Config, log *zap.Logger) *catalog.GetBookUseCase {
	return catalog.NewGetBookUseCase(books, cache, ledger, cfg.Cache.BookTTL, log)
}

func provideCreateListingUseCase(
	books book.Service,
	repo book.Repository,
	cache *redis.BookCache,
	ledger stock.Ledger,
	sellers *seller.Directory,
	cfg *config.Config,
	log *zap.Logger,
) *catalog.CreateListingUseCase {
	return catalog.NewCreateListingUseCase(books, repo, cache, ledger, sellers, log, cfg.Remote.SagaTimeout)
}

func provideConfirmPurchaseUseCase(
	ledger stock.Ledger,
	sellers *seller.Directory,
	books book.Service,
	orders order.Repository,
	journal order.Journal,
	publisher order.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *apporder.ConfirmPurchaseUseCase {
	return apporder.NewConfirmPurchaseUseCase(ledger, sellers, books, orders, journal, publisher, log, cfg.Remote.SagaTimeout)
}

func provideUpdateStatusUseCase(orders order.Repository, tx *mysql.TxManager, log *zap.Logger) *apporder.UpdateOrderStatusUseCase {
	return apporder.NewUpdateOrderStatusUseCase(orders, tx, log)
}

func provideReconciler(journal order.Journal, orders order.Repository, ledger stock.Ledger, cfg *config.Config, log *zap.Logger) *apporder.Reconciler {
	return apporder.NewReconciler(journal, orders, ledger, cfg.Reconcile.MaxAttempts, log)
}

func provideUploadUseCase(store media.Store, cfg *config.Config, log *zap.Logger) *upload.UseCase {
	return upload.NewUseCase(store, cfg.Media.TempDir, cfg.Media.MaxFiles, cfg.Media.MaxFileMB<<20, log)
}

// ---- HTTP ----

func provideAuthMiddleware(jwtManager *jwt.Manager, sessions *redis.SessionStore, log *zap.Logger) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtManager, sessions, log)
}

func provideHandlers(
	userHandler *handler.UserHandler,
	bookHandler *handler.BookHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	uploadHandler *handler.UploadHandler,
) router.Handlers {
	return router.Handlers{
		User:   userHandler,
		Book:   bookHandler,
		Cart:   cartHandler,
		Order:  orderHandler,
		Upload: uploadHandler,
	}
}

func provideEngine(cfg *config.Config, h router.Handlers, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	return router.New(router.Options{
		Mode:          cfg.Server.Mode,
		AllowOrigins:  cfg.Server.AllowOrigins,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}, h, auth, log)
}
