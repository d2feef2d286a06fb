package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/usedbooks/internal/application/order"
	"github.com/xiebiao/usedbooks/internal/domain/order"
	"github.com/xiebiao/usedbooks/internal/domain/stock"
	boltstore "github.com/xiebiao/usedbooks/internal/infrastructure/persistence/bolt"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/usedbooks/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/usedbooks/pkg/mq"
	"github.com/xiebiao/usedbooks/pkg/remote"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "迁移数据库表结构",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, flush, err := opts.load()
			if err != nil {
				return err
			}
			defer flush()

			db, err := mysql.NewDB(cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := mysql.Migrate(db); err != nil {
				return fmt.Errorf("迁移失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func newStockCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "查看或设置图书库存",
	}

	get := &cobra.Command{
		Use:   "get <bookId>",
		Short: "读取库存",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd.Context(), opts, func(ctx context.Context, ledger stock.Ledger) error {
				return stockGet(ctx, cmd.OutOrStdout(), ledger, args[0])
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <bookId> <qty>",
		Short: "设置库存（会推送给订阅者）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			return withLedger(cmd.Context(), opts, func(ctx context.Context, ledger stock.Ledger) error {
				return stockSet(ctx, cmd.OutOrStdout(), ledger, args[0], qty)
			})
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

// parseQuantity 库存数量必须是非负整数
func parseQuantity(s string) (int64, error) {
	qty, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("库存数量必须是整数: %q", s)
	}
	if qty < 0 {
		return 0, fmt.Errorf("库存数量不能为负数: %d", qty)
	}
	return qty, nil
}

func stockGet(ctx context.Context, w io.Writer, ledger stock.Ledger, bookID string) error {
	qty, err := ledger.Get(ctx, bookID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\t%d\n", bookID, qty)
	return nil
}

func stockSet(ctx context.Context, w io.Writer, ledger stock.Ledger, bookID string, qty int64) error {
	if err := ledger.Set(ctx, bookID, qty); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\t%d\n", bookID, qty)
	return nil
}

func withLedger(ctx context.Context, opts *rootOptions, fn func(ctx context.Context, ledger stock.Ledger) error) error {
	cfg, log, flush, err := opts.load()
	if err != nil {
		return err
	}
	defer flush()

	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	call := remote.NewCaller(cfg.Remote.CallTimeout)
	return fn(ctx, redis.NewStockLedger(client, call, log))
}

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "执行一轮对账，重试未完成的补偿",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, flush, err := opts.load()
			if err != nil {
				return err
			}
			defer flush()
			ctx := cmd.Context()

			db, err := mysql.NewDB(cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			client, err := redis.NewClient(cfg, log)
			if err != nil {
				return err
			}
			defer client.Close()

			call := remote.NewCaller(cfg.Remote.CallTimeout)
			ledger := redis.NewStockLedger(client, call, log)
			if err := ledger.LoadScripts(ctx); err != nil {
				return err
			}

			// 服务运行时bolt文件被独占，需先停服务或等待超时
			boltDB, err := boltstore.Open(cfg.Reconcile.JournalPath, cfg.Remote.CallTimeout)
			if err != nil {
				return err
			}
			journal := boltstore.NewJournal(boltDB, log)
			defer journal.Close()

			reconciler := apporder.NewReconciler(journal, mysql.NewOrderRepository(db, call), ledger, cfg.Reconcile.MaxAttempts, log)
			return runReconcile(ctx, cmd.OutOrStdout(), reconciler)
		},
	}
}

// runReconcile 执行一轮对账并以JSON输出结果
func runReconcile(ctx context.Context, w io.Writer, reconciler *apporder.Reconciler) error {
	res, err := reconciler.RunOnce(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "订单事件",
	}

	var keys []string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "持续打印订单事件，Ctrl+C退出",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, flush, err := opts.load()
			if err != nil {
				return err
			}
			defer flush()

			consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, cfg.MQ.TailQueue, keys, log)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return consumer.Consume(ctx, func(_ context.Context, body []byte) error {
				var evt order.CreatedEvent
				if err := json.Unmarshal(body, &evt); err != nil {
					// 格式不对的消息重新入队也解析不了，记录后确认掉
					log.Warn("undecodable event", zap.ByteString("body", body), zap.Error(err))
					return nil
				}
				log.Info("order event",
					zap.String("order_id", evt.OrderID),
					zap.Uint("buyer_id", evt.BuyerID),
					zap.String("seller_id", evt.SellerID),
					zap.String("book_id", evt.BookID),
					zap.Int64("quantity", evt.Quantity),
					zap.String("total_price", evt.TotalPrice),
					zap.String("status", string(evt.Status)),
				)
				return nil
			})
		},
	}
	tail.Flags().StringSliceVar(&keys, "keys", []string{"order.*"}, "绑定的路由键")

	cmd.AddCommand(tail)
	return cmd
}
