// usedbooksctl 运维命令行：迁移表结构、查看/设置库存、手动对账、跟踪订单事件
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/usedbooks/internal/infrastructure/config"
	"github.com/xiebiao/usedbooks/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configDir string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "usedbooksctl",
		Short:         "二手书平台运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configDir, "config", "c", "", "配置文件目录（默认 ./config 和 .）")

	root.AddCommand(
		newMigrateCmd(opts),
		newStockCmd(opts),
		newReconcileCmd(opts),
		newEventsCmd(opts),
	)
	return root
}

// load 读取配置并创建命令行用的Logger
func (o *rootOptions) load() (*config.Config, *zap.Logger, func(), error) {
	var paths []string
	if o.configDir != "" {
		paths = append(paths, o.configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, nil, err
	}

	log, flush, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	}, zap.String("service", "usedbooksctl"))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, func() { _ = flush() }, nil
}
